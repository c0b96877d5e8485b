package moderation

import (
	"testing"

	"nanogallery/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens gorm over a sqlmock connection
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, mock
}

func templateRow(id uint, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "prompt", "status", "owner_id"}).
		AddRow(id, "a title", "a prompt", status, uint(2))
}

var (
	admin   = &domain.Account{ID: 1, Name: "root", Role: domain.RoleAdmin}
	regular = &domain.Account{ID: 2, Name: "alice", Role: domain.RoleUser}
)

func TestCreate_UserStartsPending(t *testing.T) {
	db, mock := newMockDB(t)
	svc := New(db)

	mock.ExpectExec("INSERT INTO `templates`").
		WillReturnResult(sqlmock.NewResult(5, 1))

	tpl := domain.Template{Title: "a title", Prompt: "a prompt", IsPublished: true}
	require.NoError(t, svc.Create(regular, &tpl))
	assert.Equal(t, domain.StatusPending, tpl.Status, "non-admin content awaits review")
	assert.Equal(t, regular.ID, tpl.OwnerID)
	assert.Equal(t, "alice", tpl.Author)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_AdminStartsApproved(t *testing.T) {
	db, mock := newMockDB(t)
	svc := New(db)

	mock.ExpectExec("INSERT INTO `templates`").
		WillReturnResult(sqlmock.NewResult(6, 1))

	tpl := domain.Template{Title: "a title", Prompt: "a prompt", IsPublished: true}
	require.NoError(t, svc.Create(admin, &tpl))
	assert.Equal(t, domain.StatusApproved, tpl.Status, "admin content skips the queue")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RejectsBlankTitleOrPrompt(t *testing.T) {
	db, _ := newMockDB(t)
	svc := New(db)

	err := svc.Create(regular, &domain.Template{Title: "  ", Prompt: "a prompt"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.Create(regular, &domain.Template{Title: "a title", Prompt: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.Create(nil, &domain.Template{Title: "a title", Prompt: "a prompt"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestApprove_PendingBecomesApproved(t *testing.T) {
	db, mock := newMockDB(t)
	svc := New(db)

	mock.ExpectQuery("SELECT (.+) FROM `templates`").
		WillReturnRows(templateRow(5, domain.StatusPending))
	mock.ExpectExec("UPDATE `templates` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tpl, err := svc.Approve(5, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, tpl.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_IsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	svc := New(db)

	// Already approved: the lookup happens, no update follows
	mock.ExpectQuery("SELECT (.+) FROM `templates`").
		WillReturnRows(templateRow(5, domain.StatusApproved))

	tpl, err := svc.Approve(5, admin)
	require.NoError(t, err, "re-approving must be a no-op success")
	assert.Equal(t, domain.StatusApproved, tpl.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_RejectedIsTerminal(t *testing.T) {
	db, mock := newMockDB(t)
	svc := New(db)

	mock.ExpectQuery("SELECT (.+) FROM `templates`").
		WillReturnRows(templateRow(5, domain.StatusRejected))

	_, err := svc.Approve(5, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReject_PendingBecomesRejected(t *testing.T) {
	db, mock := newMockDB(t)
	svc := New(db)

	mock.ExpectQuery("SELECT (.+) FROM `templates`").
		WillReturnRows(templateRow(5, domain.StatusPending))
	mock.ExpectExec("UPDATE `templates` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tpl, err := svc.Reject(5, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, tpl.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitions_RequireAdmin(t *testing.T) {
	db, mock := newMockDB(t)
	svc := New(db)

	// Role is checked before any lookup
	_, err := svc.Approve(5, regular)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Reject(5, regular)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Approve(5, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_MissingTemplateIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := New(db)

	mock.ExpectQuery("SELECT (.+) FROM `templates`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Approve(404, admin)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
