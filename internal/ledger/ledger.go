package ledger

import (
	"errors"                      // Error inspection
	"nanogallery/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Service is the sole authority over credit balances. Every read and write of
// the credits column goes through this type; no other code path touches it.
type Service struct {
	db             *gorm.DB // Relational store holding account rows
	defaultCredits int      // Balance granted when a row is lazily provisioned
}

// New constructs a ledger service over the given database handle
func New(db *gorm.DB, defaultCredits int) *Service {
	return &Service{db: db, defaultCredits: defaultCredits}
}

// Balance is the ledger view of one account
type Balance struct {
	Role    string `json:"role"`    // Account role: user or admin
	Credits int    `json:"credits"` // Current balance
}

// CheckBalance returns the role and credit balance for an account.
// A missing row is a NotFound error; callers provision lazily via Provision.
func (s *Service) CheckBalance(accountID uint) (*Balance, error) {
	var account domain.Account
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &Balance{Role: account.Role, Credits: account.Credits}, nil
}

// Provision creates the default ledger row for an authenticated identity whose
// row is missing. Repeated calls are idempotent; an existing row is left untouched.
func (s *Service) Provision(accountID uint, name string) (*domain.Account, error) {
	account := domain.Account{
		ID:      accountID,        // Identity comes from the session, not auto-increment
		Name:    name,             // Display name carried in the session claims
		Role:    domain.RoleUser,  // Self-healed rows are never admin
		Credits: s.defaultCredits, // Default starting balance
	}
	// FirstOrCreate keeps repeated logins idempotent
	if err := s.db.FirstOrCreate(&account, domain.Account{ID: accountID}).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// Authorize reports whether the account may spend cost credits. Admin accounts
// always pass. Side-effect-free; the returned balance lets callers build an
// insufficient-credits error without a second read.
func (s *Service) Authorize(accountID uint, cost int) (bool, *Balance, error) {
	bal, err := s.CheckBalance(accountID)
	if err != nil {
		return false, nil, err
	}
	if bal.Role == domain.RoleAdmin {
		return true, bal, nil
	}
	return bal.Credits >= cost, bal, nil
}

// Debit reduces the balance by cost and returns the new balance. The decrement
// is a single conditional UPDATE so two concurrent requests cannot both spend
// the same credits: zero affected rows on an existing non-admin row means the
// balance was no longer sufficient. Admin accounts are never debited.
func (s *Service) Debit(accountID uint, cost int) (int, error) {
	bal, err := s.CheckBalance(accountID)
	if err != nil {
		return 0, err
	}
	// Admin balances are treated as infinite; the debit is a no-op
	if bal.Role == domain.RoleAdmin {
		return bal.Credits, nil
	}
	res := s.db.Exec(
		"UPDATE accounts SET credits = GREATEST(credits - ?, 0) WHERE id = ? AND credits >= ?",
		cost, accountID, cost,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Row exists (read above), so the conditional guard rejected the spend
		return bal.Credits, &domain.InsufficientCreditsError{Needed: cost, Available: bal.Credits}
	}
	after, err := s.CheckBalance(accountID)
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{
		"account_id": accountID,     // Debited account
		"cost":       cost,          // Credits charged
		"balance":    after.Credits, // Balance after the debit
	}).Info("Ledger debit") // Log the settle
	return after.Credits, nil
}

// Grant adds credits to an account and records an audit row, in one transaction
func (s *Service) Grant(accountID uint, amount int, grantedBy uint) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrValidation
	}
	var account domain.Account
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	// Atomic grant plus audit record
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Increment the balance
		if err := tx.Model(&account).Update("credits", gorm.Expr("credits + ?", amount)).Error; err != nil {
			return err // Return error to rollback
		}
		g := domain.CreditGrant{
			AccountID: accountID, // Receiving account
			Amount:    amount,    // Granted credits
			GrantedBy: grantedBy, // Issuing admin
		}
		// Save the audit row
		if err := tx.Create(&g).Error; err != nil {
			return err // Return error to rollback
		}
		return nil // Commit transaction
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,   // Receiving account
			"amount":     amount,      // Granted credits
			"granted_by": grantedBy,   // Issuing admin
			"error":      err.Error(), // Error message
		}).Error("Credit grant failed") // Log grant failure
		return 0, err
	}
	logrus.WithFields(logrus.Fields{
		"account_id": accountID, // Receiving account
		"amount":     amount,    // Granted credits
		"granted_by": grantedBy, // Issuing admin
	}).Info("Credit grant") // Log grant success
	return account.Credits + amount, nil
}
