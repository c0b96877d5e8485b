package moderation

import (
	"errors"                      // Error inspection
	"strings"                     // String manipulation
	"nanogallery/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Service governs a template's lifecycle from creation through approval or
// rejection. Only admins transition templates; terminal states never return
// to pending.
type Service struct {
	db *gorm.DB // Relational store holding template rows
}

// New constructs a moderation service over the given database handle
func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create enters a template into the moderation machine. Admin authors publish
// pre-approved; everyone else starts pending.
func (s *Service) Create(actor *domain.Account, t *domain.Template) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.Prompt) == "" {
		return domain.ErrValidation
	}
	t.OwnerID = actor.ID  // Ownership follows the creator
	t.Author = actor.Name // Display name shown in the gallery
	if actor.IsAdmin() {
		t.Status = domain.StatusApproved
	} else {
		t.Status = domain.StatusPending
	}
	if err := s.db.Create(t).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"owner_id": actor.ID,    // Creating account
			"title":    t.Title,     // Template title
			"error":    err.Error(), // Error message
		}).Error("Template create failed") // Log create failure
		return err
	}
	logrus.WithFields(logrus.Fields{
		"template_id": t.ID,     // New template
		"owner_id":    actor.ID, // Creating account
		"status":      t.Status, // Initial moderation status
	}).Info("Template created") // Log create success
	return nil
}

// Approve transitions pending -> approved. Re-approving an approved template
// is a no-op success; approving a rejected one is an invalid transition.
func (s *Service) Approve(templateID uint, actor *domain.Account) (*domain.Template, error) {
	return s.transition(templateID, actor, domain.StatusApproved)
}

// Reject transitions pending -> rejected, with the mirrored idempotence rules
func (s *Service) Reject(templateID uint, actor *domain.Account) (*domain.Template, error) {
	return s.transition(templateID, actor, domain.StatusRejected)
}

func (s *Service) transition(templateID uint, actor *domain.Account, target string) (*domain.Template, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	var t domain.Template
	if err := s.db.First(&t, templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	switch t.Status {
	case target:
		return &t, nil // Idempotent: already in the target state
	case domain.StatusPending:
		// Fall through to the update below
	default:
		// approved -> rejected or rejected -> approved is not allowed
		return nil, domain.ErrInvalidTransition
	}
	if err := s.db.Model(&t).Update("status", target).Error; err != nil {
		return nil, err
	}
	t.Status = target
	logrus.WithFields(logrus.Fields{
		"template_id": templateID, // Moderated template
		"status":      target,     // New moderation status
		"admin_id":    actor.ID,   // Acting admin
	}).Info("Template moderated") // Log the transition
	return &t, nil
}
