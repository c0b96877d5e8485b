package catalog

import (
	"strings"                     // String manipulation
	"nanogallery/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Pagination defaults and bounds, matching the rest of the API surface
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Catalog exposes the three template views: public gallery, personal library,
// and the admin review queue.
type Catalog struct {
	db *gorm.DB // Relational store holding template rows
}

// New constructs a catalog over the given database handle
func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// Query selects a page of a view, optionally filtered by a case-insensitive
// substring match against title or prompt
type Query struct {
	Search   string // Substring filter, empty means no filter
	Page     int    // 1-based page number
	PageSize int    // Rows per page
}

// Page is one page of templates. HasMore is derived from the page coming back
// full, an approximation rather than an exact count.
type Page struct {
	Templates []domain.Template `json:"templates"` // Page contents, newest first
	Page      int               `json:"page"`      // Current page
	PageSize  int               `json:"page_size"` // Page size
	HasMore   bool              `json:"has_more"`  // A full page means more may exist
}

// Public returns the public gallery view: approved and published templates,
// newest first. System-seeded content is seeded approved and published, so it
// is covered by the same predicate.
func (c *Catalog) Public(q Query) (*Page, error) {
	scope := c.db.Model(&domain.Template{}).
		Where("status = ? AND is_published = ?", domain.StatusApproved, true)
	return c.fetch(scope, q)
}

// Personal returns every template owned by the account, any status or
// publication state
func (c *Catalog) Personal(ownerID uint, q Query) (*Page, error) {
	scope := c.db.Model(&domain.Template{}).Where("owner_id = ?", ownerID)
	return c.fetch(scope, q)
}

// Review returns the pending review queue. Non-admin callers get an empty
// page rather than an error.
func (c *Catalog) Review(actor *domain.Account, q Query) (*Page, error) {
	page, size := normalize(q)
	if actor == nil || !actor.IsAdmin() {
		return &Page{Templates: []domain.Template{}, Page: page, PageSize: size}, nil
	}
	scope := c.db.Model(&domain.Template{}).Where("status = ?", domain.StatusPending)
	return c.fetch(scope, q)
}

// fetch applies the shared filter, ordering and pagination to a scoped query
func (c *Catalog) fetch(scope *gorm.DB, q Query) (*Page, error) {
	page, size := normalize(q)
	if search := strings.TrimSpace(q.Search); search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		scope = scope.Where("LOWER(title) LIKE ? OR LOWER(prompt) LIKE ?", needle, needle)
	}
	templates := make([]domain.Template, 0, size)
	err := scope.Order("created_at desc").
		Offset((page - 1) * size).
		Limit(size).
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return &Page{
		Templates: templates,             // Page contents
		Page:      page,                  // Current page
		PageSize:  size,                  // Page size
		HasMore:   len(templates) == size, // Full page approximation
	}, nil
}

// normalize clamps page and page size to sane bounds
func normalize(q Query) (page, size int) {
	page = q.Page
	if page < 1 {
		page = 1
	}
	size = q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
