package domain

// Moderation status of a template
const (
	StatusPending  = "pending"  // Awaiting admin review
	StatusApproved = "approved" // Visible in the public gallery when published
	StatusRejected = "rejected" // Hidden from the public gallery, kept for the owner
)

// Template Model: a prompt plus its generated image, public or private
type Template struct {
	ID              uint     `gorm:"primaryKey" json:"id"`                     // Primary key
	Title           string   `gorm:"not null" json:"title"`                    // Display title
	Prompt          string   `gorm:"type:text;not null" json:"prompt"`         // Generation prompt
	AspectRatio     string   `gorm:"size:8" json:"aspect_ratio"`               // One of the fixed aspect ratios
	ImageURL        string   `json:"image_url"`                                // Durable public URL of the primary image
	ReferenceImages []string `gorm:"serializer:json;type:text" json:"reference_images,omitempty"` // Optional reference image data URLs
	Author          string   `json:"author"`                                   // Display name of the creator
	OwnerID         uint     `gorm:"index" json:"owner_id"`                    // Owning account, SystemOwnerID for seed content
	IsPublished     bool     `json:"is_published"`                             // Publication intent (public/private)
	Status          string   `gorm:"default:pending;index" json:"status"`      // Moderation status
	CreatedAt       int64    `gorm:"autoCreateTime:milli" json:"created_at"`   // Timestamp of creation in milliseconds
}

// IsSystemSeed reports whether the template is seed content, which bypasses moderation
func (t *Template) IsSystemSeed() bool {
	return t.OwnerID == SystemOwnerID
}
