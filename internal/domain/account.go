package domain

// Account roles
const (
	RoleUser  = "user"  // Regular account, spends credits to generate
	RoleAdmin = "admin" // Moderator account, never debited
)

// SystemOwnerID marks seed content that belongs to no account
const SystemOwnerID uint = 0

// Account Model
type Account struct {
	ID        uint   `gorm:"primaryKey" json:"id"`            // Primary key
	Name      string `gorm:"unique;not null" json:"name"`     // Unique display name
	Password  string `gorm:"not null" json:"-"`               // Hashed password, never serialized
	Role      string `gorm:"default:user" json:"role"`        // Role: user or admin
	Credits   int    `gorm:"not null;default:0" json:"credits"` // Credit balance, floored at zero
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"` // Timestamp of creation in milliseconds
}

// IsAdmin reports whether the account may moderate and spend without limit
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
