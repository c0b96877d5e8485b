package domain

// CreditGrant Model: audit record for an administrative credit grant
type CreditGrant struct {
	ID        uint  `gorm:"primaryKey" json:"id"`                   // Primary key
	AccountID uint  `gorm:"index;not null" json:"account_id"`       // Receiving account
	Amount    int   `gorm:"not null" json:"amount"`                 // Granted credits
	GrantedBy uint  `gorm:"not null" json:"granted_by"`             // Admin account that issued the grant
	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"created_at"` // Timestamp of creation in milliseconds
}
