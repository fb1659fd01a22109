package model

import "time"

// Token purposes. Each purpose gets its own TTL and its own active-token
// invariant: issuing a new token marks every older unused one for the same
// user and purpose as used.
const (
	PurposeReset  = "reset"
	PurposeChange = "change"
)

// CredentialToken stores a one-way hash of a single-use secret mailed to a
// user. The plaintext is never persisted.
type CredentialToken struct {
	ID        int        `gorm:"primaryKey;autoIncrement"`
	UserID    string     `gorm:"index;not null"`
	TokenHash string     `gorm:"index;not null"`
	Purpose   string     `gorm:"index;not null"`
	ExpiresAt time.Time  `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
	CleanupAt *time.Time
}
