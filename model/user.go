// Package model defines database models
package model

import "time"

type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Avatar       string    `json:"avatar"`
	Bio          string    `json:"bio"`
	Website      string    `json:"website"`
	CreatedAt    time.Time `json:"created_at"`

	CredentialTokens []CredentialToken `gorm:"foreignKey:UserID" json:"-"`
	Posts            []Post            `gorm:"foreignKey:UserID" json:"-"`
	Inquiries        []Inquiry         `gorm:"foreignKey:UserID" json:"-"`
}
