package model

import "time"

type Notification struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID string    `gorm:"index;not null" json:"recipient_id"`
	ActorID     string    `gorm:"index;not null" json:"actor_id"`
	Type        string    `gorm:"not null" json:"type"`
	TargetType  string    `gorm:"not null" json:"target_type"`
	TargetID    string    `json:"target_id"`
	Content     string    `json:"content"`
	IsRead      bool      `gorm:"default:false" json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
