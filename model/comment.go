package model

import "time"

type Comment struct {
	ID            int       `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID        int       `gorm:"index;not null" json:"post_id"`
	UserID        string    `gorm:"index;not null" json:"user_id"`
	Content       string    `gorm:"not null" json:"content"`
	LikesCount    int       `json:"likes_count"`
	DislikesCount int       `json:"dislikes_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type CommentReply struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	CommentID int       `gorm:"index;not null" json:"comment_id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CommentReaction struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	CommentID int       `gorm:"index;not null" json:"comment_id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	Reaction  string    `gorm:"not null" json:"reaction"`
	CreatedAt time.Time `json:"created_at"`
}
