package model

import "time"

type Post struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     string    `gorm:"index;not null" json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `gorm:"not null" json:"content"`
	ImageURL   string    `json:"image_url"`
	LikesCount int       `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type PostLike struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int       `gorm:"index;not null" json:"post_id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
