package model

import "time"

type Follow struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID  string    `gorm:"index;not null" json:"follower_id"`
	FollowingID string    `gorm:"index;not null" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type Friend struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	FriendID  string    `gorm:"index;not null" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	User1ID   string    `gorm:"index;not null" json:"user1_id"`
	User2ID   string    `gorm:"index;not null" json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID             int       `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID int       `gorm:"index;not null" json:"conversation_id"`
	SenderID       string    `gorm:"index;not null" json:"sender_id"`
	Content        string    `gorm:"not null" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
