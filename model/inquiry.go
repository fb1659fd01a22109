package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Inquiry statuses
const (
	InquiryPending    = "pending"
	InquiryInProgress = "in_progress"
	InquiryResolved   = "resolved"
)

type Attachment struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// AttachmentList is stored as a JSON string column
type AttachmentList []Attachment

// Value implements the driver.Valuer interface.
// This defines how the list is stored in the database.
func (a AttachmentList) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}

	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

// Scan implements the sql.Scanner interface.
// This defines how the database value is converted back into go.
func (a *AttachmentList) Scan(value interface{}) error {
	if value == nil {
		*a = AttachmentList{}
		return nil
	}

	str, ok := value.(string)
	if !ok {
		b, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan AttachmentList, %v", value)
		}

		str = string(b)
	}

	if str == "" {
		*a = AttachmentList{}
		return nil
	}

	return json.Unmarshal([]byte(str), a)
}

type Inquiry struct {
	ID              int            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          string         `gorm:"index;not null" json:"-"`
	Title           string         `gorm:"not null" json:"title"`
	Content         string         `gorm:"not null" json:"content"`
	Status          string         `gorm:"default:pending" json:"status"`
	Response        string         `json:"response,omitempty"`
	Attachments     AttachmentList `gorm:"type:text" json:"attachments"`
	ImageURL        string         `json:"image_url,omitempty"`
	LastViewedAt    *time.Time     `json:"last_viewed_at"`
	StatusChangedAt *time.Time     `json:"status_changed_at"`
	RespondedAt     *time.Time     `json:"responded_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
