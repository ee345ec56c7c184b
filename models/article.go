package models

import "time"

// Article is a long-form content entry. Content is sanitized HTML.
type Article struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:longtext" json:"content"`
	Category  string    `gorm:"size:32;index" json:"category"`
	CoverURL  string    `gorm:"size:512" json:"cover_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `json:"author"`
	Comments  []Comment `json:"comments,omitempty"`
}
