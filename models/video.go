package models

import "time"

// Video is an externally hosted video entry; only metadata lives here.
type Video struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:1024" json:"description"`
	URL         string    `gorm:"size:512;not null" json:"url"`
	ThumbnailURL string   `gorm:"size:512" json:"thumbnail_url"`
	DurationSec int       `json:"duration_sec"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        User      `json:"author"`
}
