package models

import "time"

// Comment belongs to an article.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArticleID uint      `gorm:"index;not null" json:"article_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"size:2048;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"user"`
}
