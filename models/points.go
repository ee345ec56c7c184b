package models

import "time"

// PointRecord holds the authoritative engagement state for one user.
// One row per user; mutated only through the points engine. TotalPoints never
// decreases and Level is always derived from it.
type PointRecord struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	UserID      uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalPoints int        `gorm:"not null;default:0" json:"total_points"`
	DailyStreak int        `gorm:"not null;default:0" json:"daily_streak"`
	LastClaimAt *time.Time `json:"last_claim_at"`
	Level       string     `gorm:"size:16;not null;default:Bronze" json:"level"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Transaction type values recorded in the ledger.
const (
	TxnDailyClaim     = "daily_claim"
	TxnTaskCompletion = "task_completion"
)

// PointTransaction is an append-only audit entry for a single point-affecting
// event. Rows are never updated or deleted, and the engine never reads them
// back to reconstruct state.
type PointTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Reference   string    `gorm:"size:36;uniqueIndex" json:"reference"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Points      int       `gorm:"not null" json:"points"`
	Type        string    `gorm:"size:32;index;not null" json:"type"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// DailyTask guards once-per-day task awards. The composite unique index is the
// authority: concurrent completions collapse to a single winner.
// Date is a calendar day string (2006-01-02) to avoid timezone/type mismatches
// with DATE columns across drivers.
type DailyTask struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	UserID       uint      `gorm:"uniqueIndex:idx_user_task_date;not null" json:"user_id"`
	TaskType     string    `gorm:"size:32;uniqueIndex:idx_user_task_date;not null" json:"task_type"`
	Date         string    `gorm:"size:10;uniqueIndex:idx_user_task_date;not null" json:"date"`
	Completed    bool      `gorm:"not null;default:false" json:"completed"`
	PointsEarned int       `json:"points_earned"`
	CompletedAt  time.Time `json:"completed_at"`
}
