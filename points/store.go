package points

import (
	"context"
	"time"

	"github.com/pulsefeed/pulsefeed/models"
)

// RecordUpdate carries the fields a point mutation writes back. DailyStreak
// and LastClaimAt are optional; nil leaves the stored value untouched (the
// task-completion path never moves the claim clock or the streak).
type RecordUpdate struct {
	TotalPoints int
	Level       Tier
	DailyStreak *int
	LastClaimAt *time.Time
}

// Store is the storage collaborator consumed by the engine. Implementations
// must make CreatePointRecord an idempotent upsert keyed on user id, make
// UpdatePointRecordIf a conditional write keyed on the expected prior
// last-claim timestamp (nil-safe), and enforce DailyTask uniqueness on
// (user, task type, date) so concurrent completions collapse to one winner.
type Store interface {
	GetPointRecord(ctx context.Context, userID uint) (*models.PointRecord, error)
	CreatePointRecord(ctx context.Context, userID uint) (*models.PointRecord, error)
	UpdatePointRecordIf(ctx context.Context, userID uint, expectLastClaim *time.Time, upd RecordUpdate) error
	AppendTransaction(ctx context.Context, txn *models.PointTransaction) error
	ListTransactions(ctx context.Context, userID uint, offset, limit int) ([]models.PointTransaction, int64, error)
	GetDailyTask(ctx context.Context, userID uint, taskType, date string) (*models.DailyTask, error)
	UpsertDailyTask(ctx context.Context, task *models.DailyTask) (bool, error)
}
