package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pulsefeed/pulsefeed/models"
)

// GormStore implements Store on a relational database. Conditional updates
// run inside a transaction holding a FOR UPDATE lock on the user's row, so
// the read-check-write cycle serializes per user even across processes.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetPointRecord(ctx context.Context, userID uint) (*models.PointRecord, error) {
	var rec models.PointRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreatePointRecord is an idempotent upsert: a concurrent creator wins the
// unique index on user_id and both callers read back the same row.
func (s *GormStore) CreatePointRecord(ctx context.Context, userID uint) (*models.PointRecord, error) {
	rec := models.PointRecord{UserID: userID, Level: string(TierBronze)}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return nil, err
	}
	return s.GetPointRecord(ctx, userID)
}

// UpdatePointRecordIf applies the update only when the stored last_claim_at
// still matches what the caller read. A lost race reports ErrConflict and
// writes nothing.
func (s *GormStore) UpdatePointRecordIf(ctx context.Context, userID uint, expectLastClaim *time.Time, upd RecordUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		// sqlite has no SELECT ... FOR UPDATE; its transactions already
		// serialize writers.
		if tx.Dialector.Name() == "mysql" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var rec models.PointRecord
		if err := q.Where("user_id = ?", userID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !claimTimeEqual(rec.LastClaimAt, expectLastClaim) {
			return ErrConflict
		}

		fields := map[string]interface{}{
			"total_points": upd.TotalPoints,
			"level":        string(upd.Level),
			"updated_at":   time.Now(),
		}
		if upd.DailyStreak != nil {
			fields["daily_streak"] = *upd.DailyStreak
		}
		if upd.LastClaimAt != nil {
			fields["last_claim_at"] = *upd.LastClaimAt
		}

		res := tx.Model(&models.PointRecord{}).Where("user_id = ?", userID).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
}

func (s *GormStore) AppendTransaction(ctx context.Context, txn *models.PointTransaction) error {
	return s.db.WithContext(ctx).Create(txn).Error
}

func (s *GormStore) ListTransactions(ctx context.Context, userID uint, offset, limit int) ([]models.PointTransaction, int64, error) {
	var total int64
	q := s.db.WithContext(ctx).Model(&models.PointTransaction{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txns []models.PointTransaction
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (s *GormStore) GetDailyTask(ctx context.Context, userID uint, taskType, date string) (*models.DailyTask, error) {
	var task models.DailyTask
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND task_type = ? AND date = ?", userID, taskType, date).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpsertDailyTask inserts the completion row, yielding to the composite
// unique index on conflict. Returns false when another request already won
// today's slot.
func (s *GormStore) UpsertDailyTask(ctx context.Context, task *models.DailyTask) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "task_type"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(task)
	if res.Error != nil {
		return false, fmt.Errorf("upsert daily task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// claimTimeEqual compares nullable claim timestamps. Drivers differ in how
// they round-trip sub-second precision, so comparison is at second grain.
func claimTimeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}
