package points

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pulsefeed/pulsefeed/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.PointRecord{}, &models.PointTransaction{}, &models.DailyTask{}))
	return db
}

func TestGormStoreCreateIsIdempotent(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	ctx := context.Background()

	first, err := store.CreatePointRecord(ctx, 1)
	require.NoError(t, err)
	second, err := store.CreatePointRecord(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, string(TierBronze), second.Level)

	var count int64
	require.NoError(t, store.db.Model(&models.PointRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGormStoreGetMissingRecord(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	_, err := store.GetPointRecord(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStoreConditionalUpdate(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	ctx := context.Background()

	rec, err := store.CreatePointRecord(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, rec.LastClaimAt)

	now := time.Now().Truncate(time.Second)
	streak := 1
	err = store.UpdatePointRecordIf(ctx, 1, nil, RecordUpdate{
		TotalPoints: 50,
		Level:       TierBronze,
		DailyStreak: &streak,
		LastClaimAt: &now,
	})
	require.NoError(t, err)

	// Replaying the same expectation must now conflict: the stored
	// last_claim_at moved.
	err = store.UpdatePointRecordIf(ctx, 1, nil, RecordUpdate{TotalPoints: 100, Level: TierBronze})
	assert.ErrorIs(t, err, ErrConflict)

	// Matching the new timestamp succeeds and leaves streak untouched.
	err = store.UpdatePointRecordIf(ctx, 1, &now, RecordUpdate{TotalPoints: 60, Level: TierBronze})
	require.NoError(t, err)

	got, err := store.GetPointRecord(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 60, got.TotalPoints)
	assert.Equal(t, 1, got.DailyStreak)
	require.NotNil(t, got.LastClaimAt)
}

func TestGormStoreConditionalUpdateMissingRow(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	err := store.UpdatePointRecordIf(context.Background(), 9, nil, RecordUpdate{TotalPoints: 1, Level: TierBronze})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStoreDailyTaskUniqueness(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	ctx := context.Background()

	task := &models.DailyTask{
		UserID:       1,
		TaskType:     "read_article",
		Date:         "2024-03-14",
		Completed:    true,
		PointsEarned: 10,
		CompletedAt:  time.Now(),
	}
	won, err := store.UpsertDailyTask(ctx, task)
	require.NoError(t, err)
	assert.True(t, won)

	// Same (user, task, date) loses to the unique index.
	dup := *task
	dup.ID = 0
	won, err = store.UpsertDailyTask(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, won)

	// Next day is a fresh slot.
	next := *task
	next.ID = 0
	next.Date = "2024-03-15"
	won, err = store.UpsertDailyTask(ctx, &next)
	require.NoError(t, err)
	assert.True(t, won)

	got, err := store.GetDailyTask(ctx, 1, "read_article", "2024-03-14")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, 10, got.PointsEarned)
}

func TestGormStoreLedgerListing(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		err := store.AppendTransaction(ctx, &models.PointTransaction{
			Reference: fmt.Sprintf("ref-%d", i),
			UserID:    1,
			Points:    10 + i,
			Type:      models.TxnDailyClaim,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	txns, total, err := store.ListTransactions(ctx, 1, 0, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, txns, 3)
	// Newest first.
	assert.Equal(t, "ref-4", txns[0].Reference)
}

func TestEngineAgainstGormStore(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)
	ctx := context.Background()

	res, err := e.ClaimDaily(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Points)

	_, err = e.ClaimDaily(ctx, 1)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	tr, err := e.CompleteTask(ctx, 1, "watch_video", 15)
	require.NoError(t, err)
	assert.Equal(t, 65, tr.TotalPoints)

	st, err := e.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 65, st.Record.TotalPoints)
	assert.Equal(t, 1, st.Record.DailyStreak)
	assert.False(t, st.CanClaim)
}
