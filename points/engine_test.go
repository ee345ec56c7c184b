package points

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsefeed/pulsefeed/models"
)

// memStore is an in-memory Store with the same conditional-write semantics
// the gorm store provides, so engine behavior can be exercised without a
// database.
type memStore struct {
	mu      sync.Mutex
	records map[uint]*models.PointRecord
	tasks   map[string]*models.DailyTask
	ledger  []models.PointTransaction

	failAppend bool
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[uint]*models.PointRecord),
		tasks:   make(map[string]*models.DailyTask),
	}
}

func (m *memStore) GetPointRecord(_ context.Context, userID uint) (*models.PointRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore) CreatePointRecord(_ context.Context, userID uint) (*models.PointRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[userID]; ok {
		cp := *rec
		return &cp, nil
	}
	rec := &models.PointRecord{UserID: userID, Level: string(TierBronze)}
	m.records[userID] = rec
	cp := *rec
	return &cp, nil
}

func (m *memStore) UpdatePointRecordIf(_ context.Context, userID uint, expect *time.Time, upd RecordUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return ErrNotFound
	}
	if (rec.LastClaimAt == nil) != (expect == nil) {
		return ErrConflict
	}
	if rec.LastClaimAt != nil && !rec.LastClaimAt.Equal(*expect) {
		return ErrConflict
	}
	rec.TotalPoints = upd.TotalPoints
	rec.Level = string(upd.Level)
	if upd.DailyStreak != nil {
		rec.DailyStreak = *upd.DailyStreak
	}
	if upd.LastClaimAt != nil {
		t := *upd.LastClaimAt
		rec.LastClaimAt = &t
	}
	return nil
}

func (m *memStore) AppendTransaction(_ context.Context, txn *models.PointTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppend {
		return errors.New("ledger unavailable")
	}
	m.ledger = append(m.ledger, *txn)
	return nil
}

func (m *memStore) ListTransactions(_ context.Context, userID uint, offset, limit int) ([]models.PointTransaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.PointTransaction
	for _, t := range m.ledger {
		if t.UserID == userID {
			all = append(all, t)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memStore) GetDailyTask(_ context.Context, userID uint, taskType, date string) (*models.DailyTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskKey(userID, taskType, date)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *task
	return &cp, nil
}

func (m *memStore) UpsertDailyTask(_ context.Context, task *models.DailyTask) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := taskKey(task.UserID, task.TaskType, task.Date)
	if _, ok := m.tasks[key]; ok {
		return false, nil
	}
	cp := *task
	m.tasks[key] = &cp
	return true, nil
}

func taskKey(userID uint, taskType, date string) string {
	return fmt.Sprintf("%d/%s/%s", userID, taskType, date)
}

func newTestEngine(store Store, now time.Time) *Engine {
	e := NewEngine(store, Config{}, nil)
	e.now = func() time.Time { return now }
	return e
}

func TestStatusInitializesDefaults(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	st, err := e.Status(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Record.TotalPoints)
	assert.Equal(t, 0, st.Record.DailyStreak)
	assert.Equal(t, string(TierBronze), st.Record.Level)
	assert.Nil(t, st.Record.LastClaimAt)
	assert.True(t, st.CanClaim)

	// Second call is idempotent: same values, still a single record.
	st2, err := e.Status(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, st.Record.TotalPoints, st2.Record.TotalPoints)
	assert.Len(t, store.records, 1)
}

func TestClaimDailyFirstClaim(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	res, err := e.ClaimDaily(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Points)
	assert.Equal(t, 50, res.TotalPoints)
	assert.Equal(t, 1, res.DailyStreak)
	assert.Equal(t, TierBronze, res.Level)

	require.Len(t, store.ledger, 1)
	assert.Equal(t, models.TxnDailyClaim, store.ledger[0].Type)
	assert.Equal(t, 50, store.ledger[0].Points)
	assert.NotEmpty(t, store.ledger[0].Reference)
}

func TestClaimDailyWindowGate(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	// 23h59m ago: rejected, no mutation, no ledger entry.
	last := now.Add(-23*time.Hour - 59*time.Minute)
	seedRecord(store, 1, 100, 2, &last)

	_, err := e.ClaimDaily(context.Background(), 1)
	require.ErrorIs(t, err, ErrAlreadyClaimed)
	var ace *AlreadyClaimedError
	require.ErrorAs(t, err, &ace)
	assert.Equal(t, 0, ace.RemainingHours)
	assert.Equal(t, 1, ace.RemainingMinutes)
	assert.Equal(t, 100, store.records[1].TotalPoints)
	assert.Empty(t, store.ledger)

	// Exactly 24h ago: allowed.
	last = now.Add(-24 * time.Hour)
	seedRecord(store, 1, 100, 2, &last)
	res, err := e.ClaimDaily(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Points)
}

func TestClaimDailyStreakContinues(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	// Claimed 25h ago, which was yesterday: streak 3 -> 4, bonus on the old 3.
	last := now.Add(-25 * time.Hour)
	seedRecord(store, 1, 200, 3, &last)

	res, err := e.ClaimDaily(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 65, res.Points) // 50 + 3*5
	assert.Equal(t, 265, res.TotalPoints)
	assert.Equal(t, 4, res.DailyStreak)
}

func TestClaimDailyStreakResets(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	// Claimed 3 calendar days ago: bonus still uses the old streak, then resets.
	last := now.AddDate(0, 0, -3)
	seedRecord(store, 1, 200, 5, &last)

	res, err := e.ClaimDaily(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 75, res.Points) // 50 + 5*5
	assert.Equal(t, 1, res.DailyStreak)
}

func TestClaimDailyLevelBoundary(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	seedRecord(store, 1, 950, 0, nil)

	res, err := e.ClaimDaily(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1000, res.TotalPoints)
	assert.Equal(t, TierSilver, res.Level)
	assert.Equal(t, string(TierSilver), store.records[1].Level)
}

func TestClaimDailyLedgerFailureIsBestEffort(t *testing.T) {
	store := newMemStore()
	store.failAppend = true
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	res, err := e.ClaimDaily(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 50, res.TotalPoints)
	assert.Equal(t, 50, store.records[1].TotalPoints)
}

func TestCompleteTaskSingleAward(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	res, err := e.CompleteTask(context.Background(), 1, "read_article", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, res.TotalPoints)
	assert.Equal(t, TierBronze, res.Level)

	_, err = e.CompleteTask(context.Background(), 1, "read_article", 10)
	require.ErrorIs(t, err, ErrTaskAlreadyCompleted)
	assert.Equal(t, 10, store.records[1].TotalPoints)

	// A different task type on the same day is a separate award.
	res, err = e.CompleteTask(context.Background(), 1, "watch_video", 15)
	require.NoError(t, err)
	assert.Equal(t, 25, res.TotalPoints)

	require.Len(t, store.ledger, 2)
	assert.Equal(t, models.TxnTaskCompletion, store.ledger[0].Type)
}

func TestCompleteTaskLeavesStreakAlone(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	last := now.Add(-30 * time.Hour)
	seedRecord(store, 1, 100, 4, &last)

	_, err := e.CompleteTask(context.Background(), 1, "read_article", 10)
	require.NoError(t, err)

	rec := store.records[1]
	assert.Equal(t, 110, rec.TotalPoints)
	assert.Equal(t, 4, rec.DailyStreak)
	assert.True(t, rec.LastClaimAt.Equal(last))
}

func TestCompleteTaskRejectsNonPositiveAward(t *testing.T) {
	e := newTestEngine(newMemStore(), time.Now())
	_, err := e.CompleteTask(context.Background(), 1, "read_article", 0)
	assert.Error(t, err)
}

func TestConcurrentClaimsSingleAward(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	last := now.Add(-25 * time.Hour)
	seedRecord(store, 1, 100, 2, &last)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ClaimDaily(context.Background(), 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var granted, rejected int
	for err := range errs {
		switch {
		case err == nil:
			granted++
		case errors.Is(err, ErrAlreadyClaimed):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, granted)
	assert.Equal(t, n-1, rejected)
	assert.Equal(t, 160, store.records[1].TotalPoints) // exactly one 50+2*5 award
	assert.Len(t, store.ledger, 1)
}

func TestTransactionsPaging(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, now)

	for i := 0; i < 3; i++ {
		_, err := e.CompleteTask(context.Background(), 1, fmt.Sprintf("task_%d", i), 5)
		require.NoError(t, err)
	}

	txns, total, err := e.Transactions(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, txns, 2)
}

func seedRecord(store *memStore, userID uint, total, streak int, last *time.Time) {
	store.mu.Lock()
	defer store.mu.Unlock()
	rec := &models.PointRecord{
		UserID:      userID,
		TotalPoints: total,
		DailyStreak: streak,
		Level:       string(Classify(total)),
	}
	if last != nil {
		t := *last
		rec.LastClaimAt = &t
	}
	store.records[userID] = rec
}
