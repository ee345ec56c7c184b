package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsefeed/pulsefeed/models"
)

// Config tunes the award amounts. Zero values fall back to the defaults.
type Config struct {
	// BasePoints is the flat daily claim award.
	BasePoints int
	// StreakBonusStep is multiplied by the pre-claim streak and added to the
	// base award, so day 1 of a fresh streak earns no bonus and day 2 earns
	// one step.
	StreakBonusStep int
}

const (
	defaultBasePoints      = 50
	defaultStreakBonusStep = 5
)

// Engine orchestrates the daily claim, task completion and status paths over
// a Store. All time handling goes through the injected clock.
type Engine struct {
	store Store
	cfg   Config
	log   *zap.SugaredLogger
	now   func() time.Time
}

// NewEngine creates an engine. A nil logger disables ledger-append warnings.
func NewEngine(store Store, cfg Config, log *zap.SugaredLogger) *Engine {
	if cfg.BasePoints <= 0 {
		cfg.BasePoints = defaultBasePoints
	}
	if cfg.StreakBonusStep <= 0 {
		cfg.StreakBonusStep = defaultStreakBonusStep
	}
	return &Engine{store: store, cfg: cfg, log: log, now: time.Now}
}

// ClaimResult reports a successful daily claim.
type ClaimResult struct {
	Points      int  `json:"points"`
	TotalPoints int  `json:"total_points"`
	DailyStreak int  `json:"daily_streak"`
	Level       Tier `json:"level"`
}

// TaskResult reports a successful once-per-day task award.
type TaskResult struct {
	Points      int  `json:"points"`
	TotalPoints int  `json:"total_points"`
	Level       Tier `json:"level"`
}

// Status is the read-path projection: the record plus the claim window
// re-derived at query time.
type Status struct {
	Record   *models.PointRecord `json:"record"`
	CanClaim bool                `json:"can_claim"`
	Window   WindowStatus        `json:"window"`
}

// ClaimDaily awards the once-per-24h reward. The conditional write keyed on
// the previously read last-claim timestamp guarantees that two concurrent
// claims for the same user produce exactly one award; the loser surfaces as
// ErrAlreadyClaimed.
func (e *Engine) ClaimDaily(ctx context.Context, userID uint) (*ClaimResult, error) {
	rec, err := e.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	ws := CanClaim(rec.LastClaimAt, now)
	if !ws.Allowed {
		return nil, &AlreadyClaimedError{
			RemainingHours:   ws.RemainingHours,
			RemainingMinutes: ws.RemainingMinutes,
		}
	}

	// Bonus uses the streak value before this claim increments it.
	bonus := rec.DailyStreak * e.cfg.StreakBonusStep
	award := e.cfg.BasePoints + bonus
	newStreak := NextStreak(rec.LastClaimAt, now, rec.DailyStreak)
	newTotal := rec.TotalPoints + award
	newLevel := Classify(newTotal)

	claimAt := now
	upd := RecordUpdate{
		TotalPoints: newTotal,
		Level:       newLevel,
		DailyStreak: &newStreak,
		LastClaimAt: &claimAt,
	}
	if err := e.store.UpdatePointRecordIf(ctx, userID, rec.LastClaimAt, upd); err != nil {
		if errors.Is(err, ErrConflict) {
			// A concurrent claim won the race; this request gets the same
			// answer it would have gotten a moment later.
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("update point record: %w", err)
	}

	e.appendLedger(ctx, &models.PointTransaction{
		Reference:   uuid.NewString(),
		UserID:      userID,
		Points:      award,
		Type:        models.TxnDailyClaim,
		Description: fmt.Sprintf("daily claim: %d base + %d streak bonus", e.cfg.BasePoints, bonus),
		CreatedAt:   now,
	})

	return &ClaimResult{
		Points:      award,
		TotalPoints: newTotal,
		DailyStreak: newStreak,
		Level:       newLevel,
	}, nil
}

// CompleteTask awards a flat amount for a named activity at most once per
// calendar day. The streak and claim clock are untouched. The daily-task
// unique index is the single-award authority; the point write retries once
// when it loses a conditional update to a concurrent daily claim.
func (e *Engine) CompleteTask(ctx context.Context, userID uint, taskType string, award int) (*TaskResult, error) {
	if award <= 0 {
		return nil, fmt.Errorf("task award must be positive, got %d", award)
	}

	now := e.now()
	date := now.Format("2006-01-02")

	existing, err := e.store.GetDailyTask(ctx, userID, taskType, date)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get daily task: %w", err)
	}
	if existing != nil && existing.Completed {
		return nil, ErrTaskAlreadyCompleted
	}

	won, err := e.store.UpsertDailyTask(ctx, &models.DailyTask{
		UserID:       userID,
		TaskType:     taskType,
		Date:         date,
		Completed:    true,
		PointsEarned: award,
		CompletedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert daily task: %w", err)
	}
	if !won {
		return nil, ErrTaskAlreadyCompleted
	}

	var res *TaskResult
	for attempt := 0; attempt < 2; attempt++ {
		rec, err := e.loadOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		newTotal := rec.TotalPoints + award
		newLevel := Classify(newTotal)
		err = e.store.UpdatePointRecordIf(ctx, userID, rec.LastClaimAt, RecordUpdate{
			TotalPoints: newTotal,
			Level:       newLevel,
		})
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update point record: %w", err)
		}
		res = &TaskResult{Points: award, TotalPoints: newTotal, Level: newLevel}
		break
	}
	if res == nil {
		return nil, ErrConflict
	}

	e.appendLedger(ctx, &models.PointTransaction{
		Reference:   uuid.NewString(),
		UserID:      userID,
		Points:      award,
		Type:        models.TxnTaskCompletion,
		Description: fmt.Sprintf("task completed: %s", taskType),
		CreatedAt:   now,
	})

	return res, nil
}

// Status projects the current record plus claim availability. It never
// mutates state beyond the lazy creation of a default record, so a user who
// has never interacted gets Bronze/0/claimable instead of an error.
func (e *Engine) Status(ctx context.Context, userID uint) (*Status, error) {
	rec, err := e.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	ws := CanClaim(rec.LastClaimAt, e.now())
	return &Status{Record: rec, CanClaim: ws.Allowed, Window: ws}, nil
}

// Transactions pages through the audit ledger, newest first.
func (e *Engine) Transactions(ctx context.Context, userID uint, page, pageSize int) ([]models.PointTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return e.store.ListTransactions(ctx, userID, (page-1)*pageSize, pageSize)
}

func (e *Engine) loadOrCreate(ctx context.Context, userID uint) (*models.PointRecord, error) {
	rec, err := e.store.GetPointRecord(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get point record: %w", err)
	}
	rec, err = e.store.CreatePointRecord(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create point record: %w", err)
	}
	return rec, nil
}

// appendLedger records an audit entry. The ledger is a convenience, not
// authoritative state, so failures are logged and swallowed.
func (e *Engine) appendLedger(ctx context.Context, txn *models.PointTransaction) {
	if err := e.store.AppendTransaction(ctx, txn); err != nil && e.log != nil {
		e.log.Warnf("ledger append failed user=%d type=%s: %v", txn.UserID, txn.Type, err)
	}
}
