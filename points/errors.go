package points

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyClaimed rejects a daily claim inside the 24h window. No state
	// is mutated when it is returned.
	ErrAlreadyClaimed = errors.New("daily reward already claimed")
	// ErrTaskAlreadyCompleted rejects a second completion of the same task on
	// the same calendar day.
	ErrTaskAlreadyCompleted = errors.New("task already completed today")
	// ErrConflict means a conditional write lost to a concurrent request.
	ErrConflict = errors.New("point record changed concurrently")
	// ErrNotFound is returned by stores for missing rows.
	ErrNotFound = errors.New("record not found")
)

// AlreadyClaimedError carries the time left until the claim window reopens.
// It matches ErrAlreadyClaimed under errors.Is.
type AlreadyClaimedError struct {
	RemainingHours   int
	RemainingMinutes int
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("daily reward already claimed, next claim in %dh %dm", e.RemainingHours, e.RemainingMinutes)
}

func (e *AlreadyClaimedError) Is(target error) bool {
	return target == ErrAlreadyClaimed
}
