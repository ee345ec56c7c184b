package points

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanClaimNeverClaimed(t *testing.T) {
	ws := CanClaim(nil, time.Now())
	assert.True(t, ws.Allowed)
	assert.Zero(t, ws.RemainingHours)
	assert.Zero(t, ws.RemainingMinutes)
}

func TestCanClaimBoundary(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

	// One minute short of the window.
	last := now.Add(-23*time.Hour - 59*time.Minute)
	ws := CanClaim(&last, now)
	assert.False(t, ws.Allowed)
	assert.Equal(t, 0, ws.RemainingHours)
	assert.Equal(t, 1, ws.RemainingMinutes)

	// Exactly 24 hours is allowed (>=, not >).
	last = now.Add(-24 * time.Hour)
	assert.True(t, CanClaim(&last, now).Allowed)
}

func TestCanClaimRemainingBreakdown(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

	last := now.Add(-10 * time.Hour)
	ws := CanClaim(&last, now)
	assert.False(t, ws.Allowed)
	assert.Equal(t, 14, ws.RemainingHours)
	assert.Equal(t, 0, ws.RemainingMinutes)

	last = now.Add(-10*time.Hour - 30*time.Minute)
	ws = CanClaim(&last, now)
	assert.Equal(t, 13, ws.RemainingHours)
	assert.Equal(t, 30, ws.RemainingMinutes)
}
