package points

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStreak(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	today := now.Add(-2 * time.Hour)
	threeDaysAgo := now.AddDate(0, 0, -3)

	cases := []struct {
		name    string
		last    *time.Time
		current int
		want    int
	}{
		{"first ever claim", nil, 0, 1},
		{"claimed yesterday continues", &yesterday, 3, 4},
		{"claimed today resets", &today, 3, 1},
		{"gap of three days resets", &threeDaysAgo, 5, 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, NextStreak(c.last, now, c.current))
		})
	}
}

// The streak rule is calendar-day adjacency, deliberately independent of the
// 24h claim window: 40 minutes apart across midnight still counts as
// consecutive days.
func TestNextStreakNearMidnight(t *testing.T) {
	last := time.Date(2024, 3, 13, 23, 30, 0, 0, time.UTC)
	now := time.Date(2024, 3, 14, 0, 10, 0, 0, time.UTC)

	assert.Equal(t, 8, NextStreak(&last, now, 7))
	assert.False(t, CanClaim(&last, now).Allowed)
}

// Year boundary: Dec 31 -> Jan 1 is adjacent even though YearDay wraps.
func TestNextStreakYearBoundary(t *testing.T) {
	last := time.Date(2023, 12, 31, 18, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC)

	assert.Equal(t, 3, NextStreak(&last, now, 2))
}
