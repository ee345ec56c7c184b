package points

import "time"

// ClaimWindow is the minimum spacing between two daily claims.
const ClaimWindow = 24 * time.Hour

// WindowStatus reports whether a claim is allowed and, when it is not, how
// long until the window reopens, broken into whole hours and whole minutes.
type WindowStatus struct {
	Allowed          bool `json:"allowed"`
	RemainingHours   int  `json:"remaining_hours"`
	RemainingMinutes int  `json:"remaining_minutes"`
}

// CanClaim evaluates the claim window against an explicit clock value.
// A nil last claim means the user has never claimed and is always allowed.
// Exactly 24 elapsed hours is allowed.
func CanClaim(last *time.Time, now time.Time) WindowStatus {
	if last == nil {
		return WindowStatus{Allowed: true}
	}

	elapsed := now.Sub(*last)
	if elapsed >= ClaimWindow {
		return WindowStatus{Allowed: true}
	}

	remaining := ClaimWindow - elapsed
	return WindowStatus{
		Allowed:          false,
		RemainingHours:   int(remaining.Hours()),
		RemainingMinutes: int(remaining.Minutes()) % 60,
	}
}
