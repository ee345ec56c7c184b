package points

import "time"

// NextStreak decides the streak value for a claim happening at now, given the
// previous claim time and the streak before this claim.
//
// The streak continues only when the previous claim fell on the calendar day
// immediately before now. This is deliberately a calendar-day comparison, not
// an elapsed-hours one: a 23h claim spacing across midnight keeps the streak
// alive even though the 24h claim window rejects it, and the two rules stay
// independent.
func NextStreak(last *time.Time, now time.Time, current int) int {
	if last != nil && sameDay(*last, now.AddDate(0, 0, -1)) {
		return current + 1
	}
	return 1
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
