package models

import "time"

// Advice is the engine's per-poll output handed to the presentation layer.
// Pointer fields are nil when the underlying estimate is undefined (not
// enough qualifying samples yet).
type Advice struct {
	Timestamp        time.Time
	Calibrator       float64 // [-1,1], positive = consuming faster than optimal
	SessionTarget    float64 // [10,100]
	OptimalRate      *float64
	ObservedRate     *float64
	WeeklyDeviation  float64 // [-1,1], positive = ahead of expectation
	ExchangeRate     *float64
	SessionBudget    *float64
	IsNewSession     bool
	SessionDeviation float64 // [-1,1]
	DailyDeviation   float64 // [-1,1]
	Zone             PacingZone
}

// CombinedPct is the blended utilization stored with each snapshot row and
// used by the read-side aggregation queries.
func CombinedPct(sessionUsed, weeklyUsed float64) float64 {
	return (sessionUsed + weeklyUsed) / 2
}
