package models

import "time"

// TodayStats summarizes the current local calendar day.
type TodayStats struct {
	SessionCount   int
	AvgCombinedPct float64
	DataPoints     int
}

// DailyMax is one local day's peak combined utilization.
type DailyMax struct {
	Day         time.Time
	MaxCombined float64
}

// HourAvg is one local hour-of-day's average combined utilization.
type HourAvg struct {
	Hour        int
	AvgCombined float64
	Occurrences int
}

// SnapshotRow mirrors one persisted poll with its derived metrics. BudgetBurn
// is nil for polls taken before a session budget was available.
type SnapshotRow struct {
	Timestamp           time.Time
	SessionUsedPct      float64
	SessionRemainingMin float64
	WeeklyUsedPct       float64
	WeeklyRemainingMin  float64
	Calibrator          float64
	SessionTarget       float64
	CombinedPct         float64
	BudgetBurn          *float64
}
