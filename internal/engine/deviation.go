package engine

import (
	"math"
	"sort"
	"time"

	"github.com/j-veylop/pacewatch-tui/internal/models"
)

const (
	// empiricalMinHistory is how much history must exist before the
	// empirical expected-usage estimate is preferred over the schedule.
	empiricalMinHistory = 21 * 24 * time.Hour
	// empiricalMinAge excludes recent polls so the estimate reflects prior
	// weeks, not the current one.
	empiricalMinAge = 7 * 24 * time.Hour
	// empiricalMatchMin is the elapsed-minutes tolerance when matching
	// historical polls to the current point in the week.
	empiricalMatchMin = 15.0
	// empiricalMinSamples is the minimum matched sample count.
	empiricalMinSamples = 5
	// projectionMinActiveHours gates the velocity-based projection.
	projectionMinActiveHours = 0.5
)

// weekBounds returns the start and end instants of the rolling weekly window
// containing the poll.
func weekBounds(poll models.Poll) (start, end time.Time) {
	start = poll.Timestamp.Add(-time.Duration(poll.WeekElapsedMin() * float64(time.Minute)))
	end = poll.Timestamp.Add(time.Duration(poll.WeeklyRemainingMin * float64(time.Minute)))
	return start, end
}

// expectedWeeklyUsage estimates what the weekly usage "should" be at this
// point in the week. It prefers the empirical estimate (median usage of
// prior weeks at the same elapsed offset) and falls back to the share of
// scheduled active hours already elapsed.
func expectedWeeklyUsage(state *models.EngineState, poll models.Poll) float64 {
	if v, ok := empiricalExpected(state, poll); ok {
		return v
	}
	return scheduleExpected(state.Windows, poll)
}

func empiricalExpected(state *models.EngineState, poll models.Poll) (float64, bool) {
	if len(state.Polls) == 0 {
		return 0, false
	}
	span := poll.Timestamp.Sub(state.Polls[0].Timestamp)
	if span < empiricalMinHistory {
		return 0, false
	}

	ageCutoff := poll.Timestamp.Add(-empiricalMinAge)
	elapsed := poll.WeekElapsedMin()

	var samples []float64
	for _, p := range state.Polls {
		if !p.Timestamp.Before(ageCutoff) {
			continue
		}
		if math.Abs(p.WeekElapsedMin()-elapsed) <= empiricalMatchMin {
			samples = append(samples, p.WeeklyUsedPct)
		}
	}
	if len(samples) < empiricalMinSamples {
		return 0, false
	}
	return median(samples), true
}

func scheduleExpected(windows [7]models.ActiveWindow, poll models.Poll) float64 {
	weekStart, weekEnd := weekBounds(poll)
	activeElapsed := ActiveHoursInRange(windows, weekStart, poll.Timestamp)
	activeTotal := ActiveHoursInRange(windows, weekStart, weekEnd)
	if activeTotal <= 0 {
		return 0
	}
	return math.Min(100, activeElapsed/activeTotal*100)
}

// projectedWeeklyUsage extrapolates end-of-week usage from the average
// consumption rate over active hours elapsed so far. Undefined until at
// least half an active hour has passed this week.
func projectedWeeklyUsage(windows [7]models.ActiveWindow, poll models.Poll) (float64, bool) {
	weekStart, weekEnd := weekBounds(poll)
	activeElapsed := ActiveHoursInRange(windows, weekStart, poll.Timestamp)
	if activeElapsed < projectionMinActiveHours {
		return 0, false
	}
	activeRemaining := ActiveHoursInRange(windows, poll.Timestamp, weekEnd)
	avgRate := poll.WeeklyUsedPct / activeElapsed
	return poll.WeeklyUsedPct + avgRate*activeRemaining, true
}

// WeeklyDeviation returns how far weekly consumption is from its expected
// trajectory, in [-1,1]. Positive means ahead of (over-consuming relative
// to) expectation. Returns 0 when the weekly window has already rolled over.
func WeeklyDeviation(state *models.EngineState, poll models.Poll) float64 {
	if poll.WeeklyRemainingMin <= 0 {
		return 0
	}
	expected := expectedWeeklyUsage(state, poll)
	positional := (poll.WeeklyUsedPct - expected) / 100

	raw := positional
	if projected, ok := projectedWeeklyUsage(state.Windows, poll); ok {
		velocity := (projected - 100) / 100
		raw = 0.5*positional + 0.5*velocity
	}
	return math.Tanh(2 * raw)
}

// DailyDeviation compares usage since the last day-boundary snapshot against
// a time-proportional share of the remaining weekly budget. Positive means
// over-consuming today. Returns 0 without a snapshot or allotment.
func DailyDeviation(state *models.EngineState, poll models.Poll) float64 {
	snap := state.Daily
	if snap == nil {
		return 0
	}
	daysLeft := math.Max(snap.WeeklyRemainingMin/1440, 1)
	allotment := math.Max(100-snap.WeeklyUsedPct, 0) / daysLeft
	if allotment <= 0 {
		return 0
	}

	dayEnd := snap.Date.AddDate(0, 0, 1)
	activeToday := ActiveHoursInRange(state.Windows, snap.Date, dayEnd)
	fracElapsed := 1.0
	if activeToday > 0 {
		fracElapsed = clamp(ActiveHoursInRange(state.Windows, snap.Date, poll.Timestamp)/activeToday, 0, 1)
	}

	used := math.Max(poll.WeeklyUsedPct-snap.WeeklyUsedPct, 0)
	expected := allotment * fracElapsed
	return clamp((used-expected)/math.Max(allotment, 1), -1, 1)
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
