package engine

import (
	"math"

	"github.com/j-veylop/pacewatch-tui/internal/models"
)

const (
	// gapThresholdMin: poll pairs further apart than this are not used for
	// rate estimation.
	gapThresholdMin = 15.0
	// exchangeMinSamples gates the exchange-rate estimate.
	exchangeMinSamples = 10
	// budgetSessionHours is the assumed length of a session when dividing
	// the remaining weekly budget.
	budgetSessionHours = 5.0
)

// SessionTarget converts weekly deviation into a target utilization for the
// current session. On pace or behind yields the full 100; being ahead
// shrinks the target proportionally, floored at 10.
func SessionTarget(deviation float64) float64 {
	return 100 * clamp(1-deviation, 0.1, 1.0)
}

// ExchangeRate estimates how many weekly percentage points one session
// percentage point costs, as the median over qualifying consecutive poll
// pairs. Undefined until exchangeMinSamples pairs exist.
func ExchangeRate(state *models.EngineState) (float64, bool) {
	var ratios []float64
	for i := 1; i < len(state.Polls); i++ {
		prev := state.Polls[i-1]
		cur := state.Polls[i]

		gap := cur.Timestamp.Sub(prev.Timestamp).Minutes()
		if gap <= 0 || gap > gapThresholdMin {
			continue
		}
		// Pairs spanning a session or weekly reset would relate unrelated
		// counters.
		if cur.SessionRemainingMin-prev.SessionRemainingMin > boundaryJumpMin {
			continue
		}
		dSession := cur.SessionUsedPct - prev.SessionUsedPct
		dWeekly := cur.WeeklyUsedPct - prev.WeeklyUsedPct
		if dSession <= noiseThresholdPct || dWeekly < 0 {
			continue
		}
		ratios = append(ratios, dWeekly/dSession)
	}
	if len(ratios) < exchangeMinSamples {
		return 0, false
	}
	return median(ratios), true
}

// SessionBudget allots a share of the remaining weekly budget (in weekly
// percentage points) to the current session, assuming the rest of the
// week's active hours split into ~5-hour sessions. Requires a defined
// exchange rate; undefined otherwise.
func SessionBudget(state *models.EngineState, poll models.Poll) (float64, bool) {
	if _, ok := ExchangeRate(state); !ok {
		return 0, false
	}
	_, weekEnd := weekBounds(poll)
	remainingActive := ActiveHoursInRange(state.Windows, poll.Timestamp, weekEnd)
	sessionsLeft := math.Max(remainingActive/budgetSessionHours, 1)
	return math.Max(100-poll.WeeklyUsedPct, 0) / sessionsLeft, true
}

// budgetElapsed returns how much of the session budget has been burned, as a
// percentage (>=100 means the budget is spent). Undefined without a budget
// or session baseline.
func budgetBurn(state *models.EngineState, poll models.Poll) (float64, bool) {
	budget, ok := SessionBudget(state, poll)
	if !ok || budget <= 0 {
		return 0, false
	}
	start := state.LastSessionStart()
	if start == nil {
		return 0, false
	}
	used := math.Max(poll.WeeklyUsedPct-start.WeeklyUsedPctAtStart, 0)
	return used / budget * 100, true
}

// sessionGap reports the wall-clock minutes between two polls.
func sessionGap(a, b models.Poll) float64 {
	return b.Timestamp.Sub(a.Timestamp).Minutes()
}
