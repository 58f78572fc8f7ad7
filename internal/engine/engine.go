package engine

import (
	"time"

	"github.com/j-veylop/pacewatch-tui/internal/models"
)

// Engine owns the pacing state and turns raw utilization readings into
// advice. It is single-writer by design: one poll is processed completely
// before the next is accepted, and callers serialize access.
type Engine struct {
	state           *models.EngineState
	dayBoundaryHour int
}

// New creates an engine around an existing (possibly empty) state.
func New(state *models.EngineState, dayBoundaryHour int) *Engine {
	if state == nil {
		state = &models.EngineState{}
	}
	return &Engine{state: state, dayBoundaryHour: dayBoundaryHour}
}

// State exposes the owned state for persistence. Callers must not mutate it
// while a RecordPoll is in flight.
func (e *Engine) State() *models.EngineState {
	return e.state
}

// RecordPoll ingests one reading taken at the given instant and returns the
// full per-poll advice. The timestamp is explicit so the engine stays free
// of wall-clock reads.
func (e *Engine) RecordPoll(reading models.Reading, now time.Time) models.Advice {
	state := e.state

	// Appends are time-ordered; a clock step backwards is flattened rather
	// than rejected.
	if prev := state.LastPoll(); prev != nil && now.Before(prev.Timestamp) {
		now = prev.Timestamp
	}

	weeklyReset := detectWeeklyReset(state.LastPoll(), reading)
	isNew := applyBoundaries(state, reading, now)
	rollDailySnapshot(state, reading, now, e.dayBoundaryHour, weeklyReset)

	poll := models.Poll{
		Timestamp:           now,
		SessionUsedPct:      reading.SessionUsedPct,
		SessionRemainingMin: reading.SessionRemainingMin,
		WeeklyUsedPct:       reading.WeeklyUsedPct,
		WeeklyRemainingMin:  reading.WeeklyRemainingMin,
	}
	state.Polls = append(state.Polls, poll)
	prune(state)
	state.Windows = DetectWindows(state)

	deviation := WeeklyDeviation(state, poll)
	target := SessionTarget(deviation)

	advice := models.Advice{
		Timestamp:        now,
		SessionTarget:    target,
		WeeklyDeviation:  deviation,
		IsNewSession:     isNew,
		SessionDeviation: SessionError(poll, target),
		DailyDeviation:   DailyDeviation(state, poll),
	}

	var budgetPtr, exchangePtr *float64
	if rate, ok := ExchangeRate(state); ok {
		exchangePtr = &rate
		advice.ExchangeRate = &rate
	}
	if budget, ok := SessionBudget(state, poll); ok {
		budgetPtr = &budget
		advice.SessionBudget = &budget
	}

	optimal := OptimalRate(poll, target, budgetPtr, exchangePtr)
	advice.OptimalRate = &optimal

	if velocity, ok := ObservedVelocity(state); ok {
		advice.ObservedRate = &velocity
	}

	advice.Calibrator = Calibrate(state, poll, deviation, advice.SessionDeviation)
	advice.Zone = state.Zone
	return advice
}

// BudgetBurn reports how much of the current session budget the newest poll
// has consumed, as a percentage. Undefined without a budget or baseline.
func (e *Engine) BudgetBurn() (float64, bool) {
	poll := e.state.LastPoll()
	if poll == nil {
		return 0, false
	}
	return budgetBurn(e.state, *poll)
}
