package engine

import (
	"time"

	"github.com/j-veylop/pacewatch-tui/internal/models"
)

const (
	// boundaryJumpMin: a session-remaining increase beyond this means the
	// session timer was reset.
	boundaryJumpMin = 30.0
	// weeklyJumpMin: a weekly-remaining increase beyond this means the
	// weekly window rolled over.
	weeklyJumpMin = 60.0
	// retention is how long polls and session starts are kept, relative to
	// the newest poll.
	retention = 90 * 24 * time.Hour
)

// detectSessionBoundary reports whether the incoming poll begins a new
// session. Either trigger alone is sufficient; the caller creates at most
// one SessionStart regardless of how many fired.
func detectSessionBoundary(prev *models.Poll, reading models.Reading, now time.Time) bool {
	if prev == nil {
		return true
	}
	if reading.SessionRemainingMin-prev.SessionRemainingMin > boundaryJumpMin {
		return true
	}
	// The previous session must have expired during a gap (machine asleep,
	// process stopped) if more wall-clock time passed than it had left.
	elapsed := now.Sub(prev.Timestamp).Minutes()
	return elapsed > prev.SessionRemainingMin
}

// detectWeeklyReset reports whether the weekly window rolled over since the
// previous poll. Orthogonal to the session boundary; both can fire on the
// same poll.
func detectWeeklyReset(prev *models.Poll, reading models.Reading) bool {
	if prev == nil {
		return false
	}
	return reading.WeeklyRemainingMin-prev.WeeklyRemainingMin > weeklyJumpMin
}

// applyBoundaries updates session-start bookkeeping for one incoming poll
// and reports whether a new session began. On a session boundary a
// SessionStart is appended with the current poll's weekly values. On a
// weekly reset the newest SessionStart (which may be the one just appended)
// is re-baselined in place, never duplicated.
func applyBoundaries(state *models.EngineState, reading models.Reading, now time.Time) bool {
	prev := state.LastPoll()
	isNew := detectSessionBoundary(prev, reading, now)

	if isNew {
		state.SessionStarts = append(state.SessionStarts, models.SessionStart{
			Timestamp:            now,
			WeeklyUsedPctAtStart: reading.WeeklyUsedPct,
			WeeklyRemainingMin:   reading.WeeklyRemainingMin,
		})
		state.Zone = models.ZoneOK
		state.LastOutput = 0
	}

	if detectWeeklyReset(prev, reading) {
		if last := state.LastSessionStart(); last != nil {
			last.WeeklyUsedPctAtStart = reading.WeeklyUsedPct
			last.WeeklyRemainingMin = reading.WeeklyRemainingMin
		}
	}
	return isNew
}

// rollDailySnapshot replaces the daily snapshot when a new local day (as
// defined by boundaryHour) or a weekly reset is observed.
func rollDailySnapshot(state *models.EngineState, reading models.Reading, now time.Time, boundaryHour int, weeklyReset bool) {
	dayStart := localDayStart(now, boundaryHour)
	if !weeklyReset && state.Daily != nil && !state.Daily.Date.Before(dayStart) {
		return
	}
	state.Daily = &models.DailySnapshot{
		Date:               dayStart,
		WeeklyUsedPct:      reading.WeeklyUsedPct,
		WeeklyRemainingMin: reading.WeeklyRemainingMin,
	}
}

// localDayStart returns the most recent day boundary (a fixed local hour,
// not midnight) at or before t.
func localDayStart(t time.Time, boundaryHour int) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), boundaryHour, 0, 0, 0, t.Location())
	if day.After(t) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// prune drops polls and session starts older than the retention horizon,
// measured from the newest poll.
func prune(state *models.EngineState) {
	last := state.LastPoll()
	if last == nil {
		return
	}
	cutoff := last.Timestamp.Add(-retention)

	i := 0
	for i < len(state.Polls) && state.Polls[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		state.Polls = append(state.Polls[:0], state.Polls[i:]...)
	}

	j := 0
	for j < len(state.SessionStarts) && state.SessionStarts[j].Timestamp.Before(cutoff) {
		j++
	}
	// Keep at least the newest start: it is the weekly-budget baseline.
	if j >= len(state.SessionStarts) && len(state.SessionStarts) > 0 {
		j = len(state.SessionStarts) - 1
	}
	if j > 0 {
		state.SessionStarts = append(state.SessionStarts[:0], state.SessionStarts[j:]...)
	}
}
