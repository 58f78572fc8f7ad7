// Package models defines data structures and domain types.
package models

import "time"

// Window length constants shared across the engine.
const (
	// SessionMinutes is the length of the short rolling quota window.
	SessionMinutes = 300.0
	// WeekMinutes is the length of the long rolling quota window.
	WeekMinutes = 10080.0
)

// Reading is one normalized utilization sample handed to the engine.
// All absence handling happens at the API boundary; by the time a Reading
// exists, every field has a concrete value.
type Reading struct {
	SessionUsedPct      float64
	SessionRemainingMin float64
	WeeklyUsedPct       float64
	WeeklyRemainingMin  float64
}

// Poll is one observed reading with its timestamp. Immutable once appended.
type Poll struct {
	Timestamp           time.Time `json:"timestamp"`
	SessionUsedPct      float64   `json:"sessionUsedPct"`
	SessionRemainingMin float64   `json:"sessionRemainingMin"`
	WeeklyUsedPct       float64   `json:"weeklyUsedPct"`
	WeeklyRemainingMin  float64   `json:"weeklyRemainingMin"`
}

// SessionElapsedMin returns minutes elapsed in the current session window.
func (p Poll) SessionElapsedMin() float64 {
	return SessionMinutes - p.SessionRemainingMin
}

// WeekElapsedMin returns minutes elapsed in the current weekly window.
func (p Poll) WeekElapsedMin() float64 {
	return WeekMinutes - p.WeeklyRemainingMin
}

// SessionStart marks a detected session boundary. The newest one is the
// baseline for weekly-budget math. It is updated in place when a weekly
// reset is detected, never duplicated.
type SessionStart struct {
	Timestamp            time.Time `json:"timestamp"`
	WeeklyUsedPctAtStart float64   `json:"weeklyUsedPctAtStart"`
	WeeklyRemainingMin   float64   `json:"weeklyRemainingMinAtStart"`
}

// DailySnapshot marks the most recent day-boundary crossing. At most one
// exists per engine instance; it is replaced, not appended.
type DailySnapshot struct {
	Date               time.Time `json:"date"`
	WeeklyUsedPct      float64   `json:"weeklyUsedPctAtSnapshot"`
	WeeklyRemainingMin float64   `json:"weeklyRemainingMinAtSnapshot"`
}

// ActiveWindow is one weekday's active period in local fractional hours.
// End > Start unless both are zero (empty day).
type ActiveWindow struct {
	StartHour float64 `json:"startHour"`
	EndHour   float64 `json:"endHour"`
}

// Hours returns the window span in hours.
func (w ActiveWindow) Hours() float64 {
	if w.EndHour <= w.StartHour {
		return 0
	}
	return w.EndHour - w.StartHour
}

// IsEmpty reports whether the weekday has no active period.
func (w ActiveWindow) IsEmpty() bool {
	return w.Hours() <= 0
}

// PacingZone is the hysteresis state carried across polls.
type PacingZone int

const (
	// ZoneOK means pacing is within the dead band.
	ZoneOK PacingZone = iota
	// ZoneFast means the user is consuming faster than optimal.
	ZoneFast
	// ZoneSlow means the user is consuming slower than optimal.
	ZoneSlow
)

// String returns the zone's display name.
func (z PacingZone) String() string {
	switch z {
	case ZoneFast:
		return "fast"
	case ZoneSlow:
		return "slow"
	default:
		return "ok"
	}
}

// EngineState is the unit of persistence for in-session continuity. Weekday
// indexing follows time.Weekday (0 = Sunday).
type EngineState struct {
	Polls         []Poll          `json:"polls"`
	SessionStarts []SessionStart  `json:"sessionStarts"`
	Daily         *DailySnapshot  `json:"dailySnapshot,omitempty"`
	Windows       [7]ActiveWindow `json:"activeWindows"`
	Zone          PacingZone      `json:"pacingZone"`
	LastOutput    float64         `json:"lastCalibratorOutput"`
}

// LastPoll returns the most recent poll, or nil if none exist.
func (s *EngineState) LastPoll() *Poll {
	if len(s.Polls) == 0 {
		return nil
	}
	return &s.Polls[len(s.Polls)-1]
}

// LastSessionStart returns the most recent session start, or nil.
func (s *EngineState) LastSessionStart() *SessionStart {
	if len(s.SessionStarts) == 0 {
		return nil
	}
	return &s.SessionStarts[len(s.SessionStarts)-1]
}

// SessionPolls returns the polls belonging to the current session, i.e.
// those at or after the newest session start.
func (s *EngineState) SessionPolls() []Poll {
	start := s.LastSessionStart()
	if start == nil {
		return s.Polls
	}
	for i := len(s.Polls) - 1; i >= 0; i-- {
		if s.Polls[i].Timestamp.Before(start.Timestamp) {
			return s.Polls[i+1:]
		}
	}
	return s.Polls
}
