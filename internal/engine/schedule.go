// Package engine implements the pacing/calibration core: session-boundary
// detection, weekly deviation estimation, target and budget planning, and
// the conditioned calibrator signal.
package engine

import (
	"time"

	"github.com/j-veylop/pacewatch-tui/internal/models"
)

const (
	// autoDetectMinSpan is the minimum history span before auto-detection
	// of active hours is attempted.
	autoDetectMinSpan = 7 * 24 * time.Hour
	// autoDetectMinObs is the minimum number of activity observations per
	// weekday before that weekday's window is replaced.
	autoDetectMinObs = 3
	// autoDetectPadHours widens the observed activity range on both sides.
	autoDetectPadHours = 1.0
	// autoDetectMinWindow rejects detected windows narrower than this.
	autoDetectMinWindow = 2.0
	// noiseThresholdPct is the minimum session-usage increase that counts
	// as real activity.
	noiseThresholdPct = 0.5
)

// WindowsFromHours builds a weekly schedule from a shared start hour and
// per-weekday durations. A zero duration yields an empty day.
func WindowsFromHours(startHour float64, hoursPerDay [7]float64) [7]models.ActiveWindow {
	var windows [7]models.ActiveWindow
	for d, h := range hoursPerDay {
		if h <= 0 {
			continue
		}
		end := startHour + h
		if end > 24 {
			end = 24
		}
		windows[d] = models.ActiveWindow{StartHour: startHour, EndHour: end}
	}
	return windows
}

// ActiveHoursInRange returns the active hours between start and end, walking
// the range day by day in the timestamps' local calendar. An empty or
// inverted range yields 0.
func ActiveHoursInRange(windows [7]models.ActiveWindow, start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}

	total := 0.0
	cursor := start
	for cursor.Before(end) {
		dayStart := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), 0, 0, 0, 0, cursor.Location())
		nextDay := dayStart.AddDate(0, 0, 1)

		w := windows[dayStart.Weekday()]
		if !w.IsEmpty() {
			open := dayStart.Add(hoursToDuration(w.StartHour))
			close := dayStart.Add(hoursToDuration(w.EndHour))

			segEnd := end
			if nextDay.Before(segEnd) {
				segEnd = nextDay
			}
			oStart := cursor
			if open.After(oStart) {
				oStart = open
			}
			oEnd := segEnd
			if close.Before(oEnd) {
				oEnd = close
			}
			if oEnd.After(oStart) {
				total += oEnd.Sub(oStart).Hours()
			}
		}
		cursor = nextDay
	}
	return total
}

// DetectWindows derives per-weekday active windows from observed activity,
// one weekday at a time. A weekday's configured window is replaced only when
// at least 7 days of history exist, at least autoDetectMinObs activity
// transitions were seen on that weekday, and the padded observation range
// spans autoDetectMinWindow hours or more. Weekdays that do not qualify keep
// their current window.
func DetectWindows(state *models.EngineState) [7]models.ActiveWindow {
	windows := state.Windows
	if len(state.Polls) < 2 {
		return windows
	}
	first := state.Polls[0].Timestamp
	last := state.Polls[len(state.Polls)-1].Timestamp
	if last.Sub(first) < autoDetectMinSpan {
		return windows
	}

	var hoursByDay [7][]float64
	for i := 1; i < len(state.Polls); i++ {
		prev := state.Polls[i-1]
		cur := state.Polls[i]
		if cur.SessionUsedPct-prev.SessionUsedPct <= noiseThresholdPct {
			continue
		}
		t := cur.Timestamp
		day := t.Weekday()
		hour := float64(t.Hour()) + float64(t.Minute())/60
		hoursByDay[day] = append(hoursByDay[day], hour)
	}

	for d, obs := range hoursByDay {
		if len(obs) < autoDetectMinObs {
			continue
		}
		lo, hi := obs[0], obs[0]
		for _, h := range obs[1:] {
			if h < lo {
				lo = h
			}
			if h > hi {
				hi = h
			}
		}
		start := clamp(lo-autoDetectPadHours, 0, 24)
		end := clamp(hi+autoDetectPadHours, 0, 24)
		if end-start < autoDetectMinWindow {
			continue
		}
		windows[d] = models.ActiveWindow{StartHour: start, EndHour: end}
	}
	return windows
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
