package engine

import (
	"math"
	"testing"
	"time"

	"github.com/j-veylop/pacewatch-tui/internal/models"
)

func allDayWindows(start, end float64) [7]models.ActiveWindow {
	var windows [7]models.ActiveWindow
	for d := range windows {
		windows[d] = models.ActiveWindow{StartHour: start, EndHour: end}
	}
	return windows
}

func TestWindowsFromHours(t *testing.T) {
	hours := [7]float64{0, 10, 10, 10, 10, 10, 4}
	windows := WindowsFromHours(10, hours)

	if !windows[0].IsEmpty() {
		t.Error("Sunday should be empty")
	}
	if windows[1].StartHour != 10 || windows[1].EndHour != 20 {
		t.Errorf("Monday window = %+v, want [10,20)", windows[1])
	}
	if windows[6].EndHour != 14 {
		t.Errorf("Saturday end = %v, want 14", windows[6].EndHour)
	}

	// A long day is capped at midnight.
	long := WindowsFromHours(20, [7]float64{10, 10, 10, 10, 10, 10, 10})
	if long[0].EndHour != 24 {
		t.Errorf("capped end = %v, want 24", long[0].EndHour)
	}
}

func TestActiveHoursInRangeEmptyRange(t *testing.T) {
	windows := allDayWindows(10, 20)
	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if got := ActiveHoursInRange(windows, ts, ts); got != 0 {
		t.Errorf("empty range = %v, want 0", got)
	}
	if got := ActiveHoursInRange(windows, ts, ts.Add(-time.Hour)); got != 0 {
		t.Errorf("inverted range = %v, want 0", got)
	}
}

func TestActiveHoursInRangeFullDay(t *testing.T) {
	windows := allDayWindows(10, 20)
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got := ActiveHoursInRange(windows, start, start.AddDate(0, 0, 1))
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("full day = %v, want 10", got)
	}
}

func TestActiveHoursInRangeOutsideWindow(t *testing.T) {
	windows := allDayWindows(10, 20)
	start := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)

	got := ActiveHoursInRange(windows, start, start.Add(2*time.Hour))
	if got != 0 {
		t.Errorf("outside window = %v, want 0", got)
	}
}

func TestActiveHoursInRangePartialOverlap(t *testing.T) {
	windows := allDayWindows(10, 20)
	start := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	got := ActiveHoursInRange(windows, start, start.Add(10*time.Hour))
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("partial overlap = %v, want 5", got)
	}
}

func TestActiveHoursInRangeMultipleDays(t *testing.T) {
	windows := allDayWindows(10, 20)
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got := ActiveHoursInRange(windows, start, start.AddDate(0, 0, 3))
	if math.Abs(got-30) > 1e-9 {
		t.Errorf("three days = %v, want 30", got)
	}
}

func TestActiveHoursInRangeSkipsEmptyDays(t *testing.T) {
	windows := allDayWindows(10, 20)
	// 2026-03-08 is a Sunday.
	windows[time.Sunday] = models.ActiveWindow{}
	start := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	got := ActiveHoursInRange(windows, start, start.AddDate(0, 0, 2))
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("sunday+monday = %v, want 10", got)
	}
}

func TestDetectWindowsInsufficientHistory(t *testing.T) {
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	state := &models.EngineState{Windows: allDayWindows(10, 20)}
	for i := 0; i < 10; i++ {
		state.Polls = append(state.Polls, models.Poll{
			Timestamp:      base.Add(time.Duration(i) * time.Hour),
			SessionUsedPct: float64(i) * 2,
		})
	}

	got := DetectWindows(state)
	if got != state.Windows {
		t.Error("short history should keep configured windows")
	}
}

func TestDetectWindowsReplacesQualifyingWeekday(t *testing.T) {
	state := &models.EngineState{Windows: allDayWindows(10, 20)}

	// Four Tuesdays of activity between 14:00 and 17:00.
	for week := 0; week < 4; week++ {
		day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*week)
		used := float64(week) * 20
		for i, hour := range []int{14, 15, 17} {
			used += 2
			state.Polls = append(state.Polls, models.Poll{
				Timestamp:      day.Add(time.Duration(hour) * time.Hour).Add(time.Duration(i) * time.Minute),
				SessionUsedPct: used,
			})
		}
	}

	got := DetectWindows(state)
	tue := got[time.Tuesday]
	if math.Abs(tue.StartHour-13) > 0.1 || math.Abs(tue.EndHour-18.1) > 0.1 {
		t.Errorf("tuesday window = %+v, want ~[13,18]", tue)
	}
	// Weekdays without observations keep the configured window.
	if got[time.Friday] != state.Windows[time.Friday] {
		t.Error("friday should keep the configured window")
	}
}
