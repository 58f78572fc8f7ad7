package engine

import (
	"math"
	"testing"
	"time"

	"github.com/j-veylop/pacewatch-tui/internal/models"
)

func TestWeeklyDeviationExpiredWindow(t *testing.T) {
	state := &models.EngineState{Windows: allDayWindows(10, 20)}
	poll := pollAt(time.Now(), 10, 100, 50, 0)
	if got := WeeklyDeviation(state, poll); got != 0 {
		t.Errorf("deviation with expired week = %v, want 0", got)
	}
}

// Heavy consumption early in the week must read as positive (ahead) and
// shrink the session target below 100.
func TestWeeklyDeviationOverConsumption(t *testing.T) {
	state := &models.EngineState{Windows: allDayWindows(10, 20)}
	// One day into the week, 90% already used.
	ts := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	poll := pollAt(ts, 50, 100, 90, models.WeekMinutes-1440)

	dev := WeeklyDeviation(state, poll)
	if dev <= 0 {
		t.Fatalf("deviation = %v, want > 0", dev)
	}
	if dev > 1 {
		t.Fatalf("deviation = %v, out of bounds", dev)
	}
	if target := SessionTarget(dev); target >= 100 {
		t.Errorf("target = %v, want < 100", target)
	}
}

// Light consumption late in the week reads as negative (behind).
func TestWeeklyDeviationUnderConsumption(t *testing.T) {
	state := &models.EngineState{Windows: allDayWindows(10, 20)}
	// Six days into the week, only 5% used.
	ts := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	poll := pollAt(ts, 10, 100, 5, models.WeekMinutes-6*1440)

	dev := WeeklyDeviation(state, poll)
	if dev >= 0 {
		t.Fatalf("deviation = %v, want < 0", dev)
	}
	if dev < -1 {
		t.Fatalf("deviation = %v, out of bounds", dev)
	}
	if target := SessionTarget(dev); target != 100 {
		t.Errorf("target = %v, want 100 when behind", target)
	}
}

func TestWeeklyDeviationBounded(t *testing.T) {
	state := &models.EngineState{Windows: allDayWindows(0, 24)}
	ts := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

	extreme := pollAt(ts, 0, 300, 100, models.WeekMinutes-60)
	if dev := WeeklyDeviation(state, extreme); dev < -1 || dev > 1 {
		t.Errorf("deviation = %v, must stay in [-1,1]", dev)
	}
}

func TestScheduleExpected(t *testing.T) {
	windows := allDayWindows(10, 20)
	// One full day of a 7-day window elapsed: 10 of 70 active hours.
	ts := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	poll := pollAt(ts, 0, 300, 0, models.WeekMinutes-1440)

	got := scheduleExpected(windows, poll)
	want := 10.0 / 70.0 * 100
	if math.Abs(got-want) > 0.5 {
		t.Errorf("scheduleExpected = %v, want ~%v", got, want)
	}
}

func TestScheduleExpectedNoActiveHours(t *testing.T) {
	var windows [7]models.ActiveWindow
	poll := pollAt(time.Now(), 0, 300, 0, 5000)
	if got := scheduleExpected(windows, poll); got != 0 {
		t.Errorf("expected 0 with an empty schedule, got %v", got)
	}
}

func TestEmpiricalExpectedRequiresHistory(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := &models.EngineState{}
	for i := 0; i < 20; i++ {
		state.Polls = append(state.Polls, pollAt(base.Add(time.Duration(i)*time.Hour), 0, 300, 10, 5000))
	}

	poll := pollAt(base.Add(24*time.Hour), 0, 300, 20, 5000)
	if _, ok := empiricalExpected(state, poll); ok {
		t.Error("under 21 days of history must not use the empirical estimate")
	}
}

func TestEmpiricalExpectedMatchesWeekOffset(t *testing.T) {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	state := &models.EngineState{}

	// Five prior weeks, each with a poll at the same elapsed-into-week
	// offset (weeklyRemaining 5000) and varying usage.
	usages := []float64{30, 32, 34, 36, 38}
	for i, wu := range usages {
		ts := base.AddDate(0, 0, 7*i)
		state.Polls = append(state.Polls, pollAt(ts, 0, 300, wu, 5000))
		// Noise at a different week offset, should not match.
		state.Polls = append(state.Polls, pollAt(ts.Add(time.Hour), 0, 300, 90, 2000))
	}

	// Current poll 40 days after the first, same offset into its week.
	poll := pollAt(base.AddDate(0, 0, 40), 0, 300, 50, 5000)
	got, ok := empiricalExpected(state, poll)
	if !ok {
		t.Fatal("expected the empirical estimate to be available")
	}
	if math.Abs(got-34) > 1e-9 {
		t.Errorf("empirical expected = %v, want median 34", got)
	}
}

func TestProjectedWeeklyUsage(t *testing.T) {
	windows := allDayWindows(10, 20)
	// 10 active hours elapsed, 60 remaining, 30% used.
	ts := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	poll := pollAt(ts, 0, 300, 30, models.WeekMinutes-1440)

	got, ok := projectedWeeklyUsage(windows, poll)
	if !ok {
		t.Fatal("expected a projection")
	}
	want := 30 + 30.0/10.0*60.0
	if math.Abs(got-want) > 1 {
		t.Errorf("projection = %v, want ~%v", got, want)
	}
}

func TestProjectedWeeklyUsageNeedsElapsedTime(t *testing.T) {
	windows := allDayWindows(10, 20)
	// Week started moments ago: almost no active time elapsed.
	ts := time.Date(2026, 3, 10, 10, 10, 0, 0, time.UTC)
	poll := pollAt(ts, 0, 300, 1, models.WeekMinutes-10)

	if _, ok := projectedWeeklyUsage(windows, poll); ok {
		t.Error("projection must be undefined with under half an active hour elapsed")
	}
}

func TestDailyDeviationNoSnapshot(t *testing.T) {
	state := &models.EngineState{Windows: allDayWindows(10, 20)}
	if got := DailyDeviation(state, pollAt(time.Now(), 0, 300, 50, 5000)); got != 0 {
		t.Errorf("deviation without snapshot = %v, want 0", got)
	}
}

func TestDailyDeviation(t *testing.T) {
	windows := allDayWindows(10, 20)
	snapDay := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
	state := &models.EngineState{
		Windows: windows,
		Daily: &models.DailySnapshot{
			Date:               snapDay,
			WeeklyUsedPct:      20,
			WeeklyRemainingMin: 2880, // 2 days left, allotment 40/day
		},
	}

	// Halfway through the active day, exactly on the pro-rata allotment.
	onPace := pollAt(snapDay.Add(11*time.Hour), 0, 300, 40, 2000)
	if got := DailyDeviation(state, onPace); math.Abs(got) > 1e-9 {
		t.Errorf("on-pace deviation = %v, want 0", got)
	}

	// Same point in time but double the usage: half an allotment over.
	ahead := pollAt(snapDay.Add(11*time.Hour), 0, 300, 60, 2000)
	if got := DailyDeviation(state, ahead); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("ahead deviation = %v, want 0.5", got)
	}

	// No usage at the end of the day: one full allotment behind.
	behind := pollAt(snapDay.Add(17*time.Hour), 0, 300, 20, 2000)
	if got := DailyDeviation(state, behind); math.Abs(got+1) > 1e-9 {
		t.Errorf("behind deviation = %v, want -1", got)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("odd median = %v, want 2", got)
	}
	if got := median([]float64{4, 1, 2, 3}); got != 2.5 {
		t.Errorf("even median = %v, want 2.5", got)
	}
	if got := median(nil); got != 0 {
		t.Errorf("empty median = %v, want 0", got)
	}
}
