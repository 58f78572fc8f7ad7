package engine

import (
	"math"
	"testing"
	"time"

	"github.com/j-veylop/pacewatch-tui/internal/models"
)

func TestObservedVelocityNeedsTwoPolls(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	state := &models.EngineState{
		Polls: []models.Poll{pollAt(base, 10, 290, 5, 9000)},
	}
	if _, ok := ObservedVelocity(state); ok {
		t.Error("one poll cannot define a velocity")
	}
}

func TestObservedVelocityEWMA(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	state := &models.EngineState{
		SessionStarts: []models.SessionStart{{Timestamp: base}},
		Polls: []models.Poll{
			pollAt(base, 10, 290, 5, 9000),
			pollAt(base.Add(10*time.Minute), 15, 280, 6, 8990), // 0.5 %/min
			pollAt(base.Add(20*time.Minute), 25, 270, 8, 8980), // 1.0 %/min
		},
	}

	got, ok := ObservedVelocity(state)
	if !ok {
		t.Fatal("expected a velocity")
	}
	want := 0.3*1.0 + 0.7*0.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("velocity = %v, want %v", got, want)
	}
}

func TestObservedVelocitySkipsWideGaps(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	state := &models.EngineState{
		Polls: []models.Poll{
			pollAt(base, 10, 290, 5, 9000),
			pollAt(base.Add(20*time.Minute), 30, 270, 8, 8980),
		},
	}
	if _, ok := ObservedVelocity(state); ok {
		t.Error("a 20 minute gap must not produce a rate sample")
	}
}

func TestObservedVelocityIgnoresPreviousSession(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	state := &models.EngineState{
		SessionStarts: []models.SessionStart{{Timestamp: base.Add(30 * time.Minute)}},
		Polls: []models.Poll{
			pollAt(base, 80, 20, 5, 9000),
			pollAt(base.Add(10*time.Minute), 90, 10, 6, 8990),
			pollAt(base.Add(30*time.Minute), 2, 295, 7, 8980),
		},
	}
	// Only one poll belongs to the current session.
	if _, ok := ObservedVelocity(state); ok {
		t.Error("polls before the session start must not contribute")
	}
}

func TestOptimalRate(t *testing.T) {
	poll := pollAt(time.Now(), 40, 100, 20, 5000)

	// Plain target chase: (100-40)/100 capped by the same ceiling.
	if got := OptimalRate(poll, 100, nil, nil); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("rate = %v, want 0.6", got)
	}

	// Target already met: no further consumption advised.
	if got := OptimalRate(poll, 30, nil, nil); got != 0 {
		t.Errorf("rate with met target = %v, want 0", got)
	}

	// Budget constraint tightens the rate.
	budget, xr := 5.0, 1.0
	if got := OptimalRate(poll, 100, &budget, &xr); math.Abs(got-0.05) > 1e-9 {
		t.Errorf("budget-limited rate = %v, want 0.05", got)
	}

	// Expired session.
	expired := pollAt(time.Now(), 40, 0, 20, 5000)
	if got := OptimalRate(expired, 100, nil, nil); got != 0 {
		t.Errorf("rate after expiry = %v, want 0", got)
	}
}

func TestSessionError(t *testing.T) {
	// Halfway through with a 100 target: expected 50.
	poll := pollAt(time.Now(), 25, 150, 0, 5000)
	if got := SessionError(poll, 100); math.Abs(got+0.25) > 1e-9 {
		t.Errorf("error = %v, want -0.25", got)
	}

	// First minutes of a session are suppressed.
	early := pollAt(time.Now(), 5, 296, 0, 5000)
	if got := SessionError(early, 100); got != 0 {
		t.Errorf("early error = %v, want 0", got)
	}

	// Expired session.
	expired := pollAt(time.Now(), 80, 0, 0, 5000)
	if got := SessionError(expired, 100); got != 0 {
		t.Errorf("expired error = %v, want 0", got)
	}
}

func TestCalibrateEarlyOutLeavesStateUntouched(t *testing.T) {
	state := &models.EngineState{Zone: models.ZoneFast, LastOutput: 0.6}

	expired := pollAt(time.Now(), 80, 0, 0, 5000)
	if got := Calibrate(state, expired, 0.9, 0.9); got != 0 {
		t.Errorf("expired calibrator = %v, want 0", got)
	}
	early := pollAt(time.Now(), 1, 297, 0, 5000)
	if got := Calibrate(state, early, 0.9, 0.9); got != 0 {
		t.Errorf("early calibrator = %v, want 0", got)
	}

	if state.Zone != models.ZoneFast || state.LastOutput != 0.6 {
		t.Error("early outs must not touch zone or slew state")
	}
}

func TestCalibrateDeadZone(t *testing.T) {
	state := &models.EngineState{}
	// sessionFrac 0.5: raw = 0.5*0.04 + 0.5*0.04 = 0.04, inside the dead zone.
	poll := pollAt(time.Now(), 10, 150, 0, 5000)

	if got := Calibrate(state, poll, 0.04, 0.04); got != 0 {
		t.Errorf("dead-zone output = %v, want 0", got)
	}
	if state.Zone != models.ZoneOK {
		t.Error("dead-zone signal must not change the zone")
	}
}

func TestCalibrateHysteresis(t *testing.T) {
	state := &models.EngineState{}
	poll := pollAt(time.Now(), 10, 150, 0, 5000)

	// Strong positive signal enters the fast zone.
	out := Calibrate(state, poll, 0.8, 0.8)
	if state.Zone != models.ZoneFast {
		t.Fatalf("zone = %v, want fast", state.Zone)
	}
	dz := (0.8 - 0.05) / 0.95
	if math.Abs(out-0.25*dz) > 1e-9 {
		t.Errorf("output = %v, want %v", out, 0.25*dz)
	}

	// A signal between the exit and enter thresholds keeps the zone.
	Calibrate(state, poll, 0.12, 0.12)
	if state.Zone != models.ZoneFast {
		t.Error("signal above the exit threshold must keep the fast zone")
	}

	// Dropping to the dead band exits back to ok.
	Calibrate(state, poll, 0.05, 0.05)
	if state.Zone != models.ZoneOK {
		t.Errorf("zone = %v, want ok after exit", state.Zone)
	}
}

func TestCalibrateSlewLimiting(t *testing.T) {
	state := &models.EngineState{}
	poll := pollAt(time.Now(), 10, 150, 0, 5000)

	first := Calibrate(state, poll, 1, 1)
	second := Calibrate(state, poll, 1, 1)
	if second <= first {
		t.Errorf("output should converge upward: %v then %v", first, second)
	}
	dz := (1.0 - 0.05) / 0.95
	wantSecond := 0.25*dz + 0.75*first
	if math.Abs(second-wantSecond) > 1e-9 {
		t.Errorf("second output = %v, want %v", second, wantSecond)
	}
	if state.LastOutput != second {
		t.Error("slew state must track the latest output")
	}
}

func TestCalibrateBounded(t *testing.T) {
	state := &models.EngineState{LastOutput: 1}
	poll := pollAt(time.Now(), 10, 150, 0, 5000)

	for i := 0; i < 20; i++ {
		out := Calibrate(state, poll, 1, 1)
		if out < -1 || out > 1 {
			t.Fatalf("output %v escaped [-1,1]", out)
		}
	}
}

func TestCalibrateNegativeSignalEntersSlowZone(t *testing.T) {
	state := &models.EngineState{}
	poll := pollAt(time.Now(), 10, 150, 0, 5000)

	out := Calibrate(state, poll, -0.8, -0.8)
	if state.Zone != models.ZoneSlow {
		t.Fatalf("zone = %v, want slow", state.Zone)
	}
	if out >= 0 {
		t.Errorf("output = %v, want negative", out)
	}
}
