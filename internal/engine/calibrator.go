package engine

import (
	"math"

	"github.com/j-veylop/pacewatch-tui/internal/models"
)

const (
	// ewmaAlpha weights the newest instantaneous rate sample.
	ewmaAlpha = 0.3
	// minElapsedMin: session signals are suppressed until this much of the
	// session has elapsed.
	minElapsedMin = 5.0
	// deadZone suppresses small raw signals; survivors are rescaled so the
	// output still reaches +/-1.
	deadZone = 0.05
	// hystEnter and hystExit are the asymmetric zone thresholds.
	hystEnter = 0.12
	hystExit  = 0.05
	// slewGain is the per-poll weight of the new signal in the slew limiter.
	slewGain = 0.25
)

// ObservedVelocity estimates the actual session consumption rate in percent
// per minute as an EWMA over consecutive polls of the current session,
// skipping gaps beyond gapThresholdMin. Undefined with fewer than two
// qualifying polls.
func ObservedVelocity(state *models.EngineState) (float64, bool) {
	polls := state.SessionPolls()
	var ewma float64
	seeded := false
	for i := 1; i < len(polls); i++ {
		dt := sessionGap(polls[i-1], polls[i])
		if dt <= 0 || dt > gapThresholdMin {
			continue
		}
		instant := (polls[i].SessionUsedPct - polls[i-1].SessionUsedPct) / dt
		if !seeded {
			ewma = instant
			seeded = true
		} else {
			ewma = ewmaAlpha*instant + (1-ewmaAlpha)*ewma
		}
	}
	return ewma, seeded
}

// OptimalRate computes the ideal consumption rate (percent per minute) for
// the remainder of the session: enough to reach the target, never beyond
// what would exhaust the window, and within the weekly budget when an
// exchange rate is known. Returns 0 once the session has expired.
func OptimalRate(poll models.Poll, target float64, budget, exchangeRate *float64) float64 {
	if poll.SessionRemainingMin <= 0 {
		return 0
	}
	tau := math.Max(poll.SessionRemainingMin, 0.1)
	targetRate := math.Max((target-poll.SessionUsedPct)/tau, 0)
	ceilingRate := math.Max((100-poll.SessionUsedPct)/tau, 0)
	rate := math.Min(targetRate, ceilingRate)

	if budget != nil && exchangeRate != nil && *exchangeRate > 0 {
		budgetRate := math.Max(*budget/(*exchangeRate*tau), 0)
		rate = math.Min(rate, budgetRate)
	}
	return rate
}

// SessionError measures how far session usage is from its pro-rata expected
// value, normalized by the target. Zero during the first minutes of a
// session.
func SessionError(poll models.Poll, target float64) float64 {
	elapsed := poll.SessionElapsedMin()
	if elapsed < minElapsedMin || poll.SessionRemainingMin <= 0 {
		return 0
	}
	expected := target * elapsed / models.SessionMinutes
	return clamp((poll.SessionUsedPct-expected)/math.Max(target, 1), -1, 1)
}

// Calibrate runs the four-stage signal conditioning (blend, dead zone,
// hysteresis, slew limiting) and returns the bounded pacing signal.
// Positive output means consuming faster than optimal. When the session has
// expired or barely begun it returns 0 and leaves the zone and slew state
// untouched.
func Calibrate(state *models.EngineState, poll models.Poll, weeklyDev, sessionErr float64) float64 {
	if poll.SessionRemainingMin <= 0 || poll.SessionElapsedMin() < minElapsedMin {
		return 0
	}

	// Stage 1: blend. Early in a session the weekly deviation dominates;
	// late, the immediate session error does.
	sessionFrac := poll.SessionRemainingMin / models.SessionMinutes
	raw := clamp(sessionFrac*sessionErr+(1-sessionFrac)*weeklyDev, -1, 1)

	// Stage 2: dead zone with rescaling so the output still spans +/-1.
	dz := 0.0
	if math.Abs(raw) >= deadZone {
		sign := 1.0
		if raw < 0 {
			sign = -1.0
		}
		dz = sign * (math.Abs(raw) - deadZone) / (1 - deadZone)
	}

	// Stage 3: hysteresis.
	hz := 0.0
	switch state.Zone {
	case models.ZoneOK:
		switch {
		case dz > hystEnter:
			state.Zone = models.ZoneFast
			hz = dz
		case dz < -hystEnter:
			state.Zone = models.ZoneSlow
			hz = dz
		}
	case models.ZoneFast:
		if dz < hystExit {
			state.Zone = models.ZoneOK
		} else {
			hz = dz
		}
	case models.ZoneSlow:
		if dz > -hystExit {
			state.Zone = models.ZoneOK
		} else {
			hz = dz
		}
	}

	// Stage 4: slew limiting.
	out := clamp(slewGain*hz+(1-slewGain)*state.LastOutput, -1, 1)
	state.LastOutput = out
	return out
}
