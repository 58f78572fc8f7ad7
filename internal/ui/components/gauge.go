package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/pacewatch-tui/internal/models"
	"github.com/j-veylop/pacewatch-tui/internal/ui/styles"
)

// RenderCalibratorGauge renders a center-zero gauge for the pacing signal.
// The signal lives in [-1,1]: bars grow rightward (red) when consuming
// faster than optimal and leftward (blue) when slower.
func RenderCalibratorGauge(value float64, width int) string {
	if width < 3 {
		width = 3
	}
	if value > 1 {
		value = 1
	}
	if value < -1 {
		value = -1
	}

	half := (width - 1) / 2
	cells := int(float64(half)*abs(value) + 0.5)
	if cells > half {
		cells = half
	}

	slowStyle := lipgloss.NewStyle().Foreground(styles.Info)
	fastStyle := lipgloss.NewStyle().Foreground(styles.Error)
	emptyStyle := lipgloss.NewStyle().Foreground(styles.Subtle)
	centerStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)

	var b strings.Builder
	for i := 0; i < half; i++ {
		// Left side fills from the center outward.
		if value < 0 && i >= half-cells {
			b.WriteString(slowStyle.Render("█"))
		} else {
			b.WriteString(emptyStyle.Render("░"))
		}
	}
	b.WriteString(centerStyle.Render("┼"))
	for i := 0; i < half; i++ {
		if value > 0 && i < cells {
			b.WriteString(fastStyle.Render("█"))
		} else {
			b.WriteString(emptyStyle.Render("░"))
		}
	}

	return b.String()
}

// RenderZoneBadge renders the pacing zone as a compact colored badge.
func RenderZoneBadge(zone models.PacingZone) string {
	style := styles.GetZoneStyle(zone)
	switch zone {
	case models.ZoneFast:
		return style.Render("▲ SLOW DOWN")
	case models.ZoneSlow:
		return style.Render("▼ ROOM TO SPARE")
	default:
		return style.Render("● ON PACE")
	}
}

// RenderGaugeWithLabels renders the gauge flanked by its scale labels and
// the numeric signal value.
func RenderGaugeWithLabels(value float64, width int) string {
	const labelWidth = 6
	gaugeWidth := width - 2*labelWidth - 8
	if gaugeWidth < 11 {
		gaugeWidth = 11
	}

	left := styles.HelpStyle.Width(labelWidth).Render("slower")
	right := styles.HelpStyle.Width(labelWidth).Render("faster")
	valueStr := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(6).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%+.2f", value))

	return lipgloss.JoinHorizontal(lipgloss.Center,
		left, " ", RenderCalibratorGauge(value, gaugeWidth), " ", right, " ", valueStr)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
