// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/pacewatch-tui/internal/logger"
	"github.com/j-veylop/pacewatch-tui/internal/ui/styles"
)

// RenderUsageBar renders the bar characters for a consumed-percentage bar.
// The gradient runs green to red: a nearly full bar means the window is
// nearly exhausted.
func RenderUsageBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// RenderTargetBar renders a usage bar with a marker at the advised target
// percentage. The marker cell overrides the fill character so the target
// stays visible whether usage is below or above it.
func RenderTargetBar(percent, targetPct float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	markerIdx := int(float64(width) * targetPct / 100)
	if markerIdx >= width {
		markerIdx = width - 1
	}
	if markerIdx < 0 {
		markerIdx = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i == markerIdx {
			style := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
			barChars = append(barChars, style.Render("┃"))
			continue
		}
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// RenderTimeBar renders an elapsed-time bar: more filled means less of the
// window remains.
func RenderTimeBar(remainingMin, windowMin float64, width int) string {
	if width < 1 {
		return ""
	}

	percent := 1.0
	if windowMin > 0 {
		percent = 1.0 - remainingMin/windowMin
		if percent < 0 {
			percent = 0
		}
		if percent > 1 {
			percent = 1
		}
	}

	filled := int(float64(width) * percent)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#ffd93d", "#6c5ce7", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// FormatMinutes renders a minute count as "3h 40m" or "2d 04h".
func FormatMinutes(minutes float64) string {
	if minutes <= 0 {
		return "0h 00m"
	}

	totalMin := int(minutes)
	h := totalMin / 60
	m := totalMin % 60

	if h >= 24 {
		days := h / 24
		remainingHours := h % 24
		return fmt.Sprintf("%dd %02dh", days, remainingHours)
	}

	return fmt.Sprintf("%dh %02dm", h, m)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
