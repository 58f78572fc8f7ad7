package info

import (
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/pacewatch-tui/internal/models"
	"github.com/j-veylop/pacewatch-tui/internal/ui/styles"
	"github.com/j-veylop/pacewatch-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderScheduleCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, schedule, and version")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderConfigCard() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"), "")

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("  Configuration not loaded"))
	} else {
		rows = append(rows,
			m.renderConfigRow("database", m.config.DatabasePath),
			m.renderConfigRow("engine state", m.config.StatePath),
			m.renderConfigRow("credentials", m.config.CredentialsPath),
			m.renderConfigRow("log file", m.config.LogPath),
			m.renderConfigRow("API base URL", m.config.APIBaseURL),
			m.renderConfigRow("poll interval", m.config.PollInterval.String()),
			m.renderConfigRow("day boundary", fmt.Sprintf("%02d:00 local", m.config.DayBoundaryHour)),
			m.renderConfigRow("fallback sessions/day", fmt.Sprintf("%.1f", m.config.FallbackSessionsPerDay)),
		)
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("  Override any value with PACEWATCH_* environment variables"))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(24)
	return fmt.Sprintf("  %s %s", labelStyle.Render(label), value)
}

// renderScheduleCard shows the per-weekday active windows the engine is
// currently working with. These start from configuration and shift as
// usage history accumulates.
func (m *Model) renderScheduleCard() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Active schedule"), "")

	windows := m.activeWindows()

	today := time.Now().Weekday()
	for d := time.Weekday(0); d < 7; d++ {
		w := windows[d]

		dayStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Width(11)
		if d == today {
			dayStyle = dayStyle.Foreground(styles.Primary).Bold(true)
		}

		var detail string
		if w.IsEmpty() {
			detail = styles.HelpStyle.Render("off")
		} else {
			detail = fmt.Sprintf("%s to %s  (%.1fh)",
				formatHour(w.StartHour), formatHour(w.EndHour), w.Hours())
		}

		rows = append(rows, fmt.Sprintf("  %s %s", dayStyle.Render(d.String()), detail))
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("  Windows adapt to observed usage after enough history"))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// activeWindows prefers the engine's detected schedule and falls back to
// the configured seed when no engine state is available.
func (m *Model) activeWindows() [7]models.ActiveWindow {
	if m.services != nil {
		if st := m.services.EngineState(); st != nil && st.Windows != ([7]models.ActiveWindow{}) {
			return st.Windows
		}
	}

	var windows [7]models.ActiveWindow
	if m.config != nil {
		for d := 0; d < 7; d++ {
			hours := m.config.ActiveHoursPerDay[d]
			if hours <= 0 {
				continue
			}
			end := m.config.ActiveStartHour + hours
			if end > 24 {
				end = 24
			}
			windows[d] = models.ActiveWindow{StartHour: m.config.ActiveStartHour, EndHour: end}
		}
	}
	return windows
}

// formatHour renders a fractional local hour as HH:MM.
func formatHour(h float64) string {
	hours := int(h)
	minutes := int((h - float64(hours)) * 60)
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func (m *Model) renderAboutCard() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About"), "")

	rows = append(rows,
		m.renderConfigRow("version", version.Version),
		m.renderConfigRow("commit", version.Commit),
		m.renderConfigRow("built", version.Date),
		m.renderConfigRow("go", runtime.Version()),
		m.renderConfigRow("platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	)

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("  Pacewatch spreads a metered coding budget across the week"))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
