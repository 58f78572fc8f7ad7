package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/pacewatch-tui/internal/ui/components"
	"github.com/j-veylop/pacewatch-tui/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.loading {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if m.data == nil || m.isEmpty() {
		return m.renderEmpty()
	}

	sections := []string{
		m.renderHeader(),
		m.renderUtilizationChart(),
		m.renderDailyPeaks(),
		m.renderBusiestHours(),
		m.renderSummary(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) isEmpty() bool {
	return len(m.data.snapshots) == 0 && len(m.data.dailyMaxima) == 0
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history data..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render("No historical data available yet."),
		styles.HelpStyle.Render("Data will appear as polls are recorded."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("History")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	var subtitle string
	if len(m.data.dailyMaxima) > 0 {
		oldest := m.data.dailyMaxima[len(m.data.dailyMaxima)-1].Day
		newest := m.data.dailyMaxima[0].Day
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Data: %s → %s (%d days)",
			oldest.Format("Jan 2, 2006"),
			newest.Format("Jan 2, 2006"),
			len(m.data.dailyMaxima),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) renderUtilizationChart() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Utilization"), "")

	snapshots := m.data.snapshots
	if len(snapshots) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No snapshots recorded yet"))
	} else {
		session := make([]float64, len(snapshots))
		weekly := make([]float64, len(snapshots))
		for i, s := range snapshots {
			session[i] = s.SessionUsedPct
			weekly[i] = s.WeeklyUsedPct
		}

		chartWidth := max(cardWidth-12, 30)
		chartHeight := 8

		chart := components.RenderDualLineChart(session, weekly, chartWidth, chartHeight,
			fmt.Sprintf("Last %d polls - session (red) vs weekly (blue)", len(snapshots)))

		for _, line := range strings.Split(chart, "\n") {
			rows = append(rows, "  "+line)
		}

		rows = append(rows, "")
		legend := components.RenderLegend([]components.LegendItem{
			{Label: "Session", Color: components.ChartSessionColor},
			{Label: "Weekly", Color: components.ChartWeeklyColor},
		})
		rows = append(rows, "  "+legend)

		rows = append(rows, "")
		calibrator := make([]float64, len(snapshots))
		// Shift the signal into [0,2] so the sparkline baseline is the
		// slow end rather than a negative value.
		for i, s := range snapshots {
			calibrator[i] = s.Calibrator + 1
		}
		spark := components.RenderSparkline(calibrator, max(chartWidth, 10))
		rows = append(rows, "  "+styles.HelpStyle.Render("pacing signal ")+spark)
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderDailyPeaks() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Daily peaks"), "")

	maxima := m.data.dailyMaxima
	if len(maxima) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No daily data available"))
	} else {
		// Newest first from the query; plot oldest to newest.
		values := make([]float64, len(maxima))
		for i, d := range maxima {
			values[len(maxima)-1-i] = d.MaxCombined
		}

		chartWidth := max(cardWidth-12, 30)
		chart := components.RenderLineChart(values, chartWidth, 6,
			"Peak combined utilization per day (%)")

		for _, line := range strings.Split(chart, "\n") {
			rows = append(rows, "  "+line)
		}
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderBusiestHours() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Busiest hours"), "")

	hours := m.data.topHours
	if len(hours) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No hourly data available"))
	} else {
		values := make([]float64, len(hours))
		labels := make([]string, len(hours))
		for i, h := range hours {
			values[i] = h.AvgCombined
			labels[i] = fmt.Sprintf("%02d:00", h.Hour)
		}

		chartWidth := max(cardWidth-8, 30)
		barChart := components.RenderBarChart(values, labels, chartWidth)

		for _, line := range strings.Split(barChart, "\n") {
			rows = append(rows, "  "+line)
		}
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderSummary() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Summary"), "")

	hitStyle := styles.SuccessTextStyle
	if m.data.budgetHitRate >= 50 {
		hitStyle = styles.ErrorTextStyle
	} else if m.data.budgetHitRate >= 25 {
		hitStyle = styles.WarningTextStyle
	}

	rows = append(rows, fmt.Sprintf("  %s %s of polls over the session budget",
		styles.HelpStyle.Render("budget hit rate"),
		hitStyle.Render(fmt.Sprintf("%.0f%%", m.data.budgetHitRate)),
	))
	rows = append(rows, fmt.Sprintf("  %s %.1f per day",
		styles.HelpStyle.Render("sessions"),
		m.data.avgSessions,
	))

	if m.services != nil {
		rows = append(rows, fmt.Sprintf("  %s %.1f sessions",
			styles.HelpStyle.Render("expected today"),
			m.services.ExpectedSessionsPerDay(),
		))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
