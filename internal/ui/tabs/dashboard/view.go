package dashboard

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/pacewatch-tui/internal/models"
	"github.com/j-veylop/pacewatch-tui/internal/ui/components"
	"github.com/j-veylop/pacewatch-tui/internal/ui/styles"
)

// View renders the dashboard tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	advice := m.state.GetAdvice()
	if advice == nil {
		return styles.DocStyle.
			Width(m.width).
			Height(m.height).
			Render(styles.HelpStyle.Render("No pacing advice yet."))
	}

	var poll *models.Poll
	if m.services != nil {
		poll = m.services.EngineState().LastPoll()
	}

	sections := []string{
		m.renderTitle(advice),
		m.renderPacingCard(advice),
		m.renderSessionCard(advice, poll),
		m.renderWeeklyCard(advice, poll),
		m.renderBudgetCard(advice),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle(advice *models.Advice) string {
	title := styles.TitleStyle.Render("Pacewatch")
	subtitle := styles.HelpStyle.Render(fmt.Sprintf(
		"Usage pacing advisor · last poll %s",
		advice.Timestamp.Local().Format("15:04:05"),
	))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderPacingCard(advice *models.Advice) string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center,
		styles.CardTitleStyle.Render("Pacing"),
		"  ",
		components.RenderZoneBadge(advice.Zone),
	))
	rows = append(rows, "")
	rows = append(rows, components.RenderGaugeWithLabels(advice.Calibrator, cardWidth-6))
	rows = append(rows, "")

	rows = append(rows, fmt.Sprintf("  %s %s   %s %s   %s %s",
		styles.HelpStyle.Render("session dev"),
		deviationStr(advice.SessionDeviation),
		styles.HelpStyle.Render("weekly dev"),
		deviationStr(advice.WeeklyDeviation),
		styles.HelpStyle.Render("daily dev"),
		deviationStr(advice.DailyDeviation),
	))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderSessionCard(advice *models.Advice, poll *models.Poll) string {
	cardWidth := max(m.width-6, 40)
	barWidth := max(cardWidth-16, 20)

	icon := lipgloss.NewStyle().Foreground(components.ChartSessionColor).Render("⬡")
	label := lipgloss.NewStyle().Foreground(components.ChartSessionColor).Bold(true).Render("Session window")

	var rows []string
	rows = append(rows, fmt.Sprintf("%s %s", icon, label))
	rows = append(rows, "")

	if poll == nil {
		rows = append(rows, styles.HelpStyle.Render("  No reading yet"))
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	bar := components.RenderTargetBar(poll.SessionUsedPct, advice.SessionTarget, barWidth)
	percentStr := styles.GetUsageStyle(poll.SessionUsedPct).
		Width(6).Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", poll.SessionUsedPct))
	rows = append(rows, fmt.Sprintf("  [%s] %s", bar, percentStr))

	timeBar := components.RenderTimeBar(poll.SessionRemainingMin, models.SessionMinutes, barWidth)
	remainingStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).
		Render(components.FormatMinutes(poll.SessionRemainingMin))
	rows = append(rows, fmt.Sprintf("  [%s] %s left", timeBar, remainingStr))

	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %s %.0f%%   %s %s   %s %s",
		styles.HelpStyle.Render("target"),
		advice.SessionTarget,
		styles.HelpStyle.Render("optimal"),
		rateStr(advice.OptimalRate),
		styles.HelpStyle.Render("observed"),
		rateStr(advice.ObservedRate),
	))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderWeeklyCard(advice *models.Advice, poll *models.Poll) string {
	cardWidth := max(m.width-6, 40)
	barWidth := max(cardWidth-16, 20)

	icon := lipgloss.NewStyle().Foreground(components.ChartWeeklyColor).Render("◎")
	label := lipgloss.NewStyle().Foreground(components.ChartWeeklyColor).Bold(true).Render("Weekly window")

	var rows []string
	rows = append(rows, fmt.Sprintf("%s %s", icon, label))
	rows = append(rows, "")

	if poll == nil {
		rows = append(rows, styles.HelpStyle.Render("  No reading yet"))
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	bar := components.RenderUsageBar(poll.WeeklyUsedPct, barWidth)
	percentStr := styles.GetUsageStyle(poll.WeeklyUsedPct).
		Width(6).Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", poll.WeeklyUsedPct))
	rows = append(rows, fmt.Sprintf("  [%s] %s", bar, percentStr))

	timeBar := components.RenderTimeBar(poll.WeeklyRemainingMin, models.WeekMinutes, barWidth)
	remainingStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).
		Render(components.FormatMinutes(poll.WeeklyRemainingMin))
	rows = append(rows, fmt.Sprintf("  [%s] %s left", timeBar, remainingStr))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderBudgetCard(advice *models.Advice) string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Weekly budget"))
	rows = append(rows, "")

	if advice.ExchangeRate != nil {
		rows = append(rows, fmt.Sprintf("  %s %.2f weekly pts per session pt",
			styles.HelpStyle.Render("exchange rate"), *advice.ExchangeRate))
	} else {
		rows = append(rows, styles.HelpStyle.Render("  exchange rate: collecting samples"))
	}

	if advice.SessionBudget != nil {
		rows = append(rows, fmt.Sprintf("  %s %.1f weekly pts per session",
			styles.HelpStyle.Render("session budget"), *advice.SessionBudget))
	} else {
		rows = append(rows, styles.HelpStyle.Render("  session budget: not yet available"))
	}

	if today := m.state.GetTodayStats(); today != nil {
		rows = append(rows, "")
		rows = append(rows, fmt.Sprintf("  %s %d sessions · avg %.1f%% combined · %d polls",
			styles.HelpStyle.Render("today"),
			today.SessionCount, today.AvgCombinedPct, today.DataPoints))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func rateStr(rate *float64) string {
	if rate == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%/min", *rate)
}

func deviationStr(dev float64) string {
	style := styles.SuccessTextStyle
	if dev > 0.05 {
		style = styles.ErrorTextStyle
	} else if dev < -0.05 {
		style = styles.InfoTextStyle
	}
	return style.Render(fmt.Sprintf("%+.2f", dev))
}
