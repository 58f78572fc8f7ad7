// Package history provides the tab for historical pacing statistics.
package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/pacewatch-tui/internal/app"
	"github.com/j-veylop/pacewatch-tui/internal/models"
	"github.com/j-veylop/pacewatch-tui/internal/services"
)

// snapshotLimit bounds the utilization trace to roughly a day of 5-minute polls.
const snapshotLimit = 288

// timeRange selects the aggregation window for the history queries.
type timeRange int

const (
	rangeWeek timeRange = iota
	rangeMonth
	rangeQuarter
)

// Days returns the range length in days.
func (r timeRange) Days() int {
	switch r {
	case rangeWeek:
		return 7
	case rangeQuarter:
		return 90
	default:
		return 30
	}
}

// Next cycles to the following range.
func (r timeRange) Next() timeRange {
	switch r {
	case rangeWeek:
		return rangeMonth
	case rangeMonth:
		return rangeQuarter
	default:
		return rangeWeek
	}
}

// String returns the display label.
func (r timeRange) String() string {
	return fmt.Sprintf("Last %d days", r.Days())
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// historyData bundles everything one render needs.
type historyData struct {
	snapshots     []models.SnapshotRow
	dailyMaxima   []models.DailyMax
	topHours      []models.HourAvg
	budgetHitRate float64
	avgSessions   float64
}

// historyLoadedMsg is sent when history data is loaded.
type historyLoadedMsg struct {
	data *historyData
}

// historyErrorMsg is sent when a history query fails.
type historyErrorMsg struct {
	err string
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	timeRange   timeRange
	data        *historyData
	loading     bool
	lastRefresh time.Time
	errorMsg    string
}

// New creates a new history model.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:     state,
		services:  svc,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: rangeMonth,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.loadHistoryCmd()
}

// loadHistoryCmd creates a command that runs all history queries.
func (m *Model) loadHistoryCmd() tea.Cmd {
	days := m.timeRange.Days()
	svc := m.services
	return func() tea.Msg {
		if svc == nil {
			return historyErrorMsg{err: "Services not initialized"}
		}

		snapshots, err := svc.RecentSnapshots(snapshotLimit)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		maxima, err := svc.DailyMaxima(days)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		hours, err := svc.TopHours(5)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		hitRate, err := svc.BudgetHitRate(days)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		avgSessions, err := svc.AvgSessionsPerDay(days)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}

		return historyLoadedMsg{data: &historyData{
			snapshots:     snapshots,
			dailyMaxima:   maxima,
			topHours:      hours,
			budgetHitRate: hitRate,
			avgSessions:   avgSessions,
		}}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.data = msg.data
		m.loading = false
		m.lastRefresh = time.Now()
		m.errorMsg = ""

	case historyErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("History error: %s", msg.err),
				Duration: app.LongNotificationDuration,
			}
		})

	case app.AdviceMsg:
		// Fresh snapshot landed; refresh the charts.
		if !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory && !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		m.loading = true
		cmds = append(cmds, m.loadHistoryCmd())

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.Up,
		m.keys.Down,
	}
}
