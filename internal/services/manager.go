// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/pacewatch-tui/internal/config"
	"github.com/j-veylop/pacewatch-tui/internal/db"
	"github.com/j-veylop/pacewatch-tui/internal/engine"
	"github.com/j-veylop/pacewatch-tui/internal/models"
	"github.com/j-veylop/pacewatch-tui/internal/services/poller"
	"github.com/j-veylop/pacewatch-tui/internal/services/usage"
	"github.com/j-veylop/pacewatch-tui/internal/state"
)

type (
	// AdviceEvent is emitted after each successful poll.
	AdviceEvent struct {
		Advice models.Advice
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (AdviceEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()  {}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	credentials *usage.Credentials
	store       *state.Store
	engine      *engine.Engine
	database    *db.DB
	poller      *poller.Service

	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent

	lastAdvice *models.Advice
	lastZone   models.PacingZone
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
	}

	m.store = state.NewStore(cfg.StatePath)
	engineState := m.store.Load()
	if engineState.Windows == ([7]models.ActiveWindow{}) {
		engineState.Windows = engine.WindowsFromHours(cfg.ActiveStartHour, cfg.ActiveHoursPerDay)
	}
	m.engine = engine.New(engineState, cfg.DayBoundaryHour)

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.credentials = usage.NewCredentials(cfg.CredentialsPath)
	client := usage.NewClient(cfg.APIBaseURL, m.credentials)
	m.poller = poller.New(client, m.engine, m.store, m.database, m.credentials, cfg.PollInterval)

	go m.routeEvents()
	m.poller.Start()

	return m, nil
}

// routeEvents routes events from the poller to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.poller.Events():
			m.handlePollerEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handlePollerEvent(event poller.Event) {
	switch event.Type {
	case poller.EventAdvice:
		m.mu.Lock()
		advice := event.Advice
		m.lastAdvice = &advice
		previousZone := m.lastZone
		m.lastZone = advice.Zone
		m.mu.Unlock()

		m.broadcast(AdviceEvent{Advice: advice})
		m.checkNotifications(previousZone, advice)

	case poller.EventError:
		m.broadcast(ErrorEvent{
			Service: "poller",
			Error:   event.Error,
		})
	}
}

// checkNotifications fires a desktop notification when pacing newly enters
// the fast zone, so the user hears about over-consumption once per episode.
func (m *Manager) checkNotifications(previous models.PacingZone, advice models.Advice) {
	if advice.Zone == models.ZoneFast && previous != models.ZoneFast {
		body := fmt.Sprintf("Consuming faster than optimal (signal %.2f, target %.0f%%)",
			advice.Calibrator, advice.SessionTarget)
		_ = beeep.Notify("Pacing: slow down", body, "")
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// PollNow triggers an immediate poll.
func (m *Manager) PollNow() {
	go m.poller.PollNow()
}

// LastAdvice returns the most recent advice, or nil before the first poll.
func (m *Manager) LastAdvice() *models.Advice {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAdvice
}

// EngineState returns the engine state for read-only presentation use.
func (m *Manager) EngineState() *models.EngineState {
	return m.engine.State()
}

// Config returns the loaded configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// TodayStats summarizes the current local day.
func (m *Manager) TodayStats() (*models.TodayStats, error) {
	return m.database.GetTodayStats(time.Now())
}

// DailyMaxima returns per-day peak combined usage for the last N days.
func (m *Manager) DailyMaxima(days int) ([]models.DailyMax, error) {
	return m.database.GetDailyMaxima(time.Now(), days)
}

// BudgetHitRate returns the share of recent polls that exhausted their
// session budget.
func (m *Manager) BudgetHitRate(days int) (float64, error) {
	return m.database.GetBudgetHitRate(time.Now(), days)
}

// TopHours returns the busiest local hours of day over the last week.
func (m *Manager) TopHours(k int) ([]models.HourAvg, error) {
	return m.database.GetTopHours(time.Now(), k)
}

// AvgSessionsPerDay returns sessions per local day over the last N days.
func (m *Manager) AvgSessionsPerDay(days int) (float64, error) {
	return m.database.GetAvgSessionsPerDay(time.Now(), days)
}

// ExpectedSessionsPerDay estimates today's session count from history,
// falling back to the configured default when history is insufficient.
func (m *Manager) ExpectedSessionsPerDay() float64 {
	expected, ok, err := m.database.GetExpectedSessionsPerDay(time.Now())
	if err != nil || !ok {
		return m.cfg.FallbackSessionsPerDay
	}
	return expected
}

// RecentSnapshots returns the newest persisted polls in chronological order.
func (m *Manager) RecentSnapshots(limit int) ([]models.SnapshotRow, error) {
	return m.database.GetRecentSnapshots(limit)
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if err := m.poller.Close(); err != nil {
		errs = append(errs, err)
	}

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
