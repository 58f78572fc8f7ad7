// Package poller drives the periodic usage polling loop.
package poller

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/pacewatch-tui/internal/db"
	"github.com/j-veylop/pacewatch-tui/internal/engine"
	"github.com/j-veylop/pacewatch-tui/internal/logger"
	"github.com/j-veylop/pacewatch-tui/internal/models"
	"github.com/j-veylop/pacewatch-tui/internal/state"
)

// EventType identifies the kind of poller event.
type EventType int

const (
	// EventAdvice carries the advice computed from a successful poll.
	EventAdvice EventType = iota
	// EventError reports a failed poll or persistence problem.
	EventError
)

// Event is emitted after each poll attempt.
type Event struct {
	Type   EventType
	Advice models.Advice
	Error  error
}

// Fetcher retrieves one utilization reading.
type Fetcher interface {
	Fetch(ctx context.Context) (models.Reading, error)
}

// CredentialWatcher is notified when the credentials file changes on disk.
type CredentialWatcher interface {
	Path() string
	Invalidate()
}

const retentionDays = 90

// Service polls the usage API on a fixed interval, feeds readings through the
// pacing engine and persists the results. The timer loop and manual PollNow
// calls are serialized so two polls never interleave.
type Service struct {
	fetcher     Fetcher
	engine      *engine.Engine
	store       *state.Store
	database    *db.DB
	credentials CredentialWatcher
	interval    time.Duration

	eventChan chan Event
	stopChan  chan struct{}
	watcher   *fsnotify.Watcher

	pollMu       sync.Mutex
	lastPruneDay string
}

// New creates a poller. The database and credential watcher are optional.
func New(fetcher Fetcher, eng *engine.Engine, store *state.Store, database *db.DB, credentials CredentialWatcher, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 300 * time.Second
	}
	return &Service{
		fetcher:     fetcher,
		engine:      eng,
		store:       store,
		database:    database,
		credentials: credentials,
		interval:    interval,
		eventChan:   make(chan Event, 100),
		stopChan:    make(chan struct{}),
	}
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Start launches the polling loop and the credentials watcher.
func (s *Service) Start() {
	if s.credentials != nil {
		if err := s.startWatcher(); err != nil {
			logger.Warn("credentials watcher unavailable", "error", err)
		}
	}
	go s.pollLoop()
}

func (s *Service) pollLoop() {
	// Initial poll before the first tick
	s.PollNow()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.PollNow()
		case <-s.stopChan:
			return
		}
	}
}

// PollNow performs one poll immediately. Safe to call concurrently with the
// timer loop; overlapping calls run back to back, never interleaved.
func (s *Service) PollNow() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	reading, err := s.fetcher.Fetch(ctx)
	if err != nil {
		logger.Error("poll failed", "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	now := time.Now()
	advice := s.engine.RecordPoll(reading, now)

	if err := s.store.Save(s.engine.State()); err != nil {
		logger.Error("failed to persist engine state", "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
	}

	s.persistSnapshot(reading, advice, now)

	s.sendEvent(Event{Type: EventAdvice, Advice: advice})
}

func (s *Service) persistSnapshot(reading models.Reading, advice models.Advice, now time.Time) {
	if s.database == nil {
		return
	}

	row := &models.SnapshotRow{
		Timestamp:           now,
		SessionUsedPct:      reading.SessionUsedPct,
		SessionRemainingMin: reading.SessionRemainingMin,
		WeeklyUsedPct:       reading.WeeklyUsedPct,
		WeeklyRemainingMin:  reading.WeeklyRemainingMin,
		Calibrator:          advice.Calibrator,
		SessionTarget:       advice.SessionTarget,
		CombinedPct:         models.CombinedPct(reading.SessionUsedPct, reading.WeeklyUsedPct),
	}
	if burn, ok := s.engine.BudgetBurn(); ok {
		row.BudgetBurn = &burn
	}
	if err := s.database.InsertSnapshot(row); err != nil {
		logger.Error("failed to persist snapshot", "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
	}

	if advice.IsNewSession {
		if start := s.engine.State().LastSessionStart(); start != nil {
			if err := s.database.InsertSessionStart(start); err != nil {
				logger.Error("failed to persist session start", "error", err)
			}
		}
	}

	// Prune at most once per local day.
	day := now.In(s.database.Location()).Format("2006-01-02")
	if day != s.lastPruneDay {
		s.lastPruneDay = day
		if err := s.database.Prune(now, retentionDays); err != nil {
			logger.Warn("failed to prune history", "error", err)
		}
	}
}

// startWatcher watches the credentials file so an external re-login is
// picked up without a restart.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.credentials.Path())
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	s.watcher = watcher
	go s.watchLoop()
	return nil
}

func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.credentials.Path()) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceInterval, func() {
					logger.Info("credentials file changed, reloading token")
					s.credentials.Invalidate()
				})
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the polling loop and the watcher.
func (s *Service) Close() error {
	close(s.stopChan)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
