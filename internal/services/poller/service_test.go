package poller

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/pacewatch-tui/internal/engine"
	"github.com/j-veylop/pacewatch-tui/internal/models"
	"github.com/j-veylop/pacewatch-tui/internal/state"
)

type stubFetcher struct {
	mu       sync.Mutex
	readings []models.Reading
	err      error
	calls    int
}

func (f *stubFetcher) Fetch(_ context.Context) (models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return models.Reading{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.readings) {
		idx = len(f.readings) - 1
	}
	return f.readings[idx], nil
}

func testService(t *testing.T, fetcher Fetcher) *Service {
	t.Helper()
	store := state.NewStore(filepath.Join(t.TempDir(), "state.json"))
	eng := engine.New(store.Load(), 4)
	svc := New(fetcher, eng, store, nil, nil, time.Minute)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestPollNowEmitsAdvice(t *testing.T) {
	fetcher := &stubFetcher{readings: []models.Reading{{
		SessionUsedPct:      10,
		SessionRemainingMin: 290,
		WeeklyUsedPct:       5,
		WeeklyRemainingMin:  9000,
	}}}
	svc := testService(t, fetcher)

	svc.PollNow()

	select {
	case event := <-svc.Events():
		if event.Type != EventAdvice {
			t.Fatalf("event type = %v, want advice", event.Type)
		}
		if !event.Advice.IsNewSession {
			t.Error("first poll should open a session")
		}
	default:
		t.Fatal("no event emitted")
	}
}

func TestPollNowEmitsErrorOnFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("boom")}
	svc := testService(t, fetcher)

	svc.PollNow()

	select {
	case event := <-svc.Events():
		if event.Type != EventError || event.Error == nil {
			t.Fatalf("expected error event, got %+v", event)
		}
	default:
		t.Fatal("no event emitted")
	}
}

func TestPollNowPersistsState(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	store := state.NewStore(statePath)
	eng := engine.New(store.Load(), 4)
	fetcher := &stubFetcher{readings: []models.Reading{{
		SessionUsedPct:      20,
		SessionRemainingMin: 280,
		WeeklyUsedPct:       8,
		WeeklyRemainingMin:  8800,
	}}}
	svc := New(fetcher, eng, store, nil, nil, time.Minute)
	defer func() { _ = svc.Close() }()

	svc.PollNow()

	reloaded := state.NewStore(statePath).Load()
	if len(reloaded.Polls) != 1 {
		t.Fatalf("expected 1 persisted poll, got %d", len(reloaded.Polls))
	}
	if reloaded.Polls[0].SessionUsedPct != 20 {
		t.Errorf("persisted SessionUsedPct = %v, want 20", reloaded.Polls[0].SessionUsedPct)
	}
	if len(reloaded.SessionStarts) != 1 {
		t.Errorf("expected 1 persisted session start, got %d", len(reloaded.SessionStarts))
	}
}

func TestConcurrentPollNowSerializes(t *testing.T) {
	fetcher := &stubFetcher{readings: []models.Reading{{
		SessionUsedPct:      10,
		SessionRemainingMin: 290,
		WeeklyUsedPct:       5,
		WeeklyRemainingMin:  9000,
	}}}
	svc := testService(t, fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.PollNow()
		}()
	}
	wg.Wait()

	// All polls processed, exactly one session opened, no double appends.
	st := svc.engine.State()
	if len(st.Polls) != 8 {
		t.Errorf("expected 8 polls, got %d", len(st.Polls))
	}
	if len(st.SessionStarts) != 1 {
		t.Errorf("expected 1 session start, got %d", len(st.SessionStarts))
	}
}

func TestSendEventDropsOldestWhenFull(t *testing.T) {
	svc := testService(t, &stubFetcher{readings: []models.Reading{{}}})

	for i := 0; i < 150; i++ {
		svc.sendEvent(Event{Type: EventAdvice})
	}
	// Channel capacity is 100; the loop must not have blocked.
	if got := len(svc.eventChan); got != 100 {
		t.Errorf("event channel length = %d, want 100", got)
	}
}
