package app

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/pacewatch-tui/internal/models"
	"github.com/j-veylop/pacewatch-tui/internal/services"
)

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestTabIDString(t *testing.T) {
	cases := map[TabID]string{
		TabDashboard: "Dashboard",
		TabHistory:   "History",
		TabInfo:      "Info",
		TabID(99):    "Unknown",
	}
	for id, want := range cases {
		if got := id.String(); got != want {
			t.Errorf("TabID(%d).String() = %q, want %q", id, got, want)
		}
	}
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(nil)

	if m.GetActiveTab() != TabDashboard {
		t.Error("should start on the dashboard tab")
	}
	if m.IsReady() {
		t.Error("should not be ready before a window size arrives")
	}
	if m.GetState() == nil {
		t.Fatal("state should be initialized")
	}
	if !m.GetState().IsInitialLoading() {
		t.Error("state should start in initial loading")
	}
}

func TestWindowSizeMakesModelReady(t *testing.T) {
	m := NewModel(nil)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	if !m.IsReady() {
		t.Error("window size should mark the model ready")
	}
}

func TestNumberKeysSwitchTabs(t *testing.T) {
	m := NewModel(nil)

	m.Update(keyPress('2'))
	if m.GetActiveTab() != TabHistory {
		t.Errorf("after '2' active tab = %v, want History", m.GetActiveTab())
	}

	m.Update(keyPress('3'))
	if m.GetActiveTab() != TabInfo {
		t.Errorf("after '3' active tab = %v, want Info", m.GetActiveTab())
	}

	m.Update(keyPress('1'))
	if m.GetActiveTab() != TabDashboard {
		t.Errorf("after '1' active tab = %v, want Dashboard", m.GetActiveTab())
	}
}

func TestTabKeyCyclesForward(t *testing.T) {
	m := NewModel(nil)

	for _, want := range []TabID{TabHistory, TabInfo, TabDashboard} {
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if m.GetActiveTab() != want {
			t.Fatalf("active tab = %v, want %v", m.GetActiveTab(), want)
		}
	}
}

func TestQuitKey(t *testing.T) {
	m := NewModel(nil)

	_, cmd := m.Update(keyPress('q'))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestHelpToggle(t *testing.T) {
	m := NewModel(nil)

	m.Update(keyPress('?'))
	if !m.showHelp {
		t.Error("help should be shown after ?")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if m.showHelp {
		t.Error("escape should close help")
	}
}

func TestAdviceEventUpdatesState(t *testing.T) {
	m := NewModel(nil)

	advice := models.Advice{Calibrator: -0.3, Zone: models.ZoneSlow}
	m.Update(ServiceEventMsg{Event: services.AdviceEvent{Advice: advice}})

	got := m.GetState().GetAdvice()
	if got == nil || got.Calibrator != -0.3 {
		t.Error("advice event not applied to state")
	}
	if m.GetState().IsInitialLoading() {
		t.Error("initial loading should clear on the first advice")
	}
}

func TestErrorEventProducesNotification(t *testing.T) {
	m := NewModel(nil)

	_, cmd := m.Update(ServiceEventMsg{Event: services.ErrorEvent{
		Service: "poller",
		Error:   errors.New("boom"),
	}})
	if cmd == nil {
		t.Fatal("expected a notification command")
	}

	notif, ok := cmd().(AddNotificationMsg)
	if !ok {
		t.Fatalf("expected AddNotificationMsg, got %T", cmd())
	}
	if notif.Type != NotificationError || !strings.Contains(notif.Message, "poller") {
		t.Errorf("notification = %+v", notif)
	}
}

func TestStartStopLoadingMessages(t *testing.T) {
	m := NewModel(nil)
	m.GetState().SetLoading("initial", false)

	m.Update(StartLoadingMsg{Resource: "poll"})
	if !m.GetState().AnyLoading() {
		t.Error("start loading not applied")
	}

	m.Update(StopLoadingMsg{Resource: "poll"})
	if m.GetState().AnyLoading() {
		t.Error("stop loading not applied")
	}
	if len(m.GetState().GetNotifications()) != 0 {
		t.Error("loading notification should clear when nothing is loading")
	}
}

func TestAddNotificationMsgStoresAndSchedulesRemoval(t *testing.T) {
	m := NewModel(nil)

	_, cmd := m.Update(AddNotificationMsg{
		Type:     NotificationSuccess,
		Message:  "saved",
		Duration: DefaultNotificationDuration,
	})
	if len(m.GetState().GetNotifications()) != 1 {
		t.Fatal("notification not stored")
	}
	if cmd == nil {
		t.Error("expected a delayed removal command")
	}
}

func TestViewRendersNavbarAndHelp(t *testing.T) {
	m := NewModel(nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	view := m.View()
	for _, want := range []string{"Dashboard", "History", "Info"} {
		if !strings.Contains(view, want) {
			t.Errorf("navbar missing %q", want)
		}
	}

	if !strings.Contains(m.renderHelp(), "Keyboard Shortcuts") {
		t.Error("help panel missing title")
	}
}

func TestTabSwitchMsg(t *testing.T) {
	m := NewModel(nil)

	m.Update(TabSwitchMsg{Tab: TabHistory})
	if m.GetActiveTab() != TabHistory {
		t.Error("tab switch message not applied")
	}
}
