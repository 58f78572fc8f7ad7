package app

import (
	"testing"
	"time"
)

func TestNotifyCommandDurations(t *testing.T) {
	cases := []struct {
		name     string
		msg      AddNotificationMsg
		wantType NotificationType
		wantDur  time.Duration
	}{
		{"success", notifySuccessCmd("ok")().(AddNotificationMsg), NotificationSuccess, DefaultNotificationDuration},
		{"error", notifyErrorCmd("bad")().(AddNotificationMsg), NotificationError, LongNotificationDuration},
		{"info", notifyInfoCmd("fyi")().(AddNotificationMsg), NotificationInfo, QuickNotificationDuration},
	}

	for _, tc := range cases {
		if tc.msg.Type != tc.wantType {
			t.Errorf("%s: type = %v, want %v", tc.name, tc.msg.Type, tc.wantType)
		}
		if tc.msg.Duration != tc.wantDur {
			t.Errorf("%s: duration = %v, want %v", tc.name, tc.msg.Duration, tc.wantDur)
		}
	}
}

func TestNotifyCommandMessages(t *testing.T) {
	msg := notifyErrorCmd("database unavailable")().(AddNotificationMsg)
	if msg.Message != "database unavailable" {
		t.Errorf("message = %q", msg.Message)
	}
}

func TestTickCmdProducesTickMsg(t *testing.T) {
	cmd := tickCmd(time.Millisecond)
	if cmd == nil {
		t.Fatal("expected a command")
	}
	// tea.Tick executes after the interval when run.
	if _, ok := cmd().(TickMsg); !ok {
		t.Error("expected a TickMsg")
	}
}

func TestClearNotificationCmd(t *testing.T) {
	cmd := clearNotificationCmd("abc", time.Millisecond)
	msg, ok := cmd().(RemoveNotificationMsg)
	if !ok {
		t.Fatalf("expected RemoveNotificationMsg, got %T", cmd())
	}
	if msg.ID != "abc" {
		t.Errorf("ID = %q, want abc", msg.ID)
	}
}

func TestCommandsWrapperWithNilManager(t *testing.T) {
	c := NewCommands(nil)
	if c.Tick(time.Second) == nil {
		t.Error("Tick should return a command")
	}
	if c.NotifySuccess("x") == nil {
		t.Error("NotifySuccess should return a command")
	}
}
