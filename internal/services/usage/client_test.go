package usage

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCredentials(t *testing.T, token string) *Credentials {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	data := map[string]any{"claudeAiOauth": map[string]string{"accessToken": token}}
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	return NewCredentials(path)
}

func TestFetchFullResponse(t *testing.T) {
	sessionReset := time.Now().Add(150 * time.Minute).Format(time.RFC3339)
	weeklyReset := time.Now().Add(72 * time.Hour).Format(time.RFC3339)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/oauth/usage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("missing API version header")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sessionUsedPct": 42.5,
			"sessionResetAt": sessionReset,
			"weeklyUsedPct":  30.0,
			"weeklyResetAt":  weeklyReset,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, writeCredentials(t, "test-token"))
	reading, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if reading.SessionUsedPct != 42.5 || reading.WeeklyUsedPct != 30 {
		t.Errorf("utilization = %+v", reading)
	}
	if math.Abs(reading.SessionRemainingMin-150) > 1 {
		t.Errorf("SessionRemainingMin = %v, want ~150", reading.SessionRemainingMin)
	}
	if math.Abs(reading.WeeklyRemainingMin-72*60) > 1 {
		t.Errorf("WeeklyRemainingMin = %v, want ~4320", reading.WeeklyRemainingMin)
	}
}

func TestFetchMissingFieldsDefaultToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, writeCredentials(t, "t"))
	reading, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if reading.SessionUsedPct != 0 || reading.SessionRemainingMin != 0 ||
		reading.WeeklyUsedPct != 0 || reading.WeeklyRemainingMin != 0 {
		t.Errorf("missing fields should normalize to zero, got %+v", reading)
	}
}

func TestFetchUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, writeCredentials(t, "stale"))
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestNormalizeResetEdgeCases(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	past := now.Add(-10 * time.Minute).Format(time.RFC3339)
	garbage := "not-a-timestamp"
	used := 10.0

	reading := normalize(usageResponse{
		SessionUsedPct: &used,
		SessionResetAt: &past,
		WeeklyUsedPct:  &used,
		WeeklyResetAt:  &garbage,
	}, now)

	if reading.SessionRemainingMin != 0 {
		t.Errorf("past reset should yield 0, got %v", reading.SessionRemainingMin)
	}
	if reading.WeeklyRemainingMin != 0 {
		t.Errorf("unparsable reset should yield 0, got %v", reading.WeeklyRemainingMin)
	}
}

func TestCredentialsMissingFile(t *testing.T) {
	creds := NewCredentials(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := creds.Token(); err == nil {
		t.Fatal("expected error for missing credentials file")
	}
}

func TestCredentialsInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	write := func(token string) {
		t.Helper()
		raw, _ := json.Marshal(map[string]any{"claudeAiOauth": map[string]string{"accessToken": token}})
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	write("first")
	creds := NewCredentials(path)
	if tok, err := creds.Token(); err != nil || tok != "first" {
		t.Fatalf("Token = %q, %v", tok, err)
	}

	write("second")
	if tok, _ := creds.Token(); tok != "first" {
		t.Errorf("expected cached token before Invalidate, got %q", tok)
	}
	creds.Invalidate()
	if tok, _ := creds.Token(); tok != "second" {
		t.Errorf("expected fresh token after Invalidate, got %q", tok)
	}
}
