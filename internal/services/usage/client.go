// Package usage fetches quota utilization from the metered API.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/j-veylop/pacewatch-tui/internal/logger"
	"github.com/j-veylop/pacewatch-tui/internal/models"
)

const (
	usagePath  = "/api/oauth/usage"
	apiVersion = "2023-06-01"
)

// usageResponse is the wire format of the usage endpoint. Every field is
// optional; absent utilization means the account has no data for that window.
type usageResponse struct {
	SessionUsedPct *float64 `json:"sessionUsedPct"`
	SessionResetAt *string  `json:"sessionResetAt"`
	WeeklyUsedPct  *float64 `json:"weeklyUsedPct"`
	WeeklyResetAt  *string  `json:"weeklyResetAt"`
}

// Client fetches utilization readings over HTTP.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials *Credentials
}

// NewClient creates a usage client against the given API base URL.
func NewClient(baseURL string, credentials *Credentials) *Client {
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		credentials: credentials,
	}
}

// Fetch retrieves one normalized reading. Missing response fields default to
// zero utilization and zero minutes remaining; only transport, auth and
// decode failures are errors.
func (c *Client) Fetch(ctx context.Context) (models.Reading, error) {
	var reading models.Reading

	token, err := c.credentials.Token()
	if err != nil {
		return reading, fmt.Errorf("failed to load credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+usagePath, nil)
	if err != nil {
		return reading, fmt.Errorf("failed to create usage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reading, fmt.Errorf("usage request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reading, fmt.Errorf("failed to read usage response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return reading, fmt.Errorf("unauthorized: token may be expired")
	}
	if resp.StatusCode != http.StatusOK {
		return reading, fmt.Errorf("usage request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var wire usageResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return reading, fmt.Errorf("failed to parse usage response: %w", err)
	}

	return normalize(wire, time.Now()), nil
}

// normalize fills in defaults for absent fields and converts reset
// timestamps to minutes from now. Unparsable or past resets become 0.
func normalize(wire usageResponse, now time.Time) models.Reading {
	var reading models.Reading

	if wire.SessionUsedPct != nil {
		reading.SessionUsedPct = *wire.SessionUsedPct
	} else {
		logger.Warn("usage response missing session utilization, assuming 0")
	}
	if wire.WeeklyUsedPct != nil {
		reading.WeeklyUsedPct = *wire.WeeklyUsedPct
	} else {
		logger.Warn("usage response missing weekly utilization, assuming 0")
	}

	reading.SessionRemainingMin = minutesUntil(wire.SessionResetAt, now)
	reading.WeeklyRemainingMin = minutesUntil(wire.WeeklyResetAt, now)
	return reading
}

func minutesUntil(iso *string, now time.Time) float64 {
	if iso == nil || *iso == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, *iso)
	if err != nil {
		logger.Warn("unparsable reset timestamp", "value", *iso, "error", err)
		return 0
	}
	minutes := t.Sub(now).Minutes()
	if minutes < 0 {
		return 0
	}
	return minutes
}
