package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// credentialsFile is the on-disk shape of the credential store written by the
// coding assistant's login flow.
type credentialsFile struct {
	OAuth struct {
		AccessToken string `json:"accessToken"`
	} `json:"claudeAiOauth"`
}

// Credentials resolves the bearer token used by the usage client. The
// PACEWATCH_TOKEN environment variable takes precedence over the file. Reads
// are cached until Invalidate is called.
type Credentials struct {
	path string

	mu     sync.Mutex
	cached string
	loaded bool
}

// NewCredentials creates a credential accessor backed by the given file.
func NewCredentials(path string) *Credentials {
	return &Credentials{path: path}
}

// Path returns the backing file path.
func (c *Credentials) Path() string {
	return c.path
}

// Token returns the bearer token, or an error when none is available.
func (c *Credentials) Token() (string, error) {
	if token := os.Getenv("PACEWATCH_TOKEN"); token != "" {
		return token, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && c.cached != "" {
		return c.cached, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var file credentialsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if file.OAuth.AccessToken == "" {
		return "", fmt.Errorf("credentials file has no access token")
	}

	c.cached = file.OAuth.AccessToken
	c.loaded = true
	return c.cached, nil
}

// Invalidate drops the cached token so the next Token call re-reads the file.
// Called when the credentials file changes on disk.
func (c *Credentials) Invalidate() {
	c.mu.Lock()
	c.cached = ""
	c.loaded = false
	c.mu.Unlock()
}
