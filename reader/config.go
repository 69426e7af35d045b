// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reader

import (
	"errors"
	"strings"
	"time"
)

// Identity configures one reader: a name clients select by, and the model
// serving it. Host overrides the config-level host when set.
type Identity struct {
	// Name is the identity clients request, e.g. "claude" or "codex".
	Name string

	// Model is the model identifier used for this identity's requests.
	Model string

	// Host optionally overrides Config.Host for this identity.
	Host string
}

// Config holds configuration for reader providers.
type Config struct {
	// Host is the base URL of the OpenAI-compatible chat API.
	// Example: "http://localhost:11434/v1"
	Host string

	// Identities lists the available readers in priority order.
	Identities []Identity

	// Timeout bounds a single reader invocation. A reader that exceeds it
	// is treated as failed for that task. Default: 10 minutes.
	Timeout time.Duration

	// MaxTextChars caps the document text sent to a reader; longer text is
	// truncated with a marker. Default: 120000.
	MaxTextChars int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the chat API host for all identities.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithTimeout sets the per-invocation timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxTextChars sets the document text cap.
func WithMaxTextChars(max int) ConfigOption {
	return func(c *Config) {
		c.MaxTextChars = max
	}
}

// WithIdentities replaces the identity list. Order is priority order.
func WithIdentities(identities ...Identity) ConfigOption {
	return func(c *Config) {
		c.Identities = identities
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible service and the two stock reader identities.
func DefaultConfig() *Config {
	return &Config{
		Host: "http://localhost:11434/v1",
		Identities: []Identity{
			{Name: "claude", Model: "claude-sonnet-4-5"},
			{Name: "codex", Model: "gpt-5-codex"},
		},
		Timeout:      10 * time.Minute,
		MaxTextChars: 120000,
	}
}

// NewConfig creates a Config with default values and applies the provided
// options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures hosts carry the /v1 suffix required by most
// OpenAI-compatible APIs.
func (c *Config) Normalize() {
	c.Host = normalizeHost(c.Host)
	for i := range c.Identities {
		c.Identities[i].Host = normalizeHost(c.Identities[i].Host)
	}
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("reader config: Host is required")
	}
	if len(c.Identities) == 0 {
		return errors.New("reader config: at least one identity is required")
	}
	seen := make(map[string]bool, len(c.Identities))
	for _, id := range c.Identities {
		if id.Name == "" {
			return errors.New("reader config: identity name is required")
		}
		if id.Model == "" {
			return errors.New("reader config: identity model is required")
		}
		if seen[id.Name] {
			return errors.New("reader config: duplicate identity " + id.Name)
		}
		seen[id.Name] = true
	}
	if c.Timeout <= 0 {
		return errors.New("reader config: Timeout must be positive")
	}
	if c.MaxTextChars <= 0 {
		return errors.New("reader config: MaxTextChars must be positive")
	}
	return nil
}

// HostFor returns the effective host for an identity.
func (c *Config) HostFor(id Identity) string {
	if id.Host != "" {
		return id.Host
	}
	return c.Host
}
