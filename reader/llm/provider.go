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


package llm

import (
	"log/slog"

	"github.com/poiesic/docshelf/reader"
)

// Provider implements reader.Provider over OpenAI-compatible chat APIs,
// one Reader per configured identity.
type Provider struct {
	config     *reader.Config
	readers    map[string]*Reader
	identities []string
	logger     *slog.Logger
}

// NewProvider creates a provider with one reader per configured identity.
// The config is validated and normalized before use.
//
// Returns reader.Provider interface (not *Provider) to enforce abstraction.
func NewProvider(config *reader.Config) (reader.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	readers := make(map[string]*Reader, len(config.Identities))
	identities := make([]string, 0, len(config.Identities))
	for _, id := range config.Identities {
		r, err := newReader(config, id)
		if err != nil {
			return nil, err
		}
		readers[id.Name] = r
		identities = append(identities, id.Name)
	}

	return &Provider{
		config:     config,
		readers:    readers,
		identities: identities,
		logger:     slog.Default().With("component", "llm-provider"),
	}, nil
}

// Reader returns the reader for the given identity.
func (p *Provider) Reader(identity string) (reader.Reader, bool) {
	r, ok := p.readers[identity]
	return r, ok
}

// Identities returns the configured identities in priority order.
func (p *Provider) Identities() []string {
	return p.identities
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing llm reader provider")
	return nil
}
