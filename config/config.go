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


// Package config loads the server binary's YAML configuration.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/docshelf/reader"
)

// Config is the server binary's configuration file.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// DataDir is where the library database lives.
	DataDir string `yaml:"data_dir"`

	// PoolSize caps concurrent ingestion tasks. Zero means the
	// orchestrator default.
	PoolSize int `yaml:"pool_size"`

	// MaxUploadMB caps the accepted upload size in mebibytes.
	MaxUploadMB int64 `yaml:"max_upload_mb"`

	Reader Reader `yaml:"reader"`
}

// Reader configures the external LLM readers.
type Reader struct {
	// Host is the base URL of the OpenAI-compatible chat API.
	Host string `yaml:"host"`

	// Timeout bounds one reader invocation.
	Timeout time.Duration `yaml:"timeout"`

	// MaxTextChars caps the document text sent to a reader.
	MaxTextChars int `yaml:"max_text_chars"`

	// Identities lists the readers in priority order. Empty means the
	// stock claude/codex pair.
	Identities []Identity `yaml:"identities"`
}

// Identity is one configured reader.
type Identity struct {
	Name  string `yaml:"name"`
	Model string `yaml:"model"`
	Host  string `yaml:"host"`
}

// Load reads and validates the configuration file, filling defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: cannot unmarshal yaml: %w", err)
	}

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("config: data_dir is empty")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 50
	}
	if cfg.Reader.Timeout <= 0 {
		cfg.Reader.Timeout = 10 * time.Minute
	}

	return &cfg, nil
}

// MustLoad is Load for main(); it exits on any error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// ReaderConfig maps the file's reader section onto the reader package's
// configuration, keeping its defaults for anything unset.
func (c *Config) ReaderConfig() *reader.Config {
	rc := reader.DefaultConfig()
	if c.Reader.Host != "" {
		rc.Host = c.Reader.Host
	}
	rc.Timeout = c.Reader.Timeout
	if c.Reader.MaxTextChars > 0 {
		rc.MaxTextChars = c.Reader.MaxTextChars
	}
	if len(c.Reader.Identities) > 0 {
		identities := make([]reader.Identity, 0, len(c.Reader.Identities))
		for _, id := range c.Reader.Identities {
			identities = append(identities, reader.Identity{
				Name:  id.Name,
				Model: id.Model,
				Host:  id.Host,
			})
		}
		rc.Identities = identities
	}
	return rc
}
