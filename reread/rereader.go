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


package reread

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/reader"
	"github.com/poiesic/docshelf/storage"
)

// Config holds configuration for the rereading operation.
type Config struct {
	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts per document
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// ReadTimeout bounds a single reader call. Zero or negative means the
	// default; a stuck reader must never stall the whole run.
	ReadTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		ReadTimeout:    10 * time.Minute,
	}
}

// Rereader re-runs one reader identity over every stored document and
// replaces that reader's reading on each record. Used after a reader's
// model changed and the analyses should be regenerated.
type Rereader struct {
	repo        storage.DocumentRepository
	rd          reader.Reader
	identity    string
	config      *Config
	readTimeout time.Duration
	progress    io.Writer
}

// NewRereader creates a new rereader for the given identity.
// progress: where to write progress output (typically os.Stderr)
func NewRereader(repo storage.DocumentRepository, provider reader.Provider, identity string, config *Config, progress io.Writer) (*Rereader, error) {
	if config == nil {
		config = DefaultConfig()
	}
	readTimeout := config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultConfig().ReadTimeout
	}
	rd, ok := provider.Reader(identity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", reader.ErrUnknownIdentity, identity)
	}

	return &Rereader{
		repo:        repo,
		rd:          rd,
		identity:    identity,
		config:      config,
		readTimeout: readTimeout,
		progress:    progress,
	}, nil
}

// Run executes the rereading operation over the whole library. A document
// whose reread fails after all retries is skipped and reported; the run
// continues with the remaining documents.
func (r *Rereader) Run(ctx context.Context) error {
	docs, err := r.repo.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	total := len(docs)
	if total == 0 {
		fmt.Fprintf(r.progress, "No documents found in library (0 documents)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reread of %d documents with reader %s\n", total, r.identity)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	skipped := 0
	for i, doc := range docs {
		if err := r.rereadDocument(ctx, doc); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			skipped++
			fmt.Fprintf(r.progress, "\nSkipping %s: %v\n", doc.ID, err)
		}
		tracker.Update(i + 1)
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reread complete. Processed %d documents (%d skipped) in %v\n",
		total, skipped, elapsed.Round(time.Second))
	return nil
}

// rereadDocument runs the reader on one document's stored text and
// replaces its reading.
func (r *Rereader) rereadDocument(ctx context.Context, doc *core.Document) error {
	text, err := r.repo.GetDocumentText(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to load text: %w", err)
	}

	extracted := &core.ExtractedDocument{
		Kind:      doc.Kind,
		Text:      text,
		Title:     doc.Title,
		Author:    doc.Author,
		Subject:   doc.Subject,
		PageCount: doc.PageCount,
		CharCount: doc.CharCount,
	}

	var reading *core.Reading
	err = RetryWithBackoff(ctx, func() error {
		// Each attempt gets its own deadline so one stuck reader call is
		// retried instead of stalling the run.
		readCtx, cancel := context.WithTimeout(ctx, r.readTimeout)
		defer cancel()

		var readErr error
		reading, readErr = r.rd.Read(readCtx, extracted)
		return readErr
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("reader failed: %w", err)
	}

	return r.repo.UpdateDocumentReading(ctx, doc.ID, r.identity, *reading)
}
