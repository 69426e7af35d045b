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


package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/extract"
	"github.com/poiesic/docshelf/reader"
	"github.com/poiesic/docshelf/storage"
)

const (
	defaultReaderTimeout = 10 * time.Minute
	maxErrorLen          = 500
)

// Orchestrator drives ingestion tasks through the pipeline: extract text,
// run the requested readers concurrently, persist the merged result. Each
// submitted task runs as one unit on a worker pool and reports progress
// through the task registry.
type Orchestrator struct {
	extractor     extract.Extractor
	readers       reader.Provider
	writer        storage.DocumentWriter
	registry      *Registry
	pool          *ants.Pool
	readerTimeout time.Duration
	logger        *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithPoolSize sets the worker pool size for concurrent tasks.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}
		if o.pool != nil {
			o.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithReaderTimeout bounds each reader invocation. A reader that exceeds
// the timeout is treated as failed for that task without failing the task.
// Default is 10 minutes.
func WithReaderTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) error {
		if timeout > 0 {
			o.readerTimeout = timeout
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates a new ingestion orchestrator.
func NewOrchestrator(
	extractor extract.Extractor,
	readers reader.Provider,
	writer storage.DocumentWriter,
	opts ...Option,
) (*Orchestrator, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if readers == nil {
		return nil, ErrReaderProviderRequired
	}
	if writer == nil {
		return nil, ErrStorageWriterRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		extractor:     extractor,
		readers:       readers,
		writer:        writer,
		registry:      NewRegistry(),
		pool:          pool,
		readerTimeout: defaultReaderTimeout,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(o); optErr != nil {
			o.Release()
			return nil, optErr
		}
	}

	return o, nil
}

// SubmitRequest describes one upload.
type SubmitRequest struct {
	Data       []byte
	SourceName string
	// Readers selects which configured reader identities to run; empty
	// means none.
	Readers []string
	// ShelfIDs assigns the finished document to shelves at save time.
	ShelfIDs []string
}

// Submit validates the request, registers a pending task and schedules the
// pipeline. It returns the task ID immediately; progress is observed by
// polling GetTask. Validation failures are reported synchronously and
// create no task.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if len(req.Data) == 0 {
		return "", ErrEmptyFile
	}
	kind, err := core.SourceKindFromName(req.SourceName)
	if err != nil {
		return "", err
	}
	identities, err := o.selectReaders(req.Readers)
	if err != nil {
		return "", err
	}

	taskID := o.registry.Create()
	err = o.pool.Submit(func() {
		o.run(taskID, req.Data, req.SourceName, kind, identities, req.ShelfIDs)
	})
	if err != nil {
		o.registry.Fail(taskID, sanitizeError(err))
		return "", err
	}

	o.logger.Info("ingestion task submitted",
		"task_id", taskID, "source", req.SourceName, "readers", identities)
	return taskID, nil
}

// GetTask returns a snapshot of the task record.
func (o *Orchestrator) GetTask(taskID string) (TaskRecord, error) {
	record, ok := o.registry.Get(taskID)
	if !ok {
		return TaskRecord{}, fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	return record, nil
}

// Tasks returns snapshots of all known tasks, newest first.
func (o *Orchestrator) Tasks() []TaskRecord {
	return o.registry.Tasks()
}

// Release shuts down the worker pool. In-flight tasks finish; the
// orchestrator must not be used afterwards.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// run executes one task's pipeline. Extraction and storage failures are
// fatal for the task; reader failures are absorbed.
func (o *Orchestrator) run(taskID string, data []byte, sourceName string, kind core.SourceKind, identities, shelfIDs []string) {
	ctx := context.Background()

	o.registry.Advance(taskID, StatusExtracting, "Extracting text from "+sourceName)
	extracted, err := o.extractor.Extract(ctx, data, kind)
	if err != nil {
		o.logger.Error("extraction failed", "task_id", taskID, "err", err)
		o.registry.Fail(taskID, sanitizeError(err))
		return
	}

	readings := o.runReaders(ctx, taskID, extracted, identities)

	o.registry.Advance(taskID, StatusSaving, "Saving document to library")
	documentID, err := o.writer.SaveDocument(ctx, &storage.SaveRequest{
		Extracted:   extracted,
		SourceName:  sourceName,
		Source:      data,
		Readings:    readings,
		ReaderOrder: identities,
		ShelfIDs:    shelfIDs,
	})
	if err != nil {
		o.logger.Error("storage failed", "task_id", taskID, "err", err)
		o.registry.Fail(taskID, sanitizeError(err))
		return
	}

	o.registry.Complete(taskID, documentID, "Document saved as "+documentID)
	o.logger.Info("ingestion task completed", "task_id", taskID, "document_id", documentID)
}

// runReaders invokes the selected readers concurrently with a per-reader
// timeout and collects the successful readings. A reader failure leaves no
// entry in the result and never fails the task. The polled status always
// names the first still-outstanding identity in configured order.
func (o *Orchestrator) runReaders(ctx context.Context, taskID string, extracted *core.ExtractedDocument, identities []string) map[string]core.Reading {
	if len(identities) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		pending  = make(map[string]bool, len(identities))
		readings = make(map[string]core.Reading, len(identities))
	)
	for _, identity := range identities {
		pending[identity] = true
	}
	o.registry.Advance(taskID, ReadingStatus(identities[0]),
		fmt.Sprintf("Running %d reader(s)", len(identities)))

	// settle marks one reader finished and re-points the polled status at
	// the first identity still outstanding. A failed reader is noted in the
	// progress message until the next reader settles.
	settle := func(identity string, reading *core.Reading) {
		mu.Lock()
		defer mu.Unlock()
		delete(pending, identity)
		if reading != nil {
			readings[identity] = *reading
		}
		for _, id := range identities {
			if pending[id] {
				msg := fmt.Sprintf("Waiting on reader %s", id)
				if reading == nil {
					msg = fmt.Sprintf("Reader %s failed, continuing; waiting on reader %s", identity, id)
				}
				o.registry.Advance(taskID, ReadingStatus(id), msg)
				return
			}
		}
	}

	var g errgroup.Group
	for _, identity := range identities {
		g.Go(func() error {
			rd, ok := o.readers.Reader(identity)
			if !ok {
				// Identities were validated at submit time; a missing
				// reader here means the provider changed underneath us.
				o.logger.Warn("reader disappeared", "task_id", taskID, "reader", identity)
				settle(identity, nil)
				return nil
			}

			readerCtx, cancel := context.WithTimeout(ctx, o.readerTimeout)
			defer cancel()

			reading, err := rd.Read(readerCtx, extracted)
			if err != nil {
				o.logger.Warn("reader failed, continuing without its reading",
					"task_id", taskID, "reader", identity, "err", err)
				settle(identity, nil)
				return nil
			}
			settle(identity, reading)
			return nil
		})
	}
	g.Wait()

	return readings
}

// selectReaders validates the requested identities against the provider
// and returns them in the provider's priority order, deduplicated.
func (o *Orchestrator) selectReaders(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, nil
	}

	known := o.readers.Identities()
	wanted := make(map[string]bool, len(requested))
	for _, identity := range requested {
		found := false
		for _, k := range known {
			if k == identity {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrUnknownReader, identity)
		}
		wanted[identity] = true
	}

	var ordered []string
	for _, identity := range known {
		if wanted[identity] {
			ordered = append(ordered, identity)
		}
	}
	return ordered, nil
}

// sanitizeError flattens an error into a single bounded line safe to show
// to a polling client.
func sanitizeError(err error) string {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if runes := []rune(msg); len(runes) > maxErrorLen {
		msg = string(runes[:maxErrorLen]) + "..."
	}
	return msg
}
