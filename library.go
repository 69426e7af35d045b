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


package docshelf

import (
	"log/slog"

	"github.com/poiesic/docshelf/extract"
	"github.com/poiesic/docshelf/ingest"
	"github.com/poiesic/docshelf/reader"
	"github.com/poiesic/docshelf/reader/llm"
	"github.com/poiesic/docshelf/search"
	"github.com/poiesic/docshelf/storage"
	"github.com/poiesic/docshelf/storage/badger"
)

// Library bundles the storage backend, repositories and reader provider
// behind one handle. It is the entry point for embedding docshelf.
type Library struct {
	backend   *badger.Backend
	docRepo   storage.DocumentRepository
	shelfRepo storage.ShelfRepository
	provider  reader.Provider
	extractor extract.Extractor
	logger    *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	readerConfig *reader.Config
	provider     reader.Provider
	inMemory     bool
}

// WithReaderConfig sets the configuration used to build the LLM reader
// provider. Ignored when WithReaderProvider is given.
func WithReaderConfig(config *reader.Config) LibraryOption {
	return func(o *libraryOptions) {
		if config != nil {
			o.readerConfig = config
		}
	}
}

// WithReaderProvider supplies a pre-built reader provider instead of the
// default LLM-backed one.
func WithReaderProvider(provider reader.Provider) LibraryOption {
	return func(o *libraryOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all data in memory. Intended for tests and
// throwaway runs.
func WithInMemory() LibraryOption {
	return func(o *libraryOptions) {
		o.inMemory = true
	}
}

// NewLibrary opens (or creates) a document library at filePath.
func NewLibrary(filePath string, opts ...LibraryOption) (*Library, error) {
	options := &libraryOptions{
		readerConfig: reader.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = llm.NewProvider(options.readerConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Library{
		backend:   backend,
		docRepo:   badger.NewDocumentStore(backend),
		shelfRepo: badger.NewShelfStore(backend),
		provider:  provider,
		extractor: extract.NewDispatcher(),
		logger:    slog.Default(),
	}, nil
}

// Close releases the reader provider and the storage backend.
func (l *Library) Close() error {
	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing reader provider", "err", err)
	}
	if err := l.docRepo.Close(); err != nil {
		l.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := l.shelfRepo.Close(); err != nil {
		l.logger.Error("error closing shelf repository", "err", err)
		return err
	}
	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository returns the document repository.
func (l *Library) DocumentRepository() storage.DocumentRepository {
	return l.docRepo
}

// ShelfRepository returns the shelf repository.
func (l *Library) ShelfRepository() storage.ShelfRepository {
	return l.shelfRepo
}

// ReaderProvider returns the configured reader provider.
func (l *Library) ReaderProvider() reader.Provider {
	return l.provider
}

// NewOrchestrator creates an ingestion orchestrator wired to this
// library's extractor, readers and document store.
func (l *Library) NewOrchestrator(opts ...ingest.Option) (*ingest.Orchestrator, error) {
	return ingest.NewOrchestrator(l.extractor, l.provider, l.docRepo, opts...)
}

// NewSearcher creates a searcher over this library's documents.
func (l *Library) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(l.docRepo, opts...)
}
