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


package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/ingest"
	"github.com/poiesic/docshelf/search"
	"github.com/poiesic/docshelf/storage"
)

const defaultMaxUploadBytes = 50 << 20 // 50 MiB

// Server exposes the library over HTTP: multipart upload with task
// polling, document and shelf CRUD, and field-scoped search.
type Server struct {
	orchestrator   *ingest.Orchestrator
	documents      storage.DocumentRepository
	shelves        storage.ShelfRepository
	searcher       *search.Searcher
	maxUploadBytes int64
	logger         *slog.Logger
	mux            *http.ServeMux
}

// Option configures a Server.
type Option func(*Server) error

// WithMaxUploadBytes caps the accepted upload size.
// Default is 50 MiB.
func WithMaxUploadBytes(limit int64) Option {
	return func(s *Server) error {
		if limit > 0 {
			s.maxUploadBytes = limit
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates a server over the given collaborators.
func NewServer(orchestrator *ingest.Orchestrator, documents storage.DocumentRepository, shelves storage.ShelfRepository, searcher *search.Searcher, opts ...Option) (*Server, error) {
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if shelves == nil {
		return nil, ErrShelfRepositoryRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	s := &Server{
		orchestrator:   orchestrator,
		documents:      documents,
		shelves:        shelves,
		searcher:       searcher,
		maxUploadBytes: defaultMaxUploadBytes,
		logger:         slog.Default(),
		mux:            http.NewServeMux(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.routes()
	return s, nil
}

// Handler returns the route table as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /documents", s.handleUpload)
	s.mux.HandleFunc("GET /tasks", s.handleListTasks)
	s.mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)

	s.mux.HandleFunc("GET /documents", s.handleListDocuments)
	s.mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	s.mux.HandleFunc("GET /documents/{id}/text", s.handleGetDocumentText)
	s.mux.HandleFunc("GET /documents/{id}/markdown", s.handleGetDocumentMarkdown)
	s.mux.HandleFunc("GET /documents/{id}/source", s.handleGetDocumentSource)
	s.mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)
	s.mux.HandleFunc("PUT /documents/{id}/shelves", s.handleSetDocumentShelves)
	s.mux.HandleFunc("POST /documents/{id}/shelves/{shelfID}", s.handleAddDocumentToShelf)
	s.mux.HandleFunc("DELETE /documents/{id}/shelves/{shelfID}", s.handleRemoveDocumentFromShelf)

	s.mux.HandleFunc("GET /shelves", s.handleListShelves)
	s.mux.HandleFunc("POST /shelves", s.handleCreateShelf)
	s.mux.HandleFunc("GET /shelves/{id}", s.handleGetShelf)
	s.mux.HandleFunc("PATCH /shelves/{id}", s.handleRenameShelf)
	s.mux.HandleFunc("DELETE /shelves/{id}", s.handleDeleteShelf)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeStorageError maps repository sentinel errors to HTTP statuses.
func (s *Server) writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrShelfExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrProtectedShelf):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrInvalidShelf), errors.Is(err, core.ErrInvalidDocument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
