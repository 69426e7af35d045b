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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/search"
)

// handleListDocuments lists or searches the library. With no q parameter
// the query matches everything, so one route serves both listing and
// search, like the shelf and sort filters.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := search.Query{
		Term:    r.URL.Query().Get("q"),
		Field:   search.FieldAll,
		ShelfID: r.URL.Query().Get("shelf"),
		Sort:    search.SortUploaded,
	}
	if field := r.URL.Query().Get("field"); field != "" {
		q.Field = search.Field(field)
	}
	if sort := r.URL.Query().Get("sort"); sort != "" {
		q.Sort = search.SortKey(sort)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = limit
	}

	docs, err := s.searcher.Search(r.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrUnknownField), errors.Is(err, search.ErrUnknownSortKey):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.writeStorageError(w, err)
		}
		return
	}

	payloads := make([]documentPayload, 0, len(docs))
	for _, doc := range docs {
		payloads = append(payloads, toDocumentPayload(doc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": payloads, "total": len(payloads)})
}

// handleGetDocument returns the full record. An optional lang parameter
// collapses each reading's bilingual fields to one language, falling back
// across languages where a variant is missing.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	switch lang := r.URL.Query().Get("lang"); lang {
	case "":
		writeJSON(w, http.StatusOK, toDocumentDetailPayload(doc))
	case string(core.LanguageEnglish), string(core.LanguageJapanese):
		writeJSON(w, http.StatusOK, toDocumentDetailPayloadIn(doc, core.Language(lang)))
	default:
		writeError(w, http.StatusBadRequest, "unknown lang")
	}
}

func (s *Server) handleGetDocumentText(w http.ResponseWriter, r *http.Request) {
	text, err := s.documents.GetDocumentText(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": text})
}

func (s *Server) handleGetDocumentMarkdown(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := s.documents.GetDocument(r.Context(), id)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	text, err := s.documents.GetDocumentText(r.Context(), id)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(core.RenderMarkdown(doc, text)))
}

// handleGetDocumentSource serves the archived source bytes. The content
// type follows the stored kind; no Content-Disposition is built from IDs
// to avoid non-ASCII header issues.
func (s *Server) handleGetDocumentSource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := s.documents.GetDocument(r.Context(), id)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	source, err := s.documents.GetDocumentSource(r.Context(), id)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}

	contentType := "application/octet-stream"
	switch doc.Kind {
	case core.SourceKindPDF:
		contentType = "application/pdf"
	case core.SourceKindEML:
		contentType = "message/rfc822"
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(source)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSetDocumentShelves(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShelfIDs []string `json:"shelf_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	id := r.PathValue("id")
	if err := s.documents.SetDocumentShelves(r.Context(), id, req.ShelfIDs); err != nil {
		s.writeStorageError(w, err)
		return
	}
	s.respondWithDocument(w, r, id)
}

func (s *Server) handleAddDocumentToShelf(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.documents.AddDocumentToShelf(r.Context(), id, r.PathValue("shelfID")); err != nil {
		s.writeStorageError(w, err)
		return
	}
	s.respondWithDocument(w, r, id)
}

func (s *Server) handleRemoveDocumentFromShelf(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.documents.RemoveDocumentFromShelf(r.Context(), id, r.PathValue("shelfID")); err != nil {
		s.writeStorageError(w, err)
		return
	}
	s.respondWithDocument(w, r, id)
}

func (s *Server) respondWithDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := s.documents.GetDocument(r.Context(), id)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentPayload(doc))
}
