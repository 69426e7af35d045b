package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

func (s *Server) handleListShelves(w http.ResponseWriter, r *http.Request) {
	infos, err := s.shelves.ListShelves(r.Context())
	if err != nil {
		s.writeStorageError(w, err)
		return
	}

	payloads := make([]shelfPayload, 0, len(infos))
	for _, info := range infos {
		payloads = append(payloads, toShelfInfoPayload(info))
	}
	writeJSON(w, http.StatusOK, map[string]any{"shelves": payloads})
}

func (s *Server) handleCreateShelf(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		NameJA string `json:"name_ja"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	shelf, err := s.shelves.CreateShelf(r.Context(), req.Name, req.NameJA)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShelfPayload(shelf))
}

func (s *Server) handleGetShelf(w http.ResponseWriter, r *http.Request) {
	shelf, err := s.shelves.GetShelf(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShelfPayload(shelf))
}

// handleRenameShelf renames a shelf. The ID is re-derived from the new
// name, so the response carries the shelf's new identity.
func (s *Server) handleRenameShelf(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string  `json:"name"`
		NameJA *string `json:"name_ja"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	shelf, err := s.shelves.RenameShelf(r.Context(), r.PathValue("id"), req.Name, req.NameJA)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShelfPayload(shelf))
}

func (s *Server) handleDeleteShelf(w http.ResponseWriter, r *http.Request) {
	if err := s.shelves.DeleteShelf(r.Context(), r.PathValue("id")); err != nil {
		s.writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
