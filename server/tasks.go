package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/ingest"
)

// handleUpload accepts a multipart document upload and schedules its
// ingestion. The response carries only the task ID; progress is observed
// by polling the task route.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	taskID, err := s.orchestrator.Submit(r.Context(), ingest.SubmitRequest{
		Data:       data,
		SourceName: header.Filename,
		Readers:    splitCSV(r.FormValue("readers")),
		ShelfIDs:   splitCSV(r.FormValue("shelves")),
	})
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrEmptyFile),
			errors.Is(err, ingest.ErrUnknownReader),
			errors.Is(err, core.ErrUnsupportedSourceKind):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("upload submission failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"task_id": taskID})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	record, err := s.orchestrator.GetTask(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toTaskPayload(record))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	records := s.orchestrator.Tasks()
	tasks := make([]taskPayload, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, toTaskPayload(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// splitCSV parses a comma-separated form value, dropping empty entries.
func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
