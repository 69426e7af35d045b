package ingest

import "time"

// Status names one state of the ingestion task state machine. The reader
// stage uses per-identity states (reading_claude, reading_codex, ...)
// built with ReadingStatus.
type Status string

const (
	// StatusPending means the task is created but not yet picked up.
	StatusPending Status = "pending"
	// StatusExtracting means text extraction is in flight.
	StatusExtracting Status = "extracting"
	// StatusSaving means the merged result is being persisted.
	StatusSaving Status = "saving"
	// StatusCompleted is the successful terminal state.
	StatusCompleted Status = "completed"
	// StatusFailed is the failure terminal state, reachable from any
	// non-terminal state.
	StatusFailed Status = "failed"
)

// ReadingStatus returns the per-reader pipeline state for an identity.
func ReadingStatus(identity string) Status {
	return Status("reading_" + identity)
}

// Terminal reports whether the status is completed or failed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TaskRecord is the polling-visible state of one ingestion task.
//
// DocumentID is set exactly when Status is completed; Error is set exactly
// when Status is failed; CompletedAt is set exactly when Status is
// terminal. Once terminal a record never changes again.
type TaskRecord struct {
	TaskID          string
	Status          Status
	ProgressMessage string
	DocumentID      string
	Error           string
	StartedAt       time.Time
	CompletedAt     *time.Time
}
