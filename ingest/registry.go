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
	"encoding/hex"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is the in-memory, process-lifetime table of task records.
// Every read returns a snapshot copy, so pollers never observe a record
// mid-update. Records are never evicted.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*TaskRecord
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*TaskRecord)}
}

// Create registers a new pending task and returns its identifier.
func (r *Registry) Create() string {
	u := uuid.New()
	taskID := hex.EncodeToString(u[:6])

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[taskID] = &TaskRecord{
		TaskID:          taskID,
		Status:          StatusPending,
		ProgressMessage: "Task queued",
		StartedAt:       time.Now().UTC(),
	}
	return taskID
}

// Get returns a snapshot of the task record, if it exists.
func (r *Registry) Get(taskID string) (TaskRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.tasks[taskID]
	if !ok {
		return TaskRecord{}, false
	}
	return *record, true
}

// Tasks returns snapshots of all task records, newest first.
func (r *Registry) Tasks() []TaskRecord {
	r.mu.Lock()
	records := make([]TaskRecord, 0, len(r.tasks))
	for _, record := range r.tasks {
		records = append(records, *record)
	}
	r.mu.Unlock()

	slices.SortFunc(records, func(a, b TaskRecord) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.TaskID, b.TaskID)
	})
	return records
}

// Advance atomically moves a task to a new non-terminal status with a fresh
// progress message. Terminal records are left untouched.
func (r *Registry) Advance(taskID string, status Status, message string) {
	r.update(taskID, func(record *TaskRecord) {
		record.Status = status
		record.ProgressMessage = message
	})
}

// Complete atomically marks a task completed and records its document ID.
func (r *Registry) Complete(taskID, documentID, message string) {
	r.update(taskID, func(record *TaskRecord) {
		now := time.Now().UTC()
		record.Status = StatusCompleted
		record.ProgressMessage = message
		record.DocumentID = documentID
		record.CompletedAt = &now
	})
}

// Fail atomically marks a task failed with a diagnostic message.
func (r *Registry) Fail(taskID, errMessage string) {
	r.update(taskID, func(record *TaskRecord) {
		now := time.Now().UTC()
		record.Status = StatusFailed
		record.ProgressMessage = "Task failed"
		record.Error = errMessage
		record.CompletedAt = &now
	})
}

// update applies fn to the record under the registry lock. Records in a
// terminal state are write-once and never mutated again.
func (r *Registry) update(taskID string, fn func(record *TaskRecord)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.tasks[taskID]
	if !ok || record.Status.Terminal() {
		return
	}
	fn(record)
}

