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


// Package ingest drives asynchronous document ingestion.
//
// A submitted file becomes a task that moves through a fixed pipeline:
//
//	pending -> extracting -> reading_<reader>... -> saving -> completed
//
// with failed reachable from any non-terminal state. Requested readers run
// concurrently, each bounded by a timeout; a reader failure is absorbed
// (the document is saved without that reading) while extraction and
// storage failures terminate the task. Clients observe progress by polling
// the task registry, which serves atomic snapshots of each record and
// never mutates a record after it reaches a terminal state.
package ingest
