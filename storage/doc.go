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


// Package storage provides the storage abstraction layer for docshelf.
//
// This package defines repository interfaces that decouple storage
// implementation from the ingestion pipeline and the query surface. It
// allows different storage backends (BadgerDB, in-memory, etc.) to be
// used interchangeably.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentWriter: the minimal boundary the ingestion pipeline needs
//   - DocumentRepository: full document CRUD plus shelf memberships
//   - ShelfRepository: shelf CRUD, including the virtual Unsorted shelf
//
// Document records, extracted text and archived source bytes are stored
// under separate keys so listings stay cheap.
//
// # Usage
//
// Create repositories backed by BadgerDB:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	docs := badger.NewDocumentStore(backend)
//	shelves := badger.NewShelfStore(backend)
//
// Use in tests with in-memory storage:
//
//	docs, shelves, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context. Pass
// context.Background() for operations without specific timeout
// requirements.
package storage
