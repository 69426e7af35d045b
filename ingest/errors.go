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

import "errors"

var (
	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrReaderProviderRequired is returned when a reader provider is not provided.
	ErrReaderProviderRequired = errors.New("reader provider required")

	// ErrStorageWriterRequired is returned when a storage writer is not provided.
	ErrStorageWriterRequired = errors.New("storage writer required")

	// ErrTaskNotFound is returned when polling an unknown task ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrEmptyFile is returned at submit time when no file bytes are given.
	ErrEmptyFile = errors.New("uploaded file is empty")

	// ErrUnknownReader is returned at submit time for an unconfigured
	// reader identity.
	ErrUnknownReader = errors.New("unknown reader identity")
)
