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


package core

import "errors"

// Domain validation errors
var (
	// ErrUnsupportedSourceKind indicates a file type other than PDF or EML.
	ErrUnsupportedSourceKind = errors.New("unsupported file type, only PDF and EML are accepted")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidShelf indicates a Shelf failed validation.
	ErrInvalidShelf = errors.New("invalid shelf")

	// ErrEmptyDocumentID indicates the document ID field is empty.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptyText indicates extracted text is empty.
	ErrEmptyText = errors.New("extracted text cannot be empty")

	// ErrEmptyShelfName indicates the shelf Name field is empty.
	ErrEmptyShelfName = errors.New("shelf name cannot be empty")

	// ErrReservedShelfID indicates an attempt to store the virtual shelf.
	ErrReservedShelfID = errors.New("shelf id is reserved")
)
