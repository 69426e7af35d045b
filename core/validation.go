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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Kind must be a known source kind
//
// NOT validated (populated by the pipeline):
//   - Readings (may be empty when no reader was requested or all failed)
//   - Tags, Shelves (may be empty)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentID)
	}

	if err := ValidateSourceKind(doc.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateShelf validates a Shelf according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - ID must not collide with the virtual Unsorted shelf
func ValidateShelf(shelf *Shelf) error {
	if shelf == nil {
		return fmt.Errorf("%w: shelf is nil", ErrInvalidShelf)
	}

	if shelf.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidShelf, ErrEmptyShelfName)
	}

	if shelf.ID == UnsortedShelfID {
		return fmt.Errorf("%w: %w", ErrInvalidShelf, ErrReservedShelfID)
	}

	return nil
}

// ValidateSourceKind validates that a SourceKind has a known value.
func ValidateSourceKind(kind SourceKind) error {
	if kind != SourceKindPDF && kind != SourceKindEML {
		return fmt.Errorf("%w: %q", ErrUnsupportedSourceKind, kind)
	}
	return nil
}
