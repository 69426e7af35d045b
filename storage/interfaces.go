package storage

import (
	"context"

	"github.com/poiesic/docshelf/core"
)

// SaveRequest carries everything needed to persist one finished document:
// the extraction output, the raw source bytes to archive, whichever
// readings succeeded, and the shelf memberships requested at submission.
type SaveRequest struct {
	Extracted  *core.ExtractedDocument
	SourceName string
	Source     []byte
	// Readings holds the successful readings keyed by reader identity.
	// Failed readers simply have no entry.
	Readings map[string]core.Reading
	// ReaderOrder fixes the identity order used for tag merging and the
	// ReadersUsed listing.
	ReaderOrder []string
	ShelfIDs    []string
}

// DocumentWriter persists finished documents. This is the boundary the
// ingestion pipeline depends on.
type DocumentWriter interface {
	// SaveDocument persists the document and returns its generated ID.
	// The ID is a slug of the document title; collisions get a numeric
	// suffix. Unknown shelf IDs in the request are rejected.
	SaveDocument(ctx context.Context, req *SaveRequest) (string, error)
}

// DocumentRepository provides operations for managing library documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	DocumentWriter

	// GetDocument retrieves a document record by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// GetDocumentText retrieves the full extracted text of a document.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocumentText(ctx context.Context, id string) (string, error)

	// GetDocumentSource retrieves the archived source file bytes.
	// Returns ErrNotFound if the document or its archive doesn't exist.
	GetDocumentSource(ctx context.Context, id string) ([]byte, error)

	// ListDocuments returns all document records.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes the document record, its text and its
	// archived source. Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id string) error

	// UpdateDocumentReading stores or replaces one reader's reading on a
	// document, refreshing merged tags and the readers-used listing.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocumentReading(ctx context.Context, id, identity string, reading core.Reading) error

	// SetDocumentShelves replaces a document's shelf memberships.
	// Unknown shelf IDs are rejected; the virtual Unsorted ID is filtered.
	SetDocumentShelves(ctx context.Context, id string, shelfIDs []string) error

	// AddDocumentToShelf adds a single membership, idempotently.
	AddDocumentToShelf(ctx context.Context, id, shelfID string) error

	// RemoveDocumentFromShelf removes a single membership if present.
	RemoveDocumentFromShelf(ctx context.Context, id, shelfID string) error

	// Close releases repository resources.
	Close() error
}

// ShelfInfo is a shelf plus listing metadata.
type ShelfInfo struct {
	core.Shelf
	DocumentCount int
	IsVirtual     bool
}

// ShelfRepository provides operations for managing shelves.
type ShelfRepository interface {
	// CreateShelf creates a shelf named name (nameJA optional). The shelf
	// ID is a slug of the name. Returns ErrShelfExists on collision.
	CreateShelf(ctx context.Context, name, nameJA string) (*core.Shelf, error)

	// GetShelf retrieves a shelf by ID. The virtual Unsorted shelf is
	// resolvable. Returns ErrNotFound for unknown IDs.
	GetShelf(ctx context.Context, id string) (*core.Shelf, error)

	// ListShelves returns all shelves with document counts, the virtual
	// Unsorted shelf first.
	ListShelves(ctx context.Context) ([]*ShelfInfo, error)

	// RenameShelf renames a shelf, re-deriving its ID from the new name
	// and migrating document memberships to the new ID. A nil nameJA
	// leaves the Japanese name unchanged.
	RenameShelf(ctx context.Context, id, name string, nameJA *string) (*core.Shelf, error)

	// DeleteShelf removes a shelf and strips its memberships from all
	// documents. The virtual Unsorted shelf cannot be deleted.
	DeleteShelf(ctx context.Context, id string) error

	// Close releases repository resources.
	Close() error
}
