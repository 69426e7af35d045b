package reader

import (
	"context"

	"github.com/poiesic/docshelf/core"
)

// Reader turns extracted document text into a structured Reading.
// Implementations must be thread-safe for concurrent use; a Read call is
// an out-of-process invocation with its own latency and failure mode.
type Reader interface {
	// Read analyzes the extracted document and returns a structured
	// reading (summary, key points, tags and so on).
	// Returns an error if the analysis fails or produces no usable result.
	Read(ctx context.Context, doc *core.ExtractedDocument) (*core.Reading, error)
}

// Provider aggregates the configured readers for convenient initialization
// and lifecycle management. Identities preserve configuration order, which
// is also the priority order used for progress reporting.
type Provider interface {
	// Reader returns the reader registered under the given identity.
	Reader(identity string) (Reader, bool)

	// Identities returns the known reader identities in configuration order.
	Identities() []string

	// Close releases resources held by the provider and its readers.
	Close() error
}
