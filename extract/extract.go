package extract

import (
	"context"
	"fmt"

	"github.com/poiesic/docshelf/core"
)

// Extractor turns raw source bytes into plain text plus structural metadata.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract parses the given bytes as the given source kind and returns
	// the extracted document. Returns an error if the bytes cannot be
	// parsed or contain no readable text.
	Extract(ctx context.Context, data []byte, kind core.SourceKind) (*core.ExtractedDocument, error)
}

// Dispatcher routes extraction to a per-kind extractor. The zero value is
// not usable; create one with NewDispatcher.
type Dispatcher struct {
	pdf *PDFExtractor
	eml *EMLExtractor
}

var _ Extractor = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher covering all supported source kinds.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		pdf: NewPDFExtractor(),
		eml: NewEMLExtractor(),
	}
}

// Extract delegates to the extractor matching the source kind.
func (d *Dispatcher) Extract(ctx context.Context, data []byte, kind core.SourceKind) (*core.ExtractedDocument, error) {
	switch kind {
	case core.SourceKindPDF:
		return d.pdf.Extract(ctx, data)
	case core.SourceKindEML:
		return d.eml.Extract(ctx, data)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedSourceKind, kind)
	}
}
