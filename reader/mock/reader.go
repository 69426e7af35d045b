package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/reader"
)

// MockReader is a test double for reader.Reader.
// It allows custom behavior injection via function fields.
type MockReader struct {
	// ReadFunc is called by Read if set. If nil, a deterministic reading
	// derived from the document text is returned.
	ReadFunc func(ctx context.Context, doc *core.ExtractedDocument) (*core.Reading, error)

	identity  string
	mu        sync.Mutex
	callCount int
}

var _ reader.Reader = (*MockReader)(nil)

// NewMockReader creates a mock reader for the given identity.
// Note: Returns concrete type to allow test assertions.
func NewMockReader(identity string) *MockReader {
	return &MockReader{identity: identity}
}

// Read returns a deterministic reading built from the first words of the
// document unless ReadFunc overrides the behavior.
func (m *MockReader) Read(ctx context.Context, doc *core.ExtractedDocument) (*core.Reading, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, doc)
	}

	words := strings.Fields(doc.Text)
	summary := "mock reading by " + m.identity
	if len(words) > 0 {
		limit := len(words)
		if limit > 8 {
			limit = 8
		}
		summary = strings.Join(words[:limit], " ")
	}

	return &core.Reading{
		TitleGuess:   doc.Title,
		AuthorGuess:  doc.Author,
		DocumentType: "other",
		Summary:      summary,
		KeyPoints:    []string{"mock key point"},
		Tags:         []string{"mock", m.identity},
	}, nil
}

// CallCount returns the number of times Read was called.
func (m *MockReader) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *MockReader) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ReadFunc = nil
}

// MockProvider is a test double for reader.Provider.
type MockProvider struct {
	readers    map[string]*MockReader
	identities []string
}

var _ reader.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider with one mock reader per identity, in
// the given priority order.
func NewMockProvider(identities ...string) *MockProvider {
	readers := make(map[string]*MockReader, len(identities))
	for _, id := range identities {
		readers[id] = NewMockReader(id)
	}
	return &MockProvider{readers: readers, identities: identities}
}

// Reader returns the mock reader for the given identity.
func (p *MockProvider) Reader(identity string) (reader.Reader, bool) {
	r, ok := p.readers[identity]
	return r, ok
}

// Identities returns the identities in priority order.
func (p *MockProvider) Identities() []string {
	return p.identities
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockReader returns the underlying mock reader for test assertions.
func (p *MockProvider) GetMockReader(identity string) *MockReader {
	return p.readers[identity]
}
