package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/storage"
)

// Field selects which part of a document a query matches against.
type Field string

const (
	FieldAll      Field = "all"
	FieldTitle    Field = "title"
	FieldAuthor   Field = "author"
	FieldSubject  Field = "subject"
	FieldTags     Field = "tags"
	FieldReaders  Field = "readers"
	FieldReadings Field = "readings"
	FieldText     Field = "text"
)

// SortKey orders search results.
type SortKey string

const (
	SortUploaded SortKey = "uploaded"
	SortTitle    SortKey = "title"
	SortPages    SortKey = "pages"
)

// Query describes one library search. An empty Term matches every
// document, which makes Query double as a filtered listing.
type Query struct {
	Term    string
	Field   Field
	ShelfID string
	Sort    SortKey
	Limit   int
}

// Searcher performs field-scoped substring search over stored documents.
type Searcher struct {
	documents storage.DocumentRepository
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(documents storage.DocumentRepository, opts ...Option) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	s := &Searcher{
		documents: documents,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs the query and returns matching documents in sort order.
func (s *Searcher) Search(ctx context.Context, q Query) ([]*core.Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	docs, err := s.documents.ListDocuments(ctx)
	if err != nil {
		s.logger.Error("error listing documents for search", "err", err)
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(q.Term))
	field := q.Field
	if field == "" {
		field = FieldAll
	}

	var results []*core.Document
	for _, doc := range docs {
		if !onShelf(doc, q.ShelfID) {
			continue
		}
		if term == "" {
			results = append(results, doc)
			continue
		}

		match, err := s.matches(ctx, doc, term, field)
		if err != nil {
			return nil, err
		}
		if match {
			results = append(results, doc)
		}
	}

	sortDocuments(results, q.Sort)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// matches reports whether doc contains term in the scoped field. Full text
// is checked last and fetched lazily since it lives under a separate key,
// so an "all" search only pays for it when every metadata field misses.
func (s *Searcher) matches(ctx context.Context, doc *core.Document, term string, field Field) (bool, error) {
	if field == FieldTitle || field == FieldAll {
		if containsFold(doc.Title, term) {
			return true, nil
		}
	}
	if field == FieldAuthor || field == FieldAll {
		if containsFold(doc.Author, term) {
			return true, nil
		}
	}
	if field == FieldSubject || field == FieldAll {
		if containsFold(doc.Subject, term) {
			return true, nil
		}
	}
	if field == FieldTags || field == FieldAll {
		for _, tag := range doc.Tags {
			if containsFold(tag, term) {
				return true, nil
			}
		}
	}
	if field == FieldReaders || field == FieldAll {
		for _, reader := range doc.ReadersUsed {
			if containsFold(reader, term) {
				return true, nil
			}
		}
	}
	if field == FieldReadings || field == FieldAll {
		for _, reading := range doc.Readings {
			if readingContains(&reading, term) {
				return true, nil
			}
		}
	}
	if field == FieldText || field == FieldAll {
		text, err := s.documents.GetDocumentText(ctx, doc.ID)
		if err != nil {
			s.logger.Warn("failed to load document text", "id", doc.ID, "err", err)
			return false, nil
		}
		return containsFold(text, term), nil
	}
	return false, nil
}

// readingContains checks a reading's textual fields, both languages.
func readingContains(r *core.Reading, term string) bool {
	for _, v := range []string{r.TitleGuess, r.AuthorGuess, r.DocumentType, r.Summary, r.SummaryJA, r.ConfidenceNotes} {
		if containsFold(v, term) {
			return true
		}
	}
	for _, list := range [][]string{r.KeyPoints, r.KeyPointsJA, r.KeywordExplanations, r.KeywordExplanationsJA, r.Tags} {
		for _, v := range list {
			if containsFold(v, term) {
				return true
			}
		}
	}
	return false
}

// onShelf filters by shelf membership. The virtual Unsorted ID selects
// documents with no memberships; an empty ID selects everything.
func onShelf(doc *core.Document, shelfID string) bool {
	switch shelfID {
	case "":
		return true
	case core.UnsortedShelfID:
		return len(doc.Shelves) == 0
	default:
		return slices.Contains(doc.Shelves, shelfID)
	}
}

func sortDocuments(docs []*core.Document, key SortKey) {
	switch key {
	case SortTitle:
		slices.SortStableFunc(docs, func(a, b *core.Document) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case SortPages:
		slices.SortStableFunc(docs, func(a, b *core.Document) int {
			return b.PageCount - a.PageCount
		})
	default:
		// ListDocuments already returns newest first.
	}
}

func validateQuery(q Query) error {
	switch q.Field {
	case "", FieldAll, FieldTitle, FieldAuthor, FieldSubject, FieldTags, FieldReaders, FieldReadings, FieldText:
	default:
		return ErrUnknownField
	}
	switch q.Sort {
	case "", SortUploaded, SortTitle, SortPages:
	default:
		return ErrUnknownSortKey
	}
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
