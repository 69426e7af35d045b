package core

import (
	"encoding/hex"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/go-crypt/x/blake2b"
)

// SourceKind identifies the format of an uploaded source file.
type SourceKind string

const (
	// SourceKindPDF represents a PDF document.
	SourceKindPDF SourceKind = "pdf"
	// SourceKindEML represents an RFC 5322 email file.
	SourceKindEML SourceKind = "eml"
)

// SourceKindFromName derives the source kind from a file name extension.
// Returns ErrUnsupportedSourceKind for anything other than .pdf or .eml.
func SourceKindFromName(name string) (SourceKind, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return SourceKindPDF, nil
	case ".eml":
		return SourceKindEML, nil
	default:
		return "", ErrUnsupportedSourceKind
	}
}

// Language selects which variant of a bilingual reading field is preferred.
type Language string

const (
	// LanguageEnglish is the primary language of reading output.
	LanguageEnglish Language = "en"
	// LanguageJapanese is the secondary language of reading output.
	LanguageJapanese Language = "ja"
)

// ExtractedDocument holds the plain text and structural metadata produced
// by an extractor from raw source bytes.
type ExtractedDocument struct {
	Kind         SourceKind
	Text         string
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	CreationDate string
	PageCount    int
	CharCount    int
}

// Reading is the structured result one reader produced for a document.
// Summary, key points and keyword explanations come in English and
// Japanese variants; either variant may be empty.
type Reading struct {
	TitleGuess            string
	AuthorGuess           string
	DocumentType          string
	Summary               string
	SummaryJA             string
	KeyPoints             []string
	KeyPointsJA           []string
	KeywordExplanations   []string
	KeywordExplanationsJA []string
	Tags                  []string
	ConfidenceNotes       string
}

// SummaryIn returns the summary in the requested language, falling back to
// the other language's variant when the requested one is empty.
func (r *Reading) SummaryIn(lang Language) string {
	return pickString(lang, r.Summary, r.SummaryJA)
}

// KeyPointsIn returns the key points in the requested language with
// per-field fallback to the other variant.
func (r *Reading) KeyPointsIn(lang Language) []string {
	return pickList(lang, r.KeyPoints, r.KeyPointsJA)
}

// KeywordExplanationsIn returns the keyword explanations in the requested
// language with per-field fallback to the other variant.
func (r *Reading) KeywordExplanationsIn(lang Language) []string {
	return pickList(lang, r.KeywordExplanations, r.KeywordExplanationsJA)
}

func pickString(lang Language, en, ja string) string {
	if lang == LanguageJapanese {
		if ja != "" {
			return ja
		}
		return en
	}
	if en != "" {
		return en
	}
	return ja
}

func pickList(lang Language, en, ja []string) []string {
	if lang == LanguageJapanese {
		if len(ja) > 0 {
			return ja
		}
		return en
	}
	if len(en) > 0 {
		return en
	}
	return ja
}

// Document is a persisted library entry. Text and archived source bytes
// are stored separately and fetched on demand.
type Document struct {
	ID           string
	Title        string
	Kind         SourceKind
	Author       string
	Subject      string
	Creator      string
	CreationDate string
	SourceName   string
	SourceHash   string
	PageCount    int
	CharCount    int
	UploadedAt   time.Time
	UpdatedAt    time.Time
	Tags         []string
	ReadersUsed  []string
	Readings     map[string]Reading
	Shelves      []string
}

// Reading returns the reading produced by the named reader, if present.
func (d *Document) Reading(reader string) (Reading, bool) {
	r, ok := d.Readings[reader]
	return r, ok
}

// Shelf is a named grouping of documents. NameJA is an optional
// Japanese display name.
type Shelf struct {
	ID        string
	Name      string
	NameJA    string
	CreatedAt time.Time
}

const (
	// UnsortedShelfID identifies the virtual shelf holding documents with
	// no shelf memberships. It is never stored.
	UnsortedShelfID = "__unsorted__"
	// UnsortedShelfName is the English display name of the virtual shelf.
	UnsortedShelfName = "Unsorted"
	// UnsortedShelfNameJA is the Japanese display name of the virtual shelf.
	UnsortedShelfNameJA = "未分類"
)

const maxSlugLen = 80

// SlugID creates a URL-safe identifier from a title or shelf name.
// Non-alphanumeric runes are dropped, whitespace and underscores become
// hyphens, and the result is lowercased and capped at 80 runes.
func SlugID(value string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphens
	for _, r := range strings.TrimSpace(value) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		case unicode.IsSpace(r) || r == '_' || r == '-':
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if runes := []rune(slug); len(runes) > maxSlugLen {
		slug = strings.TrimRight(string(runes[:maxSlugLen]), "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}

// HashContent computes a BLAKE2b-256 digest of the given bytes, hex encoded.
// Used to fingerprint archived source files.
func HashContent(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
