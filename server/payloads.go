package server

import (
	"time"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/ingest"
	"github.com/poiesic/docshelf/storage"
)

// taskPayload is the polling-visible task state.
type taskPayload struct {
	TaskID          string     `json:"task_id"`
	Status          string     `json:"status"`
	ProgressMessage string     `json:"progress_message,omitempty"`
	DocumentID      string     `json:"document_id,omitempty"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func toTaskPayload(record ingest.TaskRecord) taskPayload {
	return taskPayload{
		TaskID:          record.TaskID,
		Status:          string(record.Status),
		ProgressMessage: record.ProgressMessage,
		DocumentID:      record.DocumentID,
		Error:           record.Error,
		StartedAt:       record.StartedAt,
		CompletedAt:     record.CompletedAt,
	}
}

// readingPayload mirrors the stored bilingual reading fields.
type readingPayload struct {
	TitleGuess            string   `json:"title_guess,omitempty"`
	AuthorGuess           string   `json:"author_guess,omitempty"`
	DocumentType          string   `json:"document_type,omitempty"`
	Summary               string   `json:"summary,omitempty"`
	SummaryJA             string   `json:"summary_ja,omitempty"`
	KeyPoints             []string `json:"key_points,omitempty"`
	KeyPointsJA           []string `json:"key_points_ja,omitempty"`
	KeywordExplanations   []string `json:"keyword_explanations,omitempty"`
	KeywordExplanationsJA []string `json:"keyword_explanations_ja,omitempty"`
	Tags                  []string `json:"tags,omitempty"`
	ConfidenceNotes       string   `json:"confidence_notes,omitempty"`
}

func toReadingPayload(r core.Reading) readingPayload {
	return readingPayload{
		TitleGuess:            r.TitleGuess,
		AuthorGuess:           r.AuthorGuess,
		DocumentType:          r.DocumentType,
		Summary:               r.Summary,
		SummaryJA:             r.SummaryJA,
		KeyPoints:             r.KeyPoints,
		KeyPointsJA:           r.KeyPointsJA,
		KeywordExplanations:   r.KeywordExplanations,
		KeywordExplanationsJA: r.KeywordExplanationsJA,
		Tags:                  r.Tags,
		ConfidenceNotes:       r.ConfidenceNotes,
	}
}

// toResolvedReadingPayload collapses the bilingual fields to one language,
// using the cross-language fallback when the preferred variant is empty. The
// _ja fields stay empty so the client sees a single-language view.
func toResolvedReadingPayload(r core.Reading, lang core.Language) readingPayload {
	return readingPayload{
		TitleGuess:          r.TitleGuess,
		AuthorGuess:         r.AuthorGuess,
		DocumentType:        r.DocumentType,
		Summary:             r.SummaryIn(lang),
		KeyPoints:           r.KeyPointsIn(lang),
		KeywordExplanations: r.KeywordExplanationsIn(lang),
		Tags:                r.Tags,
		ConfidenceNotes:     r.ConfidenceNotes,
	}
}

// documentPayload is a document record without readings, used in listings.
type documentPayload struct {
	DocumentID   string    `json:"document_id"`
	Title        string    `json:"title"`
	Kind         string    `json:"source_type"`
	Author       string    `json:"author,omitempty"`
	Subject      string    `json:"subject,omitempty"`
	Creator      string    `json:"creator,omitempty"`
	CreationDate string    `json:"creation_date,omitempty"`
	SourceName   string    `json:"source_name"`
	SourceHash   string    `json:"source_hash,omitempty"`
	PageCount    int       `json:"page_count"`
	CharCount    int       `json:"char_count"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Tags         []string  `json:"tags,omitempty"`
	ReadersUsed  []string  `json:"readers_used,omitempty"`
	Shelves      []string  `json:"shelves,omitempty"`
}

// documentDetailPayload adds the readings to a document record.
type documentDetailPayload struct {
	documentPayload
	Readings map[string]readingPayload `json:"readings,omitempty"`
}

func toDocumentPayload(doc *core.Document) documentPayload {
	return documentPayload{
		DocumentID:   doc.ID,
		Title:        doc.Title,
		Kind:         string(doc.Kind),
		Author:       doc.Author,
		Subject:      doc.Subject,
		Creator:      doc.Creator,
		CreationDate: doc.CreationDate,
		SourceName:   doc.SourceName,
		SourceHash:   doc.SourceHash,
		PageCount:    doc.PageCount,
		CharCount:    doc.CharCount,
		UploadedAt:   doc.UploadedAt,
		UpdatedAt:    doc.UpdatedAt,
		Tags:         doc.Tags,
		ReadersUsed:  doc.ReadersUsed,
		Shelves:      doc.Shelves,
	}
}

func toDocumentDetailPayload(doc *core.Document) documentDetailPayload {
	detail := documentDetailPayload{documentPayload: toDocumentPayload(doc)}
	if len(doc.Readings) > 0 {
		detail.Readings = make(map[string]readingPayload, len(doc.Readings))
		for identity, reading := range doc.Readings {
			detail.Readings[identity] = toReadingPayload(reading)
		}
	}
	return detail
}

func toDocumentDetailPayloadIn(doc *core.Document, lang core.Language) documentDetailPayload {
	detail := documentDetailPayload{documentPayload: toDocumentPayload(doc)}
	if len(doc.Readings) > 0 {
		detail.Readings = make(map[string]readingPayload, len(doc.Readings))
		for identity, reading := range doc.Readings {
			detail.Readings[identity] = toResolvedReadingPayload(reading, lang)
		}
	}
	return detail
}

// shelfPayload is a shelf with listing metadata.
type shelfPayload struct {
	ShelfID       string    `json:"shelf_id"`
	Name          string    `json:"name"`
	NameJA        string    `json:"name_ja,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	DocumentCount int       `json:"document_count"`
	IsVirtual     bool      `json:"is_virtual,omitempty"`
}

func toShelfPayload(shelf *core.Shelf) shelfPayload {
	return shelfPayload{
		ShelfID:   shelf.ID,
		Name:      shelf.Name,
		NameJA:    shelf.NameJA,
		CreatedAt: shelf.CreatedAt,
	}
}

func toShelfInfoPayload(info *storage.ShelfInfo) shelfPayload {
	payload := toShelfPayload(&info.Shelf)
	payload.DocumentCount = info.DocumentCount
	payload.IsVirtual = info.IsVirtual
	return payload
}
