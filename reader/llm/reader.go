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


package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/reader"
)

const parseAttempts = 3

// Reader implements reader.Reader over an OpenAI-compatible chat API.
type Reader struct {
	client       llms.Model
	identity     string
	maxTextChars int
	logger       *slog.Logger
}

var _ reader.Reader = (*Reader)(nil)

// reading is the wire structure the model is asked to produce.
type reading struct {
	TitleGuess            string   `json:"title_guess"`
	AuthorGuess           string   `json:"author_guess"`
	DocumentType          string   `json:"document_type"`
	Summary               string   `json:"summary"`
	SummaryJA             string   `json:"summary_ja"`
	KeyPoints             []string `json:"key_points"`
	KeyPointsJA           []string `json:"key_points_ja"`
	KeywordExplanations   []string `json:"keyword_explanations"`
	KeywordExplanationsJA []string `json:"keyword_explanations_ja"`
	Tags                  []string `json:"tags"`
	ConfidenceNotes       string   `json:"confidence_notes"`
}

// newReader is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newReader(cfg *reader.Config, id reader.Identity) (*Reader, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.HostFor(id)),
		openai.WithToken("none"),
		openai.WithModel(id.Model),
	)
	if err != nil {
		return nil, err
	}

	return &Reader{
		client:       client,
		identity:     id.Name,
		maxTextChars: cfg.MaxTextChars,
		logger:       slog.Default().With("component", "llm-reader", "identity", id.Name),
	}, nil
}

// NewReader creates a reader for a single identity using the provided
// configuration.
//
// Returns reader.Reader interface to enforce abstraction.
func NewReader(cfg *reader.Config, id reader.Identity) (reader.Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newReader(cfg, id)
}

// Read sends the document to the model and parses its JSON reading.
// Malformed JSON is repaired and re-requested up to three times.
func (r *Reader) Read(ctx context.Context, doc *core.ExtractedDocument) (*core.Reading, error) {
	text := truncateText(doc.Text, r.maxTextChars)
	if len(text) < len(doc.Text) {
		r.logger.Warn("document text exceeds limit, truncating",
			"chars", len(doc.Text), "limit", r.maxTextChars)
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildUserPrompt(doc.Title, doc.Author, doc.Subject, text))},
		},
	}

	var parsed reading
	var lastErr error
	for attempt := 0; attempt < parseAttempts; attempt++ {
		response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			return nil, fmt.Errorf("reader %s: %w", r.identity, err)
		}

		if len(response.Choices) < 1 {
			return nil, fmt.Errorf("reader %s: %w", r.identity, reader.ErrEmptyResponse)
		}

		responseText := stripFences(response.Choices[0].Content)

		err = json.Unmarshal([]byte(responseText), &parsed)
		if err != nil {
			// Only touch the payload once it has already failed to parse.
			err = json.Unmarshal([]byte(repairJSON(responseText)), &parsed)
		}
		if err != nil {
			lastErr = err
			r.logger.Warn("error parsing reading response",
				"attempt", attempt+1,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, fmt.Errorf("reader %s: %w: %w", r.identity, reader.ErrMalformedResponse, lastErr)
	}
	if parsed.Summary == "" && parsed.SummaryJA == "" {
		return nil, fmt.Errorf("reader %s: %w: no summary in either language", r.identity, reader.ErrMalformedResponse)
	}

	return &core.Reading{
		TitleGuess:            parsed.TitleGuess,
		AuthorGuess:           parsed.AuthorGuess,
		DocumentType:          parsed.DocumentType,
		Summary:               parsed.Summary,
		SummaryJA:             parsed.SummaryJA,
		KeyPoints:             parsed.KeyPoints,
		KeyPointsJA:           parsed.KeyPointsJA,
		KeywordExplanations:   parsed.KeywordExplanations,
		KeywordExplanationsJA: parsed.KeywordExplanationsJA,
		Tags:                  parsed.Tags,
		ConfidenceNotes:       parsed.ConfidenceNotes,
	}, nil
}

// stripFences removes markdown code fences around a JSON payload.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
