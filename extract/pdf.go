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


package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/poiesic/docshelf/core"
)

// PDFExtractor extracts text and document-info metadata from PDF bytes.
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{
		logger: slog.Default().With("component", "pdf-extractor"),
	}
}

// Extract parses PDF bytes and returns text with page boundary markers plus
// the document-info dictionary fields.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (doc *core.ExtractedDocument, err error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrPDFParse, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPDFParse, err)
	}

	pageCount := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("skipping unreadable page", "page", i, "err", err)
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s", i, pageText)
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: the PDF may be image-only and require OCR", ErrNoText)
	}

	info := reader.Trailer().Key("Info")
	return &core.ExtractedDocument{
		Kind:         core.SourceKindPDF,
		Text:         text,
		Title:        infoString(info, "Title"),
		Author:       infoString(info, "Author"),
		Subject:      infoString(info, "Subject"),
		Keywords:     infoString(info, "Keywords"),
		Creator:      infoString(info, "Creator"),
		CreationDate: infoString(info, "CreationDate"),
		PageCount:    pageCount,
		CharCount:    len(text),
	}, nil
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.Text())
}
