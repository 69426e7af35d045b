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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/docshelf/core"
)

// Hand-composed MUS serializers for the stored record types. Field order is
// the struct order; changing it is a breaking format change.

var (
	// DocumentMUS serializes core.Document records.
	DocumentMUS = documentSer{}
	// ReadingMUS serializes core.Reading values.
	ReadingMUS = readingSer{}
	// ShelfMUS serializes core.Shelf records.
	ShelfMUS = shelfSer{}

	stringSliceMUS = ord.NewSliceSer[string](ord.String)
	readingMapMUS  = ord.NewMapSer[string, core.Reading](ord.String, ReadingMUS)
	timeMUS        = timeSer{}
)

var (
	_ mus.Serializer[core.Document] = DocumentMUS
	_ mus.Serializer[core.Reading]  = ReadingMUS
	_ mus.Serializer[core.Shelf]    = ShelfMUS
)

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, DocumentMUS.Size(*doc))
	DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalShelf serializes a Shelf to bytes.
func MarshalShelf(shelf *core.Shelf) []byte {
	buf := make([]byte, ShelfMUS.Size(*shelf))
	ShelfMUS.Marshal(*shelf, buf)
	return buf
}

// UnmarshalShelf deserializes a Shelf from bytes.
func UnmarshalShelf(data []byte) (*core.Shelf, error) {
	shelf, _, err := ShelfMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &shelf, nil
}

// Empty collections decode as nil so round trips are stable.
func unmarshalStrings(bs []byte) ([]string, int, error) {
	v, n, err := stringSliceMUS.Unmarshal(bs)
	if len(v) == 0 {
		v = nil
	}
	return v, n, err
}

func unmarshalReadings(bs []byte) (map[string]core.Reading, int, error) {
	v, n, err := readingMapMUS.Unmarshal(bs)
	if len(v) == 0 {
		v = nil
	}
	return v, n, err
}

// timeSer stores timestamps as varint UnixMicro, UTC on the way out.
type timeSer struct{}

func (timeSer) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeSer) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func (timeSer) Skip(bs []byte) (int, error) {
	_, n, err := varint.Int64.Unmarshal(bs)
	return n, err
}

type readingSer struct{}

func (readingSer) Marshal(r core.Reading, bs []byte) (n int) {
	n = ord.String.Marshal(r.TitleGuess, bs)
	n += ord.String.Marshal(r.AuthorGuess, bs[n:])
	n += ord.String.Marshal(r.DocumentType, bs[n:])
	n += ord.String.Marshal(r.Summary, bs[n:])
	n += ord.String.Marshal(r.SummaryJA, bs[n:])
	n += stringSliceMUS.Marshal(r.KeyPoints, bs[n:])
	n += stringSliceMUS.Marshal(r.KeyPointsJA, bs[n:])
	n += stringSliceMUS.Marshal(r.KeywordExplanations, bs[n:])
	n += stringSliceMUS.Marshal(r.KeywordExplanationsJA, bs[n:])
	n += stringSliceMUS.Marshal(r.Tags, bs[n:])
	n += ord.String.Marshal(r.ConfidenceNotes, bs[n:])
	return n
}

func (readingSer) Unmarshal(bs []byte) (r core.Reading, n int, err error) {
	var n1 int
	if r.TitleGuess, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.AuthorGuess, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.DocumentType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Summary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.SummaryJA, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.KeyPoints, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.KeyPointsJA, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.KeywordExplanations, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.KeywordExplanationsJA, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Tags, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.ConfidenceNotes, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return r, n, nil
}

func (readingSer) Size(r core.Reading) (size int) {
	size = ord.String.Size(r.TitleGuess)
	size += ord.String.Size(r.AuthorGuess)
	size += ord.String.Size(r.DocumentType)
	size += ord.String.Size(r.Summary)
	size += ord.String.Size(r.SummaryJA)
	size += stringSliceMUS.Size(r.KeyPoints)
	size += stringSliceMUS.Size(r.KeyPointsJA)
	size += stringSliceMUS.Size(r.KeywordExplanations)
	size += stringSliceMUS.Size(r.KeywordExplanationsJA)
	size += stringSliceMUS.Size(r.Tags)
	size += ord.String.Size(r.ConfidenceNotes)
	return size
}

func (s readingSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type documentSer struct{}

func (documentSer) Marshal(d core.Document, bs []byte) (n int) {
	n = ord.String.Marshal(d.ID, bs)
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(string(d.Kind), bs[n:])
	n += ord.String.Marshal(d.Author, bs[n:])
	n += ord.String.Marshal(d.Subject, bs[n:])
	n += ord.String.Marshal(d.Creator, bs[n:])
	n += ord.String.Marshal(d.CreationDate, bs[n:])
	n += ord.String.Marshal(d.SourceName, bs[n:])
	n += ord.String.Marshal(d.SourceHash, bs[n:])
	n += varint.Int.Marshal(d.PageCount, bs[n:])
	n += varint.Int.Marshal(d.CharCount, bs[n:])
	n += timeMUS.Marshal(d.UploadedAt, bs[n:])
	n += timeMUS.Marshal(d.UpdatedAt, bs[n:])
	n += stringSliceMUS.Marshal(d.Tags, bs[n:])
	n += stringSliceMUS.Marshal(d.ReadersUsed, bs[n:])
	n += readingMapMUS.Marshal(d.Readings, bs[n:])
	n += stringSliceMUS.Marshal(d.Shelves, bs[n:])
	return n
}

func (documentSer) Unmarshal(bs []byte) (d core.Document, n int, err error) {
	var n1 int
	if d.ID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	var kind string
	if kind, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.Kind = core.SourceKind(kind)
	n += n1
	if d.Author, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Subject, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Creator, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.CreationDate, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.SourceName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.SourceHash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.PageCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.CharCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.UploadedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Tags, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ReadersUsed, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Readings, n1, err = unmarshalReadings(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Shelves, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	return d, n, nil
}

func (documentSer) Size(d core.Document) (size int) {
	size = ord.String.Size(d.ID)
	size += ord.String.Size(d.Title)
	size += ord.String.Size(string(d.Kind))
	size += ord.String.Size(d.Author)
	size += ord.String.Size(d.Subject)
	size += ord.String.Size(d.Creator)
	size += ord.String.Size(d.CreationDate)
	size += ord.String.Size(d.SourceName)
	size += ord.String.Size(d.SourceHash)
	size += varint.Int.Size(d.PageCount)
	size += varint.Int.Size(d.CharCount)
	size += timeMUS.Size(d.UploadedAt)
	size += timeMUS.Size(d.UpdatedAt)
	size += stringSliceMUS.Size(d.Tags)
	size += stringSliceMUS.Size(d.ReadersUsed)
	size += readingMapMUS.Size(d.Readings)
	size += stringSliceMUS.Size(d.Shelves)
	return size
}

func (s documentSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type shelfSer struct{}

func (shelfSer) Marshal(sh core.Shelf, bs []byte) (n int) {
	n = ord.String.Marshal(sh.ID, bs)
	n += ord.String.Marshal(sh.Name, bs[n:])
	n += ord.String.Marshal(sh.NameJA, bs[n:])
	n += timeMUS.Marshal(sh.CreatedAt, bs[n:])
	return n
}

func (shelfSer) Unmarshal(bs []byte) (sh core.Shelf, n int, err error) {
	var n1 int
	if sh.ID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return sh, n + n1, err
	}
	n += n1
	if sh.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return sh, n + n1, err
	}
	n += n1
	if sh.NameJA, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return sh, n + n1, err
	}
	n += n1
	if sh.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return sh, n + n1, err
	}
	n += n1
	return sh, n, nil
}

func (shelfSer) Size(sh core.Shelf) (size int) {
	size = ord.String.Size(sh.ID)
	size += ord.String.Size(sh.Name)
	size += ord.String.Size(sh.NameJA)
	size += timeMUS.Size(sh.CreatedAt)
	return size
}

func (s shelfSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
