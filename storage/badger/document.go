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


package badger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/storage"
)

// DocumentStore implements storage.DocumentRepository for BadgerDB.
type DocumentStore struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentStore)(nil)

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(backend *Backend) *DocumentStore {
	return &DocumentStore{backend: backend}
}

// Close implements storage.DocumentRepository. The backend is shared and
// closed separately.
func (s *DocumentStore) Close() error {
	return nil
}

// SaveDocument persists the extraction output, readings, text and archived
// source bytes as one library entry and returns the generated document ID.
func (s *DocumentStore) SaveDocument(ctx context.Context, req *storage.SaveRequest) (string, error) {
	if req == nil || req.Extracted == nil {
		return "", fmt.Errorf("%w: missing extraction output", core.ErrInvalidDocument)
	}

	title := documentTitle(req.Extracted, req.SourceName)
	now := time.Now().UTC()

	var docID string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		id, err := resolveDocumentID(tx, core.SlugID(title))
		if err != nil {
			return err
		}

		shelfIDs, err := checkShelfIDs(tx, req.ShelfIDs)
		if err != nil {
			return err
		}

		metaTags := core.TagsFromMetadata(req.Extracted.Keywords, req.Extracted.Subject)
		readersUsed := readersWithReadings(req.ReaderOrder, req.Readings)

		doc := &core.Document{
			ID:           id,
			Title:        title,
			Kind:         req.Extracted.Kind,
			Author:       req.Extracted.Author,
			Subject:      req.Extracted.Subject,
			Creator:      req.Extracted.Creator,
			CreationDate: req.Extracted.CreationDate,
			SourceName:   req.SourceName,
			SourceHash:   core.HashContent(req.Source),
			PageCount:    req.Extracted.PageCount,
			CharCount:    req.Extracted.CharCount,
			UploadedAt:   now,
			UpdatedAt:    now,
			Tags:         core.MergeTags(metaTags, req.Readings, req.ReaderOrder),
			ReadersUsed:  readersUsed,
			Readings:     req.Readings,
			Shelves:      shelfIDs,
		}
		if err := core.ValidateDocument(doc); err != nil {
			return err
		}

		if err := tx.Set(makeDocumentKey(id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentTextKey(id), []byte(req.Extracted.Text)); err != nil {
			return err
		}
		if len(req.Source) > 0 {
			if err := tx.Set(makeDocumentSourceKey(id), req.Source); err != nil {
				return err
			}
		}

		docID = id
		return tx.Commit()
	}, true)

	return docID, err
}

// GetDocument retrieves a document record by ID.
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var result *core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentText retrieves the full extracted text of a document.
func (s *DocumentStore) GetDocumentText(ctx context.Context, id string) (string, error) {
	var text string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentTextKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			text = string(val)
			return nil
		})
	}, false)
	return text, err
}

// GetDocumentSource retrieves the archived source file bytes.
func (s *DocumentStore) GetDocumentSource(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentSourceKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	}, false)
	return data, err
}

// ListDocuments returns all document records, most recently uploaded first.
func (s *DocumentStore) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var results []*core.Document
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Document) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return results, nil
}

// DeleteDocument removes a document record, its text and archived source.
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(makeDocumentKey(id)); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentTextKey(id)); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentSourceKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpdateDocumentReading stores or replaces one reader's reading on a
// document and refreshes the derived tag and reader listings.
func (s *DocumentStore) UpdateDocumentReading(ctx context.Context, id, identity string, reading core.Reading) error {
	return s.updateDocument(id, func(tx *badger.Txn, doc *core.Document) error {
		if doc.Readings == nil {
			doc.Readings = make(map[string]core.Reading, 1)
		}
		doc.Readings[identity] = reading
		if !slices.Contains(doc.ReadersUsed, identity) {
			doc.ReadersUsed = append(doc.ReadersUsed, identity)
		}
		doc.Tags = core.MergeTags(doc.Tags,
			map[string]core.Reading{identity: reading}, []string{identity})
		return nil
	})
}

// SetDocumentShelves replaces a document's shelf memberships.
func (s *DocumentStore) SetDocumentShelves(ctx context.Context, id string, shelfIDs []string) error {
	return s.updateDocument(id, func(tx *badger.Txn, doc *core.Document) error {
		checked, err := checkShelfIDs(tx, shelfIDs)
		if err != nil {
			return err
		}
		doc.Shelves = checked
		return nil
	})
}

// AddDocumentToShelf adds a single shelf membership, idempotently.
func (s *DocumentStore) AddDocumentToShelf(ctx context.Context, id, shelfID string) error {
	return s.updateDocument(id, func(tx *badger.Txn, doc *core.Document) error {
		checked, err := checkShelfIDs(tx, []string{shelfID})
		if err != nil {
			return err
		}
		for _, sid := range checked {
			if !slices.Contains(doc.Shelves, sid) {
				doc.Shelves = append(doc.Shelves, sid)
			}
		}
		return nil
	})
}

// RemoveDocumentFromShelf removes a single shelf membership if present.
func (s *DocumentStore) RemoveDocumentFromShelf(ctx context.Context, id, shelfID string) error {
	return s.updateDocument(id, func(tx *badger.Txn, doc *core.Document) error {
		doc.Shelves = slices.DeleteFunc(doc.Shelves, func(sid string) bool {
			return sid == shelfID
		})
		if len(doc.Shelves) == 0 {
			doc.Shelves = nil
		}
		return nil
	})
}

// updateDocument reads a document, applies mutate and writes it back with a
// fresh UpdatedAt, all in one transaction.
func (s *DocumentStore) updateDocument(id string, mutate func(tx *badger.Txn, doc *core.Document) error) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if err := mutate(tx, doc); err != nil {
			return err
		}
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Helper functions

// readDocument reads a document record from the transaction.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// resolveDocumentID finds a free document ID, appending -2, -3 and so on
// when the slug is already taken.
func resolveDocumentID(tx *badger.Txn, base string) (string, error) {
	id := base
	for suffix := 2; ; suffix++ {
		_, err := tx.Get(makeDocumentKey(id))
		if err == badger.ErrKeyNotFound {
			return id, nil
		}
		if err != nil {
			return "", err
		}
		id = fmt.Sprintf("%s-%d", base, suffix)
	}
}

// checkShelfIDs validates that every requested shelf exists. The virtual
// Unsorted ID is dropped rather than stored.
func checkShelfIDs(tx *badger.Txn, shelfIDs []string) ([]string, error) {
	var checked []string
	for _, sid := range shelfIDs {
		if sid == core.UnsortedShelfID {
			continue
		}
		shelf, err := readShelf(tx, makeShelfKey(sid))
		if err != nil {
			return nil, err
		}
		if shelf == nil {
			return nil, fmt.Errorf("%w: shelf %q", storage.ErrNotFound, sid)
		}
		if !slices.Contains(checked, sid) {
			checked = append(checked, sid)
		}
	}
	return checked, nil
}

// readersWithReadings filters the configured reader order down to the
// identities that actually produced a reading.
func readersWithReadings(order []string, readings map[string]core.Reading) []string {
	var used []string
	for _, identity := range order {
		if _, ok := readings[identity]; ok {
			used = append(used, identity)
		}
	}
	return used
}

// documentTitle picks a display title: extracted metadata first, then the
// source file name without its extension, then a generic fallback.
func documentTitle(extracted *core.ExtractedDocument, sourceName string) string {
	if title := strings.TrimSpace(extracted.Title); title != "" {
		return title
	}
	stem := sourceName
	if i := strings.LastIndex(stem, "."); i > 0 {
		stem = stem[:i]
	}
	if stem = strings.TrimSpace(stem); stem != "" {
		return stem
	}
	return "Untitled Document"
}
