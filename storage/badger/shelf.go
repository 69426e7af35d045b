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

// ShelfStore implements storage.ShelfRepository for BadgerDB.
//
// The virtual Unsorted shelf is never stored; it is synthesized on read
// and counts the documents with no shelf memberships.
type ShelfStore struct {
	backend *Backend
}

var _ storage.ShelfRepository = (*ShelfStore)(nil)

// NewShelfStore creates a new ShelfStore.
func NewShelfStore(backend *Backend) *ShelfStore {
	return &ShelfStore{backend: backend}
}

// Close implements storage.ShelfRepository. The backend is shared and
// closed separately.
func (s *ShelfStore) Close() error {
	return nil
}

// CreateShelf creates a shelf whose ID is a slug of its name.
func (s *ShelfStore) CreateShelf(ctx context.Context, name, nameJA string) (*core.Shelf, error) {
	shelf := &core.Shelf{
		ID:        core.SlugID(name),
		Name:      strings.TrimSpace(name),
		NameJA:    strings.TrimSpace(nameJA),
		CreatedAt: time.Now().UTC(),
	}
	if err := core.ValidateShelf(shelf); err != nil {
		return nil, err
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeShelfKey(shelf.ID)
		existing, err := readShelf(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %q", storage.ErrShelfExists, shelf.ID)
		}
		if err := tx.Set(key, storage.MarshalShelf(shelf)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return shelf, nil
}

// GetShelf retrieves a shelf by ID. The virtual Unsorted shelf resolves to
// a synthetic record.
func (s *ShelfStore) GetShelf(ctx context.Context, id string) (*core.Shelf, error) {
	if id == core.UnsortedShelfID {
		return unsortedShelf(), nil
	}

	var result *core.Shelf
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readShelf(tx, makeShelfKey(id))
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

// ListShelves returns all shelves with document counts, the virtual
// Unsorted shelf first and the rest sorted by name.
func (s *ShelfStore) ListShelves(ctx context.Context) ([]*storage.ShelfInfo, error) {
	var shelves []*core.Shelf
	counts := map[string]int{}
	unsorted := 0

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(shelfRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var shelf *core.Shelf
			err := iter.Item().Value(func(val []byte) error {
				var err error
				shelf, err = storage.UnmarshalShelf(val)
				return err
			})
			if err != nil {
				return err
			}
			shelves = append(shelves, shelf)
		}

		var countErr error
		unsorted, counts, countErr = countMemberships(tx)
		return countErr
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(shelves, func(a, b *core.Shelf) int {
		return strings.Compare(a.Name, b.Name)
	})

	results := make([]*storage.ShelfInfo, 0, len(shelves)+1)
	results = append(results, &storage.ShelfInfo{
		Shelf:         *unsortedShelf(),
		DocumentCount: unsorted,
		IsVirtual:     true,
	})
	for _, shelf := range shelves {
		results = append(results, &storage.ShelfInfo{
			Shelf:         *shelf,
			DocumentCount: counts[shelf.ID],
		})
	}
	return results, nil
}

// RenameShelf renames a shelf. The ID is re-derived from the new name and
// document memberships are migrated when it changes.
func (s *ShelfStore) RenameShelf(ctx context.Context, id, name string, nameJA *string) (*core.Shelf, error) {
	if id == core.UnsortedShelfID {
		return nil, fmt.Errorf("%w: %q", storage.ErrProtectedShelf, id)
	}

	var renamed *core.Shelf
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		shelf, err := readShelf(tx, makeShelfKey(id))
		if err != nil {
			return err
		}
		if shelf == nil {
			return storage.ErrNotFound
		}

		shelf.Name = strings.TrimSpace(name)
		if nameJA != nil {
			shelf.NameJA = strings.TrimSpace(*nameJA)
		}
		newID := core.SlugID(shelf.Name)
		if err := core.ValidateShelf(shelf); err != nil {
			return err
		}

		if newID != id {
			existing, err := readShelf(tx, makeShelfKey(newID))
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: %q", storage.ErrShelfExists, newID)
			}
			shelf.ID = newID
			if err := migrateMemberships(tx, id, &newID); err != nil {
				return err
			}
			if err := tx.Delete(makeShelfKey(id)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeShelfKey(shelf.ID), storage.MarshalShelf(shelf)); err != nil {
			return err
		}
		renamed = shelf
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// DeleteShelf removes a shelf and strips its memberships from documents.
func (s *ShelfStore) DeleteShelf(ctx context.Context, id string) error {
	if id == core.UnsortedShelfID {
		return fmt.Errorf("%w: %q", storage.ErrProtectedShelf, id)
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeShelfKey(id)
		shelf, err := readShelf(tx, key)
		if err != nil {
			return err
		}
		if shelf == nil {
			return storage.ErrNotFound
		}

		if err := migrateMemberships(tx, id, nil); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Helper functions

// readShelf reads a shelf record from the transaction.
func readShelf(tx *badger.Txn, key []byte) (*core.Shelf, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var shelf *core.Shelf
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		shelf, unmarshalErr = storage.UnmarshalShelf(val)
		return unmarshalErr
	})
	return shelf, err
}

// unsortedShelf synthesizes the virtual Unsorted shelf record.
func unsortedShelf() *core.Shelf {
	return &core.Shelf{
		ID:     core.UnsortedShelfID,
		Name:   core.UnsortedShelfName,
		NameJA: core.UnsortedShelfNameJA,
	}
}

// countMemberships scans document records and tallies per-shelf document
// counts plus the number of unshelved documents.
func countMemberships(tx *badger.Txn) (unsorted int, counts map[string]int, err error) {
	counts = map[string]int{}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(documentRecordPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var doc *core.Document
		err = iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			doc, unmarshalErr = storage.UnmarshalDocument(val)
			return unmarshalErr
		})
		if err != nil {
			return 0, nil, err
		}
		if len(doc.Shelves) == 0 {
			unsorted++
			continue
		}
		for _, sid := range doc.Shelves {
			counts[sid]++
		}
	}
	return unsorted, counts, nil
}

// migrateMemberships rewrites document records holding oldID: to newID when
// newID is non-nil, otherwise the membership is dropped.
func migrateMemberships(tx *badger.Txn, oldID string, newID *string) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(documentRecordPrefix + ":")
	iter := tx.NewIterator(opts)

	var dirty []*core.Document
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var doc *core.Document
		err := iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			doc, unmarshalErr = storage.UnmarshalDocument(val)
			return unmarshalErr
		})
		if err != nil {
			iter.Close()
			return err
		}
		if !slices.Contains(doc.Shelves, oldID) {
			continue
		}

		doc.Shelves = slices.DeleteFunc(doc.Shelves, func(sid string) bool {
			return sid == oldID
		})
		if newID != nil && !slices.Contains(doc.Shelves, *newID) {
			doc.Shelves = append(doc.Shelves, *newID)
		}
		if len(doc.Shelves) == 0 {
			doc.Shelves = nil
		}
		doc.UpdatedAt = time.Now().UTC()
		dirty = append(dirty, doc)
	}
	iter.Close()

	// Writes happen after the iterator closes.
	for _, doc := range dirty {
		if err := tx.Set(makeDocumentKey(doc.ID), storage.MarshalDocument(doc)); err != nil {
			return err
		}
	}
	return nil
}
