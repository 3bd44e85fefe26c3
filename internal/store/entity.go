package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	domainerrors "github.com/kirjastoapp/kirjasto-server/internal/errors"
)

// Entity provides generic CRUD operations for any domain type.
//
// Key layout under the entity prefix:
//
//	<prefix><id>                      primary document (JSON)
//	<prefix>idx:<name>:<value>        unique index entry -> id
//	<prefix>ref:<name>:<value>:<id>   list index entry -> id
type Entity[T any] struct {
	store         *Store
	prefix        string
	uniqueIndexes []uniqueIndex[T]
	listIndexes   []listIndex[T]
}

// uniqueIndex enforces at most one entity per index value.
type uniqueIndex[T any] struct {
	name   string
	keyGen func(*T) string
}

// listIndex maps one index value to many entities.
type listIndex[T any] struct {
	name   string
	keyGen func(*T) string
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{
		store:  s,
		prefix: prefix,
	}
}

// WithUniqueIndex adds a unique secondary index to the entity.
// Creates conflicting on the index fail with a conflict error.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) string) *Entity[T] {
	e.uniqueIndexes = append(e.uniqueIndexes, uniqueIndex[T]{name: name, keyGen: keyGen})
	return e
}

// WithListIndex adds a non-unique secondary index to the entity.
func (e *Entity[T]) WithListIndex(name string, keyGen func(*T) string) *Entity[T] {
	e.listIndexes = append(e.listIndexes, listIndex[T]{name: name, keyGen: keyGen})
	return e
}

func (e *Entity[T]) uniqueKey(name, value string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value)
}

func (e *Entity[T]) listKey(name, value, id string) []byte {
	return []byte(e.prefix + "ref:" + name + ":" + value + ":" + id)
}

// Create creates a new entity with the given ID.
// Returns a conflict error if the ID or any unique index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := e.prefix + id

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		// Check if key already exists.
		_, err := txn.Get([]byte(key))
		if err == nil {
			return domainerrors.Conflict("entity already exists")
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		// Check for unique index conflicts.
		for _, idx := range e.uniqueIndexes {
			idxKey := e.uniqueKey(idx.name, idx.keyGen(entity))
			_, err := txn.Get(idxKey)
			if err == nil {
				return domainerrors.Conflict(fmt.Sprintf("%s must be unique", idx.name))
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}

		// Set the primary key.
		if err := txn.Set([]byte(key), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}

		// Set index keys.
		for _, idx := range e.uniqueIndexes {
			if err := txn.Set(e.uniqueKey(idx.name, idx.keyGen(entity)), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
		for _, idx := range e.listIndexes {
			if err := txn.Set(e.listKey(idx.name, idx.keyGen(entity), id), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}

		return nil
	})
}

// Get retrieves an entity by ID.
// Returns a not-found error if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := e.prefix + id
	var entity T

	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domainerrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get key: %w", err)
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entity); err != nil {
				return fmt.Errorf("failed to unmarshal entity: %w", err)
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return &entity, nil
}

// GetByIndex retrieves an entity by a unique secondary index.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var id string
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.uniqueKey(indexName, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domainerrors.ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return e.Get(ctx, id)
}

// Update updates an existing entity, maintaining its index entries.
// Returns a not-found error if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := e.prefix + id

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		// Get the old entity to clean up old index entries.
		var oldEntity T
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domainerrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get existing key: %w", err)
		}

		err = item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &oldEntity); err != nil {
				return fmt.Errorf("failed to unmarshal old entity: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		// Maintain unique indexes: drop the old entry, check and write the new one.
		for _, idx := range e.uniqueIndexes {
			oldValue := idx.keyGen(&oldEntity)
			newValue := idx.keyGen(entity)
			if oldValue == newValue {
				continue
			}

			if err := txn.Delete(e.uniqueKey(idx.name, oldValue)); err != nil {
				return fmt.Errorf("failed to delete old index key: %w", err)
			}
			_, err := txn.Get(e.uniqueKey(idx.name, newValue))
			if err == nil {
				return domainerrors.Conflict(fmt.Sprintf("%s must be unique", idx.name))
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
			if err := txn.Set(e.uniqueKey(idx.name, newValue), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}

		// Maintain list indexes.
		for _, idx := range e.listIndexes {
			oldValue := idx.keyGen(&oldEntity)
			newValue := idx.keyGen(entity)
			if oldValue == newValue {
				continue
			}

			if err := txn.Delete(e.listKey(idx.name, oldValue, id)); err != nil {
				return fmt.Errorf("failed to delete old index key: %w", err)
			}
			if err := txn.Set(e.listKey(idx.name, newValue, id), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}

		// Set the primary key.
		if err := txn.Set([]byte(key), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}

		return nil
	})
}

// List returns all entities under the prefix in key order.
func (e *Entity[T]) List(ctx context.Context) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entities []*T

	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			if e.isIndexKey(string(it.Item().Key())) {
				continue
			}

			var entity T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entity)
			})
			if err != nil {
				return err
			}

			entities = append(entities, &entity)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return entities, nil
}

// ListByIndexValues retrieves entities for many list-index values in one
// transaction, grouped by value. Values with no entities are absent from
// the result map.
func (e *Entity[T]) ListByIndexValues(ctx context.Context, indexName string, values []string) (map[string][]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grouped := make(map[string][]*T, len(values))

	err := e.store.db.View(func(txn *badger.Txn) error {
		for _, value := range values {
			refPrefix := []byte(e.prefix + "ref:" + indexName + ":" + value + ":")

			opts := badger.DefaultIteratorOptions
			opts.Prefix = refPrefix

			it := txn.NewIterator(opts)
			for it.Seek(refPrefix); it.ValidForPrefix(refPrefix); it.Next() {
				var id string
				err := it.Item().Value(func(val []byte) error {
					id = string(val)
					return nil
				})
				if err != nil {
					it.Close()
					return err
				}

				item, err := txn.Get([]byte(e.prefix + id))
				if err != nil {
					it.Close()
					return fmt.Errorf("dangling index entry for %s: %w", id, err)
				}

				var entity T
				err = item.Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					it.Close()
					return err
				}

				grouped[value] = append(grouped[value], &entity)
			}
			it.Close()
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return grouped, nil
}

// Count returns the number of entities under the prefix.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0

	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		opts.PrefetchValues = false // Key-only iteration

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
			if !e.isIndexKey(string(it.Item().Key())) {
				count++
			}
		}
		return nil
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}

// isIndexKey reports whether a full key under the prefix is an index entry.
func (e *Entity[T]) isIndexKey(key string) bool {
	remainder := key[len(e.prefix):]
	return strings.HasPrefix(remainder, "idx:") || strings.HasPrefix(remainder, "ref:")
}
