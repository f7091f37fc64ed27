package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/timetowish/timetowish-server/internal/errors"
)

// Entity provides generic CRUD operations for any domain type.
// Values are stored as JSON under prefix+id; secondary indexes live under
// prefix+"idx:"+name+":"+value keys in the same keyspace.
type Entity[T any] struct {
	store         *Store
	prefix        string
	uniqueIndexes []uniqueIndex[T]
	multiIndexes  []multiIndex[T]
}

// uniqueIndex maps one index value to exactly one entity ID.
// Creating a second entity with the same value fails with ErrAlreadyExists.
type uniqueIndex[T any] struct {
	name            string
	keyGen          func(*T) string
	lookupTransform func(string) string // optional normalization for lookups
}

// multiIndex maps one index value to any number of entity IDs by appending
// the ID to the index key.
type multiIndex[T any] struct {
	name   string
	keyGen func(*T) string
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// WithUniqueIndex adds a conflict-checked secondary index. The optional
// transform is applied to both stored values and lookups, enabling
// case-insensitive matching.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) string, transform func(string) string) *Entity[T] {
	e.uniqueIndexes = append(e.uniqueIndexes, uniqueIndex[T]{name: name, keyGen: keyGen, lookupTransform: transform})
	return e
}

// WithIndex adds a non-unique secondary index for one-to-many lookups
// (all collections of an owner, all birthdays in a collection).
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) string) *Entity[T] {
	e.multiIndexes = append(e.multiIndexes, multiIndex[T]{name: name, keyGen: keyGen})
	return e
}

func (e *Entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *Entity[T]) uniqueIndexKey(idx uniqueIndex[T], value string) []byte {
	if idx.lookupTransform != nil {
		value = idx.lookupTransform(value)
	}
	return []byte(e.prefix + "idx:" + idx.name + ":" + value)
}

func (e *Entity[T]) multiIndexKey(idx multiIndex[T], value, id string) []byte {
	return []byte(e.prefix + "idx:" + idx.name + ":" + value + ":" + id)
}

// Create creates a new entity with the given ID.
// Returns ErrAlreadyExists if the ID or a unique index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(e.key(id)); err == nil {
			return errors.ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check existing key: %w", err)
		}

		for _, idx := range e.uniqueIndexes {
			idxKey := e.uniqueIndexKey(idx, idx.keyGen(entity))
			if _, err := txn.Get(idxKey); err == nil {
				return errors.ErrAlreadyExists.WithDetails(idx.name)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check index key: %w", err)
			}
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return fmt.Errorf("set key: %w", err)
		}
		return e.writeIndexKeys(txn, id, entity)
	})
}

// Get retrieves an entity by ID.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get key: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entity)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetByUniqueIndex retrieves an entity by a unique secondary index value.
func (e *Entity[T]) GetByUniqueIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var idxKey []byte
	for _, idx := range e.uniqueIndexes {
		if idx.name == indexName {
			idxKey = e.uniqueIndexKey(idx, value)
			break
		}
	}
	if idxKey == nil {
		return nil, fmt.Errorf("unknown unique index %q", indexName)
	}

	var id string
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idxKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
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

// ListByIndex returns all entities whose index value matches.
// Results are in key order, which is ID order within one index value.
func (e *Entity[T]) ListByIndex(ctx context.Context, indexName, value string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := false
	for _, idx := range e.multiIndexes {
		if idx.name == indexName {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("unknown index %q", indexName)
	}

	prefix := []byte(e.prefix + "idx:" + indexName + ":" + value + ":")
	var ids []string
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, key[len(prefix):])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entities := make([]*T, 0, len(ids))
	for _, id := range ids {
		entity, err := e.Get(ctx, id)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				continue // deleted between iteration and fetch
			}
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// Update replaces an existing entity, rewriting its index keys.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		var old T
		item, err := txn.Get(e.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get existing key: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &old)
		}); err != nil {
			return fmt.Errorf("unmarshal old entity: %w", err)
		}

		// Rewrite unique indexes, checking conflicts on changed values.
		for _, idx := range e.uniqueIndexes {
			oldKey := e.uniqueIndexKey(idx, idx.keyGen(&old))
			newKey := e.uniqueIndexKey(idx, idx.keyGen(entity))
			if string(oldKey) == string(newKey) {
				continue
			}
			if _, err := txn.Get(newKey); err == nil {
				return errors.ErrAlreadyExists.WithDetails(idx.name)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check index key: %w", err)
			}
			if err := txn.Delete(oldKey); err != nil {
				return fmt.Errorf("delete old index key: %w", err)
			}
		}
		for _, idx := range e.multiIndexes {
			oldKey := e.multiIndexKey(idx, idx.keyGen(&old), id)
			newKey := e.multiIndexKey(idx, idx.keyGen(entity), id)
			if string(oldKey) == string(newKey) {
				continue
			}
			if err := txn.Delete(oldKey); err != nil {
				return fmt.Errorf("delete old index key: %w", err)
			}
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return fmt.Errorf("set key: %w", err)
		}
		return e.writeIndexKeys(txn, id, entity)
	})
}

// Delete deletes an entity by ID and cleans up its index keys.
// Idempotent - no error if the entity does not exist.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		var entity T
		item, err := txn.Get(e.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get key: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entity)
		}); err != nil {
			return fmt.Errorf("unmarshal entity: %w", err)
		}

		for _, idx := range e.uniqueIndexes {
			if err := txn.Delete(e.uniqueIndexKey(idx, idx.keyGen(&entity))); err != nil {
				return fmt.Errorf("delete index key: %w", err)
			}
		}
		for _, idx := range e.multiIndexes {
			if err := txn.Delete(e.multiIndexKey(idx, idx.keyGen(&entity), id)); err != nil {
				return fmt.Errorf("delete index key: %w", err)
			}
		}
		if err := txn.Delete(e.key(id)); err != nil {
			return fmt.Errorf("delete key: %w", err)
		}
		return nil
	})
}

// List returns an iterator over all entities under this prefix.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.store.db.View(func(txn *badger.Txn) error {
			prefix := []byte(e.prefix)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return err
				}

				// Skip index keys.
				key := string(it.Item().Key())
				if strings.HasPrefix(key[len(e.prefix):], "idx:") {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&entity, nil) {
					return nil // consumer stopped early
				}
			}
			return nil
		})
	}
}

// Count returns the number of entities under this prefix.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := e.store.db.View(func(txn *badger.Txn) error {
		prefix := []byte(e.prefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			if strings.HasPrefix(key[len(e.prefix):], "idx:") {
				continue
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// writeIndexKeys writes all index entries for the entity inside txn.
func (e *Entity[T]) writeIndexKeys(txn *badger.Txn, id string, entity *T) error {
	for _, idx := range e.uniqueIndexes {
		if err := txn.Set(e.uniqueIndexKey(idx, idx.keyGen(entity)), []byte(id)); err != nil {
			return fmt.Errorf("set index key: %w", err)
		}
	}
	for _, idx := range e.multiIndexes {
		if err := txn.Set(e.multiIndexKey(idx, idx.keyGen(entity), id), nil); err != nil {
			return fmt.Errorf("set index key: %w", err)
		}
	}
	return nil
}
