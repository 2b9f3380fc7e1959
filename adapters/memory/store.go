// Package memory provides an in-memory backend keyed by primary key.
//
// The store performs no internal locking: it relies on the host serializing
// access, and is unsafe for unserialized concurrent mutation of the same
// key. Use the SQL-backed adapters when the host dispatches requests
// concurrently.
package memory

import (
	"context"
	"sort"

	"github.com/artpar/crudgate/domain/query"
	"github.com/artpar/crudgate/domain/resource"
	"github.com/artpar/crudgate/domain/storage"
	"github.com/artpar/crudgate/ports"
)

// Store is an in-memory implementation of ports.Backend for one resource.
type Store struct {
	schema resource.Schema
	ids    ports.IDGenerator
	rows   map[any]resource.Record
	seq    int64 // highest integer primary key handed out or seen
}

// New creates an in-memory store for the schema. The schema is validated
// once here; a misconfigured schema never reaches request handling.
func New(schema resource.Schema, ids ports.IDGenerator) (*Store, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		schema: schema,
		ids:    ids,
		rows:   make(map[any]resource.Record),
	}, nil
}

// List returns the filtered records ordered by primary key ascending, with
// the offset/limit window applied. An empty result is not-found.
func (s *Store) List(ctx context.Context, filters query.Filters, page query.Page) ([]resource.Record, error) {
	var out []resource.Record
	for _, rec := range s.rows {
		if matches(rec, filters) {
			out = append(out, rec.Clone())
		}
	}
	pk := s.schema.PrimaryKey
	sort.Slice(out, func(i, j int) bool {
		return lessKey(out[i][pk], out[j][pk])
	})
	lo, hi := page.Window(len(out))
	out = out[lo:hi]
	if len(out) == 0 {
		return nil, storage.NotFound("no matching records found")
	}
	return out, nil
}

// Get retrieves one record by primary key.
func (s *Store) Get(ctx context.Context, id any) (resource.Record, error) {
	rec, ok := s.rows[id]
	if !ok {
		return nil, storage.NotFound("item not found")
	}
	return rec.Clone(), nil
}

// Create stores a new record, assigning a primary key when the payload does
// not carry one.
func (s *Store) Create(ctx context.Context, payload resource.Record) (resource.Record, error) {
	rec := payload.Clone()
	pkField := s.schema.PrimaryKeyField()

	id, ok := rec[pkField.Name]
	if !ok || id == nil {
		id = s.nextKey(pkField)
		rec[pkField.Name] = id
	} else {
		cid, err := pkField.Coerce(id)
		if err != nil {
			return nil, storage.Wrap(storage.KindBadInput, "invalid primary key", err)
		}
		id = cid
		rec[pkField.Name] = cid
		if n, isInt := cid.(int64); isInt && n > s.seq {
			s.seq = n
		}
	}

	if _, exists := s.rows[id]; exists {
		return nil, storage.Errf(storage.KindConflict, "duplicate primary key %v", id)
	}
	if err := s.checkUnique(rec, id); err != nil {
		return nil, err
	}

	// Unset non-required fields persist as explicit nulls.
	for _, f := range s.schema.Fields {
		if _, present := rec[f.Name]; !present {
			rec[f.Name] = nil
		}
	}

	s.rows[id] = rec
	return rec.Clone(), nil
}

// Update applies the fields present in payload to an existing record. The
// existence check happens strictly before any mutation, and the primary key
// is never moved.
func (s *Store) Update(ctx context.Context, id any, payload resource.Record) (resource.Record, error) {
	cur, ok := s.rows[id]
	if !ok {
		return nil, storage.NotFound("item not found")
	}
	next := cur.Merge(payload, s.schema.PrimaryKey)
	if err := s.checkUnique(next, id); err != nil {
		return nil, err
	}
	s.rows[id] = next
	return next.Clone(), nil
}

// DeleteOne removes one record by primary key.
func (s *Store) DeleteOne(ctx context.Context, id any) error {
	if _, ok := s.rows[id]; !ok {
		return storage.NotFound("item not found")
	}
	delete(s.rows, id)
	return nil
}

// DeleteAll removes every record. Deleting an already-empty collection
// succeeds.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.rows = make(map[any]resource.Record)
	return nil
}

// nextKey assigns a storage-side primary key: a monotonic sequence for
// integer keys, a generated ID for string keys.
func (s *Store) nextKey(pk resource.Field) any {
	if pk.Type == resource.TypeInt {
		s.seq++
		return s.seq
	}
	return s.ids.New()
}

// checkUnique enforces uniqueness constraints on fields beyond the primary
// key. The record with primary key self is excluded from the scan.
func (s *Store) checkUnique(rec resource.Record, self any) error {
	for _, f := range s.schema.Fields {
		if !f.Unique || f.Name == s.schema.PrimaryKey {
			continue
		}
		v, ok := rec[f.Name]
		if !ok || v == nil {
			continue
		}
		for id, other := range s.rows {
			if id == self {
				continue
			}
			if other[f.Name] == v {
				return storage.Errf(storage.KindConflict, "unique constraint failed: %s.%s", s.schema.Name, f.Name)
			}
		}
	}
	return nil
}

func matches(rec resource.Record, filters query.Filters) bool {
	for k, want := range filters {
		if rec[k] != want {
			return false
		}
	}
	return true
}

// lessKey orders primary keys of the two supported key types.
func lessKey(a, b any) bool {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		return ok && av < bv
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	}
	return false
}

var _ ports.Backend = (*Store)(nil)
