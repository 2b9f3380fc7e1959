// Package gormdb provides a GORM implementation of the backend contract.
// Mutations run in a session-scoped transaction that is rolled back and
// reclassified before any error crosses the adapter boundary.
package gormdb

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/artpar/crudgate/adapters/sqldb"
	"github.com/artpar/crudgate/domain/query"
	"github.com/artpar/crudgate/domain/resource"
	"github.com/artpar/crudgate/domain/storage"
	"github.com/artpar/crudgate/ports"
)

// Open creates a GORM SQLite handle. GORM's own logger is discarded;
// request logging happens at the route layer with an injected logger.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Store implements ports.Backend with GORM for one resource.
type Store struct {
	db     *gorm.DB
	schema resource.Schema
	ids    ports.IDGenerator
	table  string
}

// NewStore creates a GORM store for the schema. The table name is the
// resource name, matching the sqldb adapter so either can serve the same
// database file.
func NewStore(db *gorm.DB, schema resource.Schema, ids ports.IDGenerator) (*Store, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Store{db: db, schema: schema, ids: ids, table: schema.Name}, nil
}

// EnsureTable creates the resource table when it does not exist yet.
func (s *Store) EnsureTable(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec(sqldb.CreateTableSQL(s.schema)).Error; err != nil {
		return fmt.Errorf("ensure table %s: %w", s.table, err)
	}
	return nil
}

// List returns the filtered records ordered by primary key ascending, with
// the offset/limit window applied. An empty result is not-found.
func (s *Store) List(ctx context.Context, filters query.Filters, page query.Page) ([]resource.Record, error) {
	tdb := s.db.WithContext(ctx).Table(s.table)
	if len(filters) > 0 {
		tdb = tdb.Where(map[string]any(filters))
	}
	var rows []map[string]any
	err := tdb.Order(s.schema.PrimaryKey + " ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, sqldb.Classify("list", err)
	}
	if len(rows) == 0 {
		return nil, storage.NotFound("no matching records found")
	}
	out := make([]resource.Record, len(rows))
	for i, row := range rows {
		out[i] = s.normalize(row)
	}
	return out, nil
}

// Get retrieves one record by primary key.
func (s *Store) Get(ctx context.Context, id any) (resource.Record, error) {
	return s.take(s.db.WithContext(ctx), id)
}

// Create inserts a new record. A missing string primary key is generated
// here; a missing integer primary key is assigned by the database. The row
// is re-read before the commit is classified so storage-side defaults are
// reflected.
func (s *Store) Create(ctx context.Context, payload resource.Record) (resource.Record, error) {
	rec := payload.Clone()
	pk := s.schema.PrimaryKeyField()

	id, hasID := rec[pk.Name]
	if !hasID || id == nil {
		if pk.Type == resource.TypeString {
			id = s.ids.New()
			rec[pk.Name] = id
			hasID = true
		} else {
			delete(rec, pk.Name)
			hasID = false
		}
	}

	row := make(map[string]any)
	for _, f := range s.schema.Fields {
		if v, ok := rec[f.Name]; ok {
			row[f.Name] = v
		}
	}
	if len(row) == 0 {
		return nil, storage.NewError(storage.KindBadInput, "empty payload")
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, storage.Wrap(storage.KindInternal, "begin transaction", tx.Error)
	}
	defer tx.Rollback()

	if err := tx.Table(s.table).Create(row).Error; err != nil {
		return nil, sqldb.Classify("create", err)
	}
	if !hasID {
		var n int64
		if err := tx.Raw("SELECT last_insert_rowid()").Scan(&n).Error; err != nil {
			return nil, storage.Wrap(storage.KindInternal, "assigned key", err)
		}
		id = n
	}

	created, err := s.take(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, sqldb.Classify("create", err)
	}
	return created, nil
}

// Update applies the fields present in payload to an existing record. The
// existence check runs first inside the transaction; the primary key never
// moves.
func (s *Store) Update(ctx context.Context, id any, payload resource.Record) (resource.Record, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, storage.Wrap(storage.KindInternal, "begin transaction", tx.Error)
	}
	defer tx.Rollback()

	if _, err := s.take(tx, id); err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	for _, f := range s.schema.Fields {
		if f.Name == s.schema.PrimaryKey {
			continue
		}
		if v, ok := payload[f.Name]; ok {
			changes[f.Name] = v
		}
	}
	if len(changes) > 0 {
		err := tx.Table(s.table).
			Where(map[string]any{s.schema.PrimaryKey: id}).
			Updates(changes).Error
		if err != nil {
			return nil, sqldb.Classify("update", err)
		}
	}

	updated, err := s.take(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, sqldb.Classify("update", err)
	}
	return updated, nil
}

// DeleteOne removes one record by primary key.
func (s *Store) DeleteOne(ctx context.Context, id any) error {
	res := s.db.WithContext(ctx).Table(s.table).
		Where(map[string]any{s.schema.PrimaryKey: id}).
		Delete(nil)
	if res.Error != nil {
		return sqldb.Classify("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.NotFound("item not found")
	}
	return nil
}

// DeleteAll removes every record of the resource. Deleting an already-empty
// table succeeds.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("DELETE FROM " + s.table).Error; err != nil {
		return sqldb.Classify("delete all", err)
	}
	return nil
}

// take reads one row by primary key through the given handle (session or
// transaction).
func (s *Store) take(db *gorm.DB, id any) (resource.Record, error) {
	var row map[string]any
	err := db.Table(s.table).
		Where(map[string]any{s.schema.PrimaryKey: id}).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.NotFound("item not found")
	}
	if err != nil {
		return nil, sqldb.Classify("get", err)
	}
	return s.normalize(row), nil
}

// normalize coerces driver-native values back to the schema's primitive
// representation so records look identical across backends.
func (s *Store) normalize(row map[string]any) resource.Record {
	rec := make(resource.Record, len(s.schema.Fields))
	for _, f := range s.schema.Fields {
		v, ok := row[f.Name]
		if !ok || v == nil {
			rec[f.Name] = nil
			continue
		}
		if cv, err := f.Coerce(v); err == nil {
			rec[f.Name] = cv
		} else {
			rec[f.Name] = v
		}
	}
	return rec
}

var _ ports.Backend = (*Store)(nil)
