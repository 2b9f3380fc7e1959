package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/artpar/crudgate/domain/query"
	"github.com/artpar/crudgate/domain/resource"
	"github.com/artpar/crudgate/domain/storage"
	"github.com/artpar/crudgate/ports"
)

// Store implements ports.Backend over database/sql for one resource.
// Each operation issues one parameterized statement; mutations run inside a
// transaction whose commit is a distinct, classified step.
type Store struct {
	db     *DB
	schema resource.Schema
	ids    ports.IDGenerator
	table  string
	sb     sq.StatementBuilderType
}

// NewStore creates a SQL store for the schema. The table name is the
// resource name.
func NewStore(db *DB, schema resource.Schema, ids ports.IDGenerator) (*Store, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		schema: schema,
		ids:    ids,
		table:  schema.Name,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

// EnsureTable creates the resource table when it does not exist yet.
func (s *Store) EnsureTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, CreateTableSQL(s.schema)); err != nil {
		return fmt.Errorf("ensure table %s: %w", s.table, err)
	}
	return nil
}

// CreateTableSQL builds the DDL for a schema. An integer primary key is
// declared INTEGER PRIMARY KEY so SQLite assigns the next rowid when the
// insert omits it.
func CreateTableSQL(schema resource.Schema) string {
	cols := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		col := f.Name + " " + columnType(f.Type)
		if f.Name == schema.PrimaryKey {
			col += " PRIMARY KEY"
		} else {
			if f.Required {
				col += " NOT NULL"
			}
			if f.Unique {
				col += " UNIQUE"
			}
		}
		if f.Refs != "" {
			col += " REFERENCES " + refClause(f.Refs)
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", schema.Name, strings.Join(cols, ", "))
}

func columnType(t resource.Type) string {
	switch t {
	case resource.TypeInt:
		return "INTEGER"
	case resource.TypeFloat:
		return "REAL"
	case resource.TypeBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// refClause renders a "table.column" reference, or a bare table when no
// column is named.
func refClause(ref string) string {
	if table, col, ok := strings.Cut(ref, "."); ok {
		return table + "(" + col + ")"
	}
	return ref
}

// List returns the filtered records ordered by primary key ascending, with
// the offset/limit window applied. An empty result is not-found.
func (s *Store) List(ctx context.Context, filters query.Filters, page query.Page) ([]resource.Record, error) {
	b := s.sb.Select(s.columns()...).
		From(s.table).
		OrderBy(s.schema.PrimaryKey + " ASC").
		Offset(uint64(page.Skip)).
		Limit(uint64(page.Limit))
	if len(filters) > 0 {
		b = b.Where(sq.Eq(filters))
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, storage.Wrap(storage.KindInternal, "build query", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, Classify("list", err)
	}
	defer rows.Close()

	var out []resource.Record
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			return nil, storage.Wrap(storage.KindInternal, "scan row", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify("list", err)
	}
	if len(out) == 0 {
		return nil, storage.NotFound("no matching records found")
	}
	return out, nil
}

// Get retrieves one record by primary key.
func (s *Store) Get(ctx context.Context, id any) (resource.Record, error) {
	return s.getRow(ctx, s.db.DB, id)
}

// Create inserts a new record. A missing string primary key is generated
// here; a missing integer primary key is assigned by the database. The
// returned record is re-read inside the transaction so storage-side
// defaults are reflected, then the commit is classified.
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

	cols := make([]string, 0, len(rec))
	vals := make([]any, 0, len(rec))
	for _, f := range s.schema.Fields {
		if v, ok := rec[f.Name]; ok {
			cols = append(cols, f.Name)
			vals = append(vals, v)
		}
	}
	if len(cols) == 0 {
		return nil, storage.NewError(storage.KindBadInput, "empty payload")
	}
	sqlStr, args, err := s.sb.Insert(s.table).Columns(cols...).Values(vals...).ToSql()
	if err != nil {
		return nil, storage.Wrap(storage.KindInternal, "build insert", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storage.Wrap(storage.KindInternal, "begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, Classify("create", err)
	}
	if !hasID {
		n, err := res.LastInsertId()
		if err != nil {
			return nil, storage.Wrap(storage.KindInternal, "assigned key", err)
		}
		id = n
	}

	created, err := s.getRow(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, Classify("create", err)
	}
	return created, nil
}

// Update applies the fields present in payload to an existing record. The
// existence check runs first inside the transaction; the primary key is
// stripped from the payload and never moves.
func (s *Store) Update(ctx context.Context, id any, payload resource.Record) (resource.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storage.Wrap(storage.KindInternal, "begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := s.getRow(ctx, tx, id); err != nil {
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
		sqlStr, args, err := s.sb.Update(s.table).
			SetMap(changes).
			Where(sq.Eq{s.schema.PrimaryKey: id}).
			ToSql()
		if err != nil {
			return nil, storage.Wrap(storage.KindInternal, "build update", err)
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return nil, Classify("update", err)
		}
	}

	updated, err := s.getRow(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, Classify("update", err)
	}
	return updated, nil
}

// DeleteOne removes one record by primary key.
func (s *Store) DeleteOne(ctx context.Context, id any) error {
	sqlStr, args, err := s.sb.Delete(s.table).Where(sq.Eq{s.schema.PrimaryKey: id}).ToSql()
	if err != nil {
		return storage.Wrap(storage.KindInternal, "build delete", err)
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return Classify("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storage.Wrap(storage.KindInternal, "rows affected", err)
	}
	if n == 0 {
		return storage.NotFound("item not found")
	}
	return nil
}

// DeleteAll removes every record of the resource. Deleting an already-empty
// table succeeds.
func (s *Store) DeleteAll(ctx context.Context) error {
	sqlStr, args, err := s.sb.Delete(s.table).ToSql()
	if err != nil {
		return storage.Wrap(storage.KindInternal, "build delete", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return Classify("delete all", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getRow(ctx context.Context, q querier, id any) (resource.Record, error) {
	sqlStr, args, err := s.sb.Select(s.columns()...).
		From(s.table).
		Where(sq.Eq{s.schema.PrimaryKey: id}).
		ToSql()
	if err != nil {
		return nil, storage.Wrap(storage.KindInternal, "build query", err)
	}
	row := q.QueryRowContext(ctx, sqlStr, args...)
	rec, err := s.scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, storage.NotFound("item not found")
	}
	if err != nil {
		return nil, storage.Wrap(storage.KindInternal, "scan row", err)
	}
	return rec, nil
}

func (s *Store) columns() []string {
	cols := make([]string, len(s.schema.Fields))
	for i, f := range s.schema.Fields {
		cols[i] = f.Name
	}
	return cols
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row into a Record using nullable holders typed per
// the schema.
func (s *Store) scanRecord(row scanner) (resource.Record, error) {
	holders := make([]any, len(s.schema.Fields))
	for i, f := range s.schema.Fields {
		switch f.Type {
		case resource.TypeInt:
			holders[i] = new(sql.NullInt64)
		case resource.TypeFloat:
			holders[i] = new(sql.NullFloat64)
		case resource.TypeBool:
			holders[i] = new(sql.NullBool)
		default:
			holders[i] = new(sql.NullString)
		}
	}
	if err := row.Scan(holders...); err != nil {
		return nil, err
	}
	rec := make(resource.Record, len(holders))
	for i, f := range s.schema.Fields {
		switch h := holders[i].(type) {
		case *sql.NullInt64:
			if h.Valid {
				rec[f.Name] = h.Int64
			} else {
				rec[f.Name] = nil
			}
		case *sql.NullFloat64:
			if h.Valid {
				rec[f.Name] = h.Float64
			} else {
				rec[f.Name] = nil
			}
		case *sql.NullBool:
			if h.Valid {
				rec[f.Name] = h.Bool
			} else {
				rec[f.Name] = nil
			}
		case *sql.NullString:
			if h.Valid {
				rec[f.Name] = h.String
			} else {
				rec[f.Name] = nil
			}
		}
	}
	return rec, nil
}

var _ ports.Backend = (*Store)(nil)
