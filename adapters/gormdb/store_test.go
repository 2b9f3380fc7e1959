package gormdb_test

import (
	"context"
	"os"
	"testing"

	"gorm.io/gorm"

	"github.com/artpar/crudgate/adapters/gormdb"
	"github.com/artpar/crudgate/adapters/idgen"
	"github.com/artpar/crudgate/domain/query"
	"github.com/artpar/crudgate/domain/resource"
	"github.com/artpar/crudgate/domain/storage"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	f, err := os.CreateTemp("", "crudgate-gorm-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := gormdb.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		os.Remove(path)
	})
	return db
}

func newPotatoStore(t *testing.T, db *gorm.DB) *gormdb.Store {
	t.Helper()
	schema := resource.Schema{
		Name:       "potato",
		PrimaryKey: "id",
		Fields: []resource.Field{
			{Name: "id", Type: resource.TypeInt},
			{Name: "color", Type: resource.TypeString, Required: true},
			{Name: "mass", Type: resource.TypeFloat},
		},
	}
	store, err := gormdb.NewStore(db, schema, idgen.UUID{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.EnsureTable(context.Background()); err != nil {
		t.Fatalf("ensure table: %v", err)
	}
	return store
}

func TestStore_CreateAndGet(t *testing.T) {
	store := newPotatoStore(t, setupTestDB(t))
	ctx := context.Background()

	rec, err := store.Create(ctx, resource.Record{"color": "red", "mass": 2.5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec["id"] != int64(1) {
		t.Errorf("assigned id = %v (%T), want 1", rec["id"], rec["id"])
	}

	got, err := store.Get(ctx, rec["id"])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["color"] != "red" {
		t.Errorf("color = %v, want red", got["color"])
	}
	if got["mass"] != 2.5 {
		t.Errorf("mass = %v (%T), want 2.5", got["mass"], got["mass"])
	}
}

func TestStore_Create_HonorsProvidedKey(t *testing.T) {
	store := newPotatoStore(t, setupTestDB(t))
	ctx := context.Background()

	rec, err := store.Create(ctx, resource.Record{"id": int64(42), "color": "blue"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec["id"] != int64(42) {
		t.Errorf("id = %v, want 42", rec["id"])
	}

	_, err = store.Create(ctx, resource.Record{"id": int64(42), "color": "white"})
	if kind := storage.KindOf(err); kind != storage.KindConflict {
		t.Fatalf("duplicate key: kind = %v, want conflict", kind)
	}
}

func TestStore_UniqueConstraintConflict(t *testing.T) {
	db := setupTestDB(t)
	schema := resource.Schema{
		Name:       "grower",
		PrimaryKey: "id",
		Fields: []resource.Field{
			{Name: "id", Type: resource.TypeInt},
			{Name: "name", Type: resource.TypeString, Required: true, Unique: true},
		},
	}
	store, err := gormdb.NewStore(db, schema, idgen.UUID{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := store.EnsureTable(ctx); err != nil {
		t.Fatalf("ensure table: %v", err)
	}

	if _, err := store.Create(ctx, resource.Record{"name": "a"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err = store.Create(ctx, resource.Record{"name": "a"})
	if kind := storage.KindOf(err); kind != storage.KindConflict {
		t.Fatalf("duplicate unique field: kind = %v, want conflict", kind)
	}
}

func TestStore_ForeignKeyUnprocessable(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	farms := resource.Schema{
		Name:       "farm",
		PrimaryKey: "id",
		Fields: []resource.Field{
			{Name: "id", Type: resource.TypeInt},
			{Name: "name", Type: resource.TypeString, Required: true},
		},
	}
	farmStore, err := gormdb.NewStore(db, farms, idgen.UUID{})
	if err != nil {
		t.Fatalf("new farm store: %v", err)
	}
	if err := farmStore.EnsureTable(ctx); err != nil {
		t.Fatalf("ensure farm table: %v", err)
	}

	crops := resource.Schema{
		Name:       "crop",
		PrimaryKey: "id",
		Fields: []resource.Field{
			{Name: "id", Type: resource.TypeInt},
			{Name: "farm_id", Type: resource.TypeInt, Required: true, Refs: "farm.id"},
		},
	}
	cropStore, err := gormdb.NewStore(db, crops, idgen.UUID{})
	if err != nil {
		t.Fatalf("new crop store: %v", err)
	}
	if err := cropStore.EnsureTable(ctx); err != nil {
		t.Fatalf("ensure crop table: %v", err)
	}

	_, err = cropStore.Create(ctx, resource.Record{"farm_id": int64(12345)})
	if kind := storage.KindOf(err); kind != storage.KindUnprocessable {
		t.Fatalf("dangling reference: kind = %v, want unprocessable", kind)
	}

	farm, err := farmStore.Create(ctx, resource.Record{"name": "hilltop"})
	if err != nil {
		t.Fatalf("create farm: %v", err)
	}
	if _, err := cropStore.Create(ctx, resource.Record{"farm_id": farm["id"]}); err != nil {
		t.Fatalf("create crop with valid reference: %v", err)
	}
}

func TestStore_NotFoundParity(t *testing.T) {
	store := newPotatoStore(t, setupTestDB(t))
	ctx := context.Background()
	missing := int64(99)

	if _, err := store.Get(ctx, missing); !storage.IsNotFound(err) {
		t.Errorf("Get missing: %v, want not-found", err)
	}
	if _, err := store.Update(ctx, missing, resource.Record{"color": "x"}); !storage.IsNotFound(err) {
		t.Errorf("Update missing: %v, want not-found", err)
	}
	if err := store.DeleteOne(ctx, missing); !storage.IsNotFound(err) {
		t.Errorf("DeleteOne missing: %v, want not-found", err)
	}
}

func TestStore_Update_Partial(t *testing.T) {
	store := newPotatoStore(t, setupTestDB(t))
	ctx := context.Background()

	rec, err := store.Create(ctx, resource.Record{"color": "red", "mass": 2.5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.Update(ctx, rec["id"], resource.Record{"color": "blue"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["color"] != "blue" {
		t.Errorf("color = %v, want blue", updated["color"])
	}
	if updated["mass"] != 2.5 {
		t.Errorf("absent field changed: mass = %v", updated["mass"])
	}

	moved, err := store.Update(ctx, rec["id"], resource.Record{"id": int64(777), "color": "gold"})
	if err != nil {
		t.Fatalf("update with pk in payload: %v", err)
	}
	if moved["id"] != rec["id"] {
		t.Errorf("primary key moved: id = %v, want %v", moved["id"], rec["id"])
	}
}

func TestStore_List(t *testing.T) {
	store := newPotatoStore(t, setupTestDB(t))
	ctx := context.Background()

	for _, rec := range []resource.Record{
		{"id": int64(3), "color": "red"},
		{"id": int64(1), "color": "red"},
		{"id": int64(2), "color": "blue"},
	} {
		if _, err := store.Create(ctx, rec); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	records, err := store.List(ctx, query.Filters{"color": "red"}, query.Page{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 || records[0]["id"] != int64(1) || records[1]["id"] != int64(3) {
		t.Fatalf("filtered list = %v, want ids 1, 3", records)
	}

	window, err := store.List(ctx, nil, query.Page{Skip: 0, Limit: 1})
	if err != nil {
		t.Fatalf("list window: %v", err)
	}
	if len(window) != 1 || window[0]["id"] != int64(1) {
		t.Errorf("window = %v, want single record with id 1", window)
	}

	if _, err := store.List(ctx, query.Filters{"color": "chartreuse"}, query.Page{Limit: 10}); !storage.IsNotFound(err) {
		t.Errorf("fully filtered list: %v, want not-found", err)
	}
}

func TestStore_DeleteAll_Idempotent(t *testing.T) {
	store := newPotatoStore(t, setupTestDB(t))
	ctx := context.Background()

	if _, err := store.Create(ctx, resource.Record{"color": "red"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("first delete-all: %v", err)
	}
	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("second delete-all: %v", err)
	}
}

func TestStore_StringPrimaryKeyGenerated(t *testing.T) {
	db := setupTestDB(t)
	schema := resource.Schema{
		Name:       "note",
		PrimaryKey: "id",
		Fields: []resource.Field{
			{Name: "id", Type: resource.TypeString},
			{Name: "body", Type: resource.TypeString},
		},
	}
	store, err := gormdb.NewStore(db, schema, idgen.NewSequential("note-"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := store.EnsureTable(ctx); err != nil {
		t.Fatalf("ensure table: %v", err)
	}

	rec, err := store.Create(ctx, resource.Record{"body": "hi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec["id"] != "note-1" {
		t.Errorf("id = %v, want note-1", rec["id"])
	}
}
