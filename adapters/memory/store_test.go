package memory_test

import (
	"context"
	"testing"

	"github.com/artpar/crudgate/adapters/idgen"
	"github.com/artpar/crudgate/adapters/memory"
	"github.com/artpar/crudgate/domain/query"
	"github.com/artpar/crudgate/domain/resource"
	"github.com/artpar/crudgate/domain/storage"
)

func potatoSchema() resource.Schema {
	return resource.Schema{
		Name:       "potato",
		PrimaryKey: "id",
		Fields: []resource.Field{
			{Name: "id", Type: resource.TypeInt},
			{Name: "color", Type: resource.TypeString, Required: true},
			{Name: "mass", Type: resource.TypeFloat},
		},
	}
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.New(potatoSchema(), idgen.NewSequential("mem-"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStore_New_InvalidSchema(t *testing.T) {
	s := potatoSchema()
	s.PrimaryKey = "serial"
	if _, err := memory.New(s, idgen.UUID{}); err == nil {
		t.Fatal("store accepted schema with undeclared primary key")
	}
}

func TestStore_Create_AssignsSequentialKeys(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, resource.Record{"color": "red"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := store.Create(ctx, resource.Record{"color": "gold"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first["id"] != int64(1) || second["id"] != int64(2) {
		t.Errorf("assigned ids = %v, %v, want 1, 2", first["id"], second["id"])
	}
}

func TestStore_Create_HonorsProvidedKey(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, resource.Record{"id": int64(42), "color": "blue"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec["id"] != int64(42) {
		t.Errorf("id = %v, want 42", rec["id"])
	}

	// The sequence continues past honored keys.
	next, err := store.Create(ctx, resource.Record{"color": "red"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if next["id"] != int64(43) {
		t.Errorf("next assigned id = %v, want 43", next["id"])
	}
}

func TestStore_Create_DuplicateKeyConflict(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, resource.Record{"id": int64(7), "color": "red"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := store.Create(ctx, resource.Record{"id": int64(7), "color": "blue"})
	if kind := storage.KindOf(err); kind != storage.KindConflict {
		t.Fatalf("duplicate key: kind = %v, want conflict", kind)
	}
}

func TestStore_Create_UniqueFieldConflict(t *testing.T) {
	schema := resource.Schema{
		Name:       "user",
		PrimaryKey: "id",
		Fields: []resource.Field{
			{Name: "id", Type: resource.TypeInt},
			{Name: "name", Type: resource.TypeString, Required: true, Unique: true},
		},
	}
	store, err := memory.New(schema, idgen.UUID{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Create(ctx, resource.Record{"name": "a"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err = store.Create(ctx, resource.Record{"name": "a"})
	if kind := storage.KindOf(err); kind != storage.KindConflict {
		t.Fatalf("duplicate unique field: kind = %v, want conflict", kind)
	}
}

func TestStore_Create_StringKeyGenerated(t *testing.T) {
	schema := resource.Schema{
		Name:       "note",
		PrimaryKey: "id",
		Fields: []resource.Field{
			{Name: "id", Type: resource.TypeString},
			{Name: "body", Type: resource.TypeString},
		},
	}
	store, err := memory.New(schema, idgen.NewSequential("note-"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	rec, err := store.Create(context.Background(), resource.Record{"body": "hi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec["id"] != "note-1" {
		t.Errorf("id = %v, want note-1", rec["id"])
	}
}

func TestStore_NotFoundParity(t *testing.T) {
	store := newStore(t)
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
	store := newStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, resource.Record{"color": "red", "mass": 2.5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := rec["id"]

	updated, err := store.Update(ctx, id, resource.Record{"color": "blue"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["color"] != "blue" {
		t.Errorf("color = %v, want blue", updated["color"])
	}
	if updated["mass"] != 2.5 {
		t.Errorf("absent field changed: mass = %v", updated["mass"])
	}
}

func TestStore_Update_PrimaryKeyImmutable(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec, _ := store.Create(ctx, resource.Record{"color": "red"})
	id := rec["id"]

	updated, err := store.Update(ctx, id, resource.Record{"id": int64(999), "color": "blue"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["id"] != id {
		t.Errorf("primary key moved: id = %v, want %v", updated["id"], id)
	}
	if _, err := store.Get(ctx, id); err != nil {
		t.Errorf("record not reachable under original id: %v", err)
	}
}

func TestStore_List_FilterOrderWindow(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// Insert out of order to exercise the sort.
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
	if len(records) != 2 {
		t.Fatalf("list returned %d records, want 2", len(records))
	}
	if records[0]["id"] != int64(1) || records[1]["id"] != int64(3) {
		t.Errorf("order = %v, %v, want 1, 3", records[0]["id"], records[1]["id"])
	}

	// skip=0&limit=1 on a collection of 3 returns the smallest primary key.
	window, err := store.List(ctx, nil, query.Page{Skip: 0, Limit: 1})
	if err != nil {
		t.Fatalf("list window: %v", err)
	}
	if len(window) != 1 || window[0]["id"] != int64(1) {
		t.Errorf("window = %v, want single record with id 1", window)
	}
}

func TestStore_List_EmptyIsNotFound(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := store.List(ctx, nil, query.Page{Limit: 10}); !storage.IsNotFound(err) {
		t.Errorf("empty collection list: %v, want not-found", err)
	}

	if _, err := store.Create(ctx, resource.Record{"color": "red"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// All records filtered away behaves the same as no records at all.
	if _, err := store.List(ctx, query.Filters{"color": "chartreuse"}, query.Page{Limit: 10}); !storage.IsNotFound(err) {
		t.Errorf("fully filtered list: %v, want not-found", err)
	}
}

func TestStore_DeleteAll_Idempotent(t *testing.T) {
	store := newStore(t)
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
	if _, err := store.List(ctx, nil, query.Page{Limit: 10}); !storage.IsNotFound(err) {
		t.Errorf("list after delete-all: %v, want not-found", err)
	}
}

func TestStore_DeleteOne(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec, _ := store.Create(ctx, resource.Record{"color": "red"})
	if err := store.DeleteOne(ctx, rec["id"]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, rec["id"]); !storage.IsNotFound(err) {
		t.Errorf("get after delete: %v, want not-found", err)
	}
}
