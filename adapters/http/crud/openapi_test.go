package crud_test

import (
	"testing"

	"github.com/artpar/crudgate/adapters/http/crud"
	"github.com/artpar/crudgate/adapters/idgen"
	"github.com/artpar/crudgate/adapters/memory"
)

func TestBuildSpec(t *testing.T) {
	schema := potatoSchema()
	backend, _ := memory.New(schema, idgen.UUID{})
	rt, err := crud.NewRouter(schema, backend)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	spec := crud.BuildSpec("Veggie API", "2.0", []*crud.Router{rt})
	if spec.Info.Title != "Veggie API" || spec.Info.Version != "2.0" {
		t.Errorf("info = %+v", spec.Info)
	}

	collection, ok := spec.Paths["/potatoes"]
	if !ok {
		t.Fatalf("paths = %v, want /potatoes", spec.Paths)
	}
	for _, method := range []string{"get", "post", "delete"} {
		if _, ok := collection[method]; !ok {
			t.Errorf("collection path missing %s", method)
		}
	}

	item, ok := spec.Paths["/potatoes/{id}"]
	if !ok {
		t.Fatalf("paths = %v, want /potatoes/{id}", spec.Paths)
	}
	for _, method := range []string{"get", "put", "delete"} {
		if _, ok := item[method]; !ok {
			t.Errorf("item path missing %s", method)
		}
	}

	// skip, limit, and one equality filter per field.
	if got := len(collection["get"].Parameters); got != 2+len(schema.Fields) {
		t.Errorf("list parameters = %d, want %d", got, 2+len(schema.Fields))
	}

	// Create documents its required fields, minus the primary key.
	body := collection["post"].RequestBody
	if body == nil {
		t.Fatal("create has no request body")
	}
	required := body.Content["application/json"].Schema.Required
	if len(required) != 1 || required[0] != "color" {
		t.Errorf("create required fields = %v, want [color]", required)
	}
}

func TestBuildSpec_DisabledOperationsOmitted(t *testing.T) {
	schema := potatoSchema()
	backend, _ := memory.New(schema, idgen.UUID{})
	rt, err := crud.NewRouter(schema, backend, crud.Without(crud.OpDeleteAll, crud.OpUpdate))
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	spec := crud.BuildSpec("t", "1", []*crud.Router{rt})
	if _, ok := spec.Paths["/potatoes"]["delete"]; ok {
		t.Error("disabled delete-all still documented")
	}
	if _, ok := spec.Paths["/potatoes/{id}"]["put"]; ok {
		t.Error("disabled update still documented")
	}
	if _, ok := spec.Paths["/potatoes"]["get"]; !ok {
		t.Error("enabled list missing")
	}
}
