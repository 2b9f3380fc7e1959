package query_test

import (
	"net/url"
	"testing"

	"github.com/artpar/crudgate/domain/query"
	"github.com/artpar/crudgate/domain/resource"
	"github.com/artpar/crudgate/domain/storage"
)

var schema = resource.Schema{
	Name:       "carrot",
	PrimaryKey: "id",
	Fields: []resource.Field{
		{Name: "id", Type: resource.TypeInt},
		{Name: "length", Type: resource.TypeFloat},
		{Name: "color", Type: resource.TypeString},
	},
}

func TestParseListQuery_Defaults(t *testing.T) {
	page, filters, err := query.ParseListQuery(schema, url.Values{})
	if err != nil {
		t.Fatalf("parse empty query: %v", err)
	}
	if page.Skip != 0 || page.Limit != query.DefaultLimit {
		t.Errorf("page = %+v, want skip=0 limit=%d", page, query.DefaultLimit)
	}
	if len(filters) != 0 {
		t.Errorf("filters = %v, want none", filters)
	}
}

func TestParseListQuery_Pagination(t *testing.T) {
	page, _, err := query.ParseListQuery(schema, url.Values{
		"skip":  {"5"},
		"limit": {"10"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if page.Skip != 5 || page.Limit != 10 {
		t.Errorf("page = %+v, want skip=5 limit=10", page)
	}
}

func TestParseListQuery_MalformedPagination(t *testing.T) {
	tests := []url.Values{
		{"skip": {"banana"}},
		{"skip": {"-1"}},
		{"limit": {"0"}},
		{"limit": {"-5"}},
		{"limit": {"many"}},
	}
	for _, values := range tests {
		_, _, err := query.ParseListQuery(schema, values)
		if err == nil {
			t.Errorf("values %v accepted", values)
			continue
		}
		if kind := storage.KindOf(err); kind != storage.KindBadInput {
			t.Errorf("values %v: kind = %v, want bad_input", values, kind)
		}
	}
}

func TestParseListQuery_Filters(t *testing.T) {
	_, filters, err := query.ParseListQuery(schema, url.Values{
		"color":  {"orange"},
		"length": {"12.5"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if filters["color"] != "orange" {
		t.Errorf("color filter = %v", filters["color"])
	}
	if filters["length"] != 12.5 {
		t.Errorf("length filter = %v (%T), want 12.5", filters["length"], filters["length"])
	}
}

func TestParseListQuery_UnknownField(t *testing.T) {
	_, _, err := query.ParseListQuery(schema, url.Values{"flavor": {"sweet"}})
	if err == nil {
		t.Fatal("unknown filter field accepted")
	}
	if kind := storage.KindOf(err); kind != storage.KindBadInput {
		t.Errorf("kind = %v, want bad_input", kind)
	}
}

func TestParseListQuery_WrongTypedValue(t *testing.T) {
	_, _, err := query.ParseListQuery(schema, url.Values{"length": {"stubby"}})
	if err == nil {
		t.Fatal("wrong-typed filter value accepted")
	}
	if kind := storage.KindOf(err); kind != storage.KindUnprocessable {
		t.Errorf("kind = %v, want unprocessable", kind)
	}
}

func TestParseListQuery_TokenReserved(t *testing.T) {
	// The companion client appends the access token as a query parameter;
	// it must never be read as a filter.
	_, filters, err := query.ParseListQuery(schema, url.Values{"token": {"secret"}})
	if err != nil {
		t.Fatalf("token parameter rejected: %v", err)
	}
	if len(filters) != 0 {
		t.Errorf("filters = %v, want none", filters)
	}
}

func TestPage_Window(t *testing.T) {
	p := query.Page{Skip: 2, Limit: 2}
	lo, hi := p.Window(3)
	if lo != 2 || hi != 3 {
		t.Errorf("Window(3) = [%d, %d), want [2, 3)", lo, hi)
	}
	lo, hi = p.Window(1)
	if lo != 1 || hi != 1 {
		t.Errorf("Window(1) = [%d, %d), want [1, 1)", lo, hi)
	}
}
