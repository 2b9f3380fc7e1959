package crud

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/crudgate/domain/query"
	"github.com/artpar/crudgate/domain/resource"
	"github.com/artpar/crudgate/domain/storage"
)

func (rt *Router) handleList(w http.ResponseWriter, r *http.Request) {
	page, filters, err := query.ParseListQuery(rt.schema, r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.opts.staticLimit > 0 && page.Limit > rt.opts.staticLimit {
		page.Limit = rt.opts.staticLimit
	}

	records, err := rt.backend.List(r.Context(), filters, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (rt *Router) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := rt.pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := rt.backend.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (rt *Router) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := rt.decodePayload(r, true)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := rt.backend.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (rt *Router) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := rt.pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	payload, err := rt.decodePayload(r, false)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := rt.backend.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (rt *Router) handleDeleteOne(w http.ResponseWriter, r *http.Request) {
	id, err := rt.pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := rt.backend.DeleteOne(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := rt.backend.DeleteAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID coerces the {id} path parameter to the primary key's declared
// type. A value of the wrong type is semantically invalid, not malformed.
func (rt *Router) pathID(r *http.Request) (any, error) {
	raw := chi.URLParam(r, "id")
	id, err := rt.pk.Coerce(raw)
	if err != nil {
		return nil, storage.Wrap(storage.KindUnprocessable, "invalid id", err)
	}
	return id, nil
}

// decodePayload reads the request body as a JSON object and coerces it
// against the schema. Unknown fields and missing required create fields are
// malformed input; wrong-typed values are semantically invalid.
func (rt *Router) decodePayload(r *http.Request, create bool) (resource.Record, error) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, storage.Wrap(storage.KindBadInput, "invalid JSON body", err)
	}
	rec, err := rt.schema.CoercePayload(raw)
	if err != nil {
		var ce *resource.CoercionError
		if errors.As(err, &ce) {
			return nil, storage.Wrap(storage.KindUnprocessable, "invalid payload", err)
		}
		return nil, storage.Wrap(storage.KindBadInput, "invalid payload", err)
	}
	if create {
		if missing := rt.schema.MissingRequired(rec); len(missing) > 0 {
			return nil, storage.Errf(storage.KindBadInput, "missing required fields: %v", missing)
		}
	}
	return rec, nil
}
