package resource

// Record is a single persisted entity instance. Values are coerced to the
// field's declared primitive: string, int64, float64, or bool. A nil value
// means the field is unset. Records are owned by the backing store; handlers
// never retain them across requests.
type Record map[string]any

// Clone returns a shallow copy. Values are primitives, so a shallow copy is
// a full copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge overlays the fields present in patch onto a copy of r, skipping the
// named primary key. Fields absent from patch are left untouched.
func (r Record) Merge(patch Record, primaryKey string) Record {
	out := r.Clone()
	for k, v := range patch {
		if k == primaryKey {
			continue
		}
		out[k] = v
	}
	return out
}
