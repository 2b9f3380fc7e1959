package sqldb

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/artpar/crudgate/domain/storage"
)

// Classify translates a driver error into the public taxonomy: uniqueness
// constraint violations become conflict, other constraint violations become
// unprocessable, anything else is internal. Classification happens here and
// nowhere downstream; the route generator only ever sees typed outcomes.
// The gormdb adapter shares this classifier so the two SQL backends cannot
// drift apart.
func Classify(detail string, err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		switch serr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintRowID:
			return storage.Wrap(storage.KindConflict, detail, err)
		}
		return storage.Wrap(storage.KindUnprocessable, detail, err)
	}
	// Fallback for drivers that surface constraint failures as plain
	// errors: sniff the message the same way across backends.
	if strings.Contains(strings.ToLower(err.Error()), "unique") {
		return storage.Wrap(storage.KindConflict, detail, err)
	}
	return storage.Wrap(storage.KindInternal, detail, err)
}
