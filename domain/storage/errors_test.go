package storage_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/artpar/crudgate/domain/storage"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want storage.Kind
	}{
		{storage.NewError(storage.KindConflict, "duplicate"), storage.KindConflict},
		{storage.NotFound("item not found"), storage.KindNotFound},
		{storage.Errf(storage.KindBadInput, "bad %s", "skip"), storage.KindBadInput},
		{storage.Wrap(storage.KindUnprocessable, "invalid id", errors.New("parse")), storage.KindUnprocessable},
		{errors.New("plain"), storage.KindInternal},
		{nil, storage.KindInternal},
	}
	for _, tt := range tests {
		if got := storage.KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", storage.NotFound("item not found"))
	if got := storage.KindOf(err); got != storage.KindNotFound {
		t.Errorf("KindOf(wrapped) = %v, want not_found", got)
	}
	if !storage.IsNotFound(err) {
		t.Error("IsNotFound(wrapped) = false")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := storage.Wrap(storage.KindInternal, "write row", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable through errors.Is")
	}
}
