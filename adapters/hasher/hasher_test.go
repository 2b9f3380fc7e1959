package hasher_test

import (
	"testing"

	"github.com/artpar/crudgate/adapters/hasher"
)

func TestBcrypt(t *testing.T) {
	h := hasher.NewBcrypt(4)

	hash, err := h.Hash("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Compare(hash, "hunter2") {
		t.Error("correct plaintext rejected")
	}
	if h.Compare(hash, "hunter3") {
		t.Error("wrong plaintext accepted")
	}
}

func TestBcrypt_CostOutOfRange(t *testing.T) {
	// An absurd cost falls back to the default instead of failing.
	h := hasher.NewBcrypt(9999)
	hash, err := h.Hash("x")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Compare(hash, "x") {
		t.Error("hash does not verify")
	}
}

func TestFake(t *testing.T) {
	h := hasher.Fake{}
	hash, _ := h.Hash("plain")
	if !h.Compare(hash, "plain") {
		t.Error("fake hasher rejected its own output")
	}
	if h.Compare(hash, "other") {
		t.Error("fake hasher accepted a different value")
	}
}
