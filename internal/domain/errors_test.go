package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUnknownProductError_Unwrap(t *testing.T) {
	err := fmt.Errorf("select: %w", NewUnknownProduct("shoe-A"))

	if !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
	var upe *UnknownProductError
	if !errors.As(err, &upe) {
		t.Fatal("expected *UnknownProductError")
	}
	if upe.ID != "shoe-A" {
		t.Errorf("expected id shoe-A, got %q", upe.ID)
	}
}

func TestCatalogIntegrityError(t *testing.T) {
	ie := &CatalogIntegrityError{
		MissingEmbeddings: []string{"a"},
		MissingProducts:   []string{"b", "c"},
	}
	if ie.Empty() {
		t.Fatal("expected non-empty integrity error")
	}
	if !errors.Is(ie, ErrCatalogLoad) {
		t.Error("integrity error must unwrap to ErrCatalogLoad")
	}
	msg := ie.Error()
	for _, want := range []string{"records without embedding: a", "embeddings without record: b, c"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
	if strings.Contains(msg, "duplicate") {
		t.Errorf("unexpected duplicates section in %q", msg)
	}
}

func TestCatalogIntegrityError_Empty(t *testing.T) {
	if !(&CatalogIntegrityError{}).Empty() {
		t.Error("zero value must be empty")
	}
}
