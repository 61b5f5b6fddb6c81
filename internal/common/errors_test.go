package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Is(t *testing.T) {
	err := NewValidationError("Missing name")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected errors.Is(err, ErrValidation) to hold for %v", err)
	}
	wrapped := fmt.Errorf("create: %w", err)
	if !errors.Is(wrapped, ErrValidation) {
		t.Fatalf("expected wrapped validation error to match, got %v", wrapped)
	}

	var ve *ValidationError
	if !errors.As(wrapped, &ve) || ve.Reason != "Missing name" {
		t.Fatalf("expected reason to survive wrapping, got %v", ve)
	}
}

func TestValidationError_DoesNotMatchOthers(t *testing.T) {
	err := NewValidationError("Missing type")
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("validation error must not match ErrNotFound")
	}
}

func TestMakeRandHexString(t *testing.T) {
	s1, err := MakeRandHexString(16)
	if err != nil {
		t.Fatalf("MakeRandHexString error: %v", err)
	}
	s2, err := MakeRandHexString(16)
	if err != nil {
		t.Fatalf("MakeRandHexString error: %v", err)
	}
	if len(s1) != 32 || len(s2) != 32 {
		t.Fatalf("expected 32 hex chars, got %d and %d", len(s1), len(s2))
	}
	if s1 == s2 {
		t.Fatalf("expected two random strings to differ")
	}
}
