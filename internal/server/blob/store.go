// Package blob stores raw content under opaque, collision-resistant
// references, outside the metadata catalog.
package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Store is the blob storage contract.
//
// Put generates the reference itself; callers never influence the stored
// name, which rules out path traversal by construction. PutRef writes a
// derived artifact under a caller-supplied reference (the `<ref>_<width>`
// thumbnail convention) and overwrites any previous content, so redelivered
// jobs are harmless. Get distinguishes a missing blob (common.ErrNotFound)
// from an I/O failure (common.ErrStorageUnavailable).
type Store interface {
	Put(ctx context.Context, r io.Reader) (string, error)
	PutRef(ctx context.Context, ref string, r io.Reader) error
	Get(ctx context.Context, ref string) (io.ReadCloser, error)
	Exists(ctx context.Context, ref string) (bool, error)
}

// NewRef returns a fresh opaque blob reference.
func NewRef() string {
	return uuid.NewString()
}

// DerivedRef names a resized variant of the blob ref.
func DerivedRef(ref string, width int) string {
	return fmt.Sprintf("%s_%d", ref, width)
}

// ValidRef reports whether ref is one of our generated names (a UUID with an
// optional _<width> suffix). Anything else, in particular path-like strings,
// is rejected before it reaches a backend.
func ValidRef(ref string) bool {
	if ref == "" {
		return false
	}
	for _, c := range ref {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
