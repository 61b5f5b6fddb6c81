package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind classifies a catalog node.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
	KindImage  Kind = "image"
)

// ValidKind reports whether s is one of the accepted node kinds.
func ValidKind(s string) bool {
	switch Kind(s) {
	case KindFolder, KindFile, KindImage:
		return true
	}
	return false
}

// ErrInvalidParent is returned by ParseParent for ids that are neither the
// root sentinel nor a well-formed node id.
var ErrInvalidParent = errors.New("invalid parent id")

// Parent is a tagged parent reference: either the root sentinel or the id of
// a folder node. The zero value is the root.
type Parent struct {
	id    uuid.UUID
	valid bool
}

// RootParent returns the root sentinel.
func RootParent() Parent { return Parent{} }

// ParentOf returns a reference to the node with the given id.
func ParentOf(id uuid.UUID) Parent { return Parent{id: id, valid: true} }

// ParseParent interprets a wire-level parent value. An empty string or "0"
// means the root; anything else must be a well-formed node id.
func ParseParent(s string) (Parent, error) {
	if s == "" || s == "0" {
		return RootParent(), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return Parent{}, fmt.Errorf("%w: %q", ErrInvalidParent, s)
	}
	return ParentOf(id), nil
}

// IsRoot reports whether p is the root sentinel.
func (p Parent) IsRoot() bool { return !p.valid }

// ID returns the referenced node id; ok is false for the root sentinel.
func (p Parent) ID() (id uuid.UUID, ok bool) { return p.id, p.valid }

// String renders the wire form: "0" for the root, the node id otherwise.
func (p Parent) String() string {
	if !p.valid {
		return "0"
	}
	return p.id.String()
}

// MarshalJSON serializes the root as the number 0 and any other parent as an
// id string, matching the public API shape.
func (p Parent) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("0"), nil
	}
	return json.Marshal(p.id.String())
}

// UnmarshalJSON accepts both wire forms: the number 0 and an id string.
func (p *Parent) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err := json.Unmarshal(b, &n); err != nil || n != 0 {
			return fmt.Errorf("%w: %s", ErrInvalidParent, b)
		}
		*p = RootParent()
		return nil
	}
	parsed, err := ParseParent(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// FileNode is a catalog entry: a folder, a plain file, or an image in a
// user's hierarchy.
//
// BlobRef is set for every non-folder node and names the stored content.
// Thumbnails maps a width to the blob reference of the resized variant; it is
// populated per width by the thumbnail pipeline, so partially filled maps are
// a normal, observable state.
type FileNode struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Name       string
	Kind       Kind
	Parent     Parent
	IsPublic   bool
	BlobRef    string
	Thumbnails map[int]string
}
