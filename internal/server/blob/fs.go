package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/filevault/internal/common"
)

// FSStore keeps blobs as flat files under a root directory, named by their
// reference. The root is created lazily on first write.
type FSStore struct {
	root string

	once    sync.Once
	initErr error
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) ensureRoot() error {
	s.once.Do(func() {
		if err := os.MkdirAll(s.root, 0o770); err != nil {
			s.initErr = fmt.Errorf("mkdir %s: %w", s.root, err)
		}
	})
	return s.initErr
}

func (s *FSStore) path(ref string) string {
	return filepath.Join(s.root, ref)
}

func (s *FSStore) Put(ctx context.Context, r io.Reader) (string, error) {
	ref := NewRef()
	if err := s.PutRef(ctx, ref, r); err != nil {
		return "", err
	}
	return ref, nil
}

// PutRef writes the whole blob in one pass, overwriting any previous content
// under the same reference.
func (s *FSStore) PutRef(ctx context.Context, ref string, r io.Reader) error {
	if !ValidRef(ref) {
		return fmt.Errorf("%w: bad blob ref %q", common.ErrStorageUnavailable, ref)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureRoot(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	f, err := os.OpenFile(s.path(ref), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o660)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

// Get returns a streaming reader; the caller must close it.
func (s *FSStore) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !ValidRef(ref) {
		return nil, common.ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return f, nil
}

func (s *FSStore) Exists(ctx context.Context, ref string) (bool, error) {
	if !ValidRef(ref) {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := os.Stat(s.path(ref)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return true, nil
}
