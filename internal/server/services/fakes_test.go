package services

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/google/uuid"
)

// --- logger ---

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}
func (l noopLogger) With(...any) logging.Logger          { return l }

// --- users repository ---

type fakeUsers struct {
	byID      map[uuid.UUID]*models.User
	byEmail   map[string]*models.User
	createErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:    map[uuid.UUID]*models.User{},
		byEmail: map[string]*models.User{},
	}
}

func (f *fakeUsers) add(email, hash string) *models.User {
	u := &models.User{ID: uuid.New(), Email: email, PasswordHash: hash}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, email, hash string) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[email]; ok {
		return nil, common.ErrAlreadyExists
	}
	return f.add(email, hash), nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsers) Count(context.Context) (int64, error) {
	return int64(len(f.byID)), nil
}

// --- files repository ---

// fakeFiles keeps nodes in insertion order and, when ops is set, records
// call order shared with other fakes.
type fakeFiles struct {
	nodes []*models.FileNode
	ops   *[]string
}

func newFakeFiles() *fakeFiles { return &fakeFiles{} }

func (f *fakeFiles) add(node *models.FileNode) *models.FileNode {
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	if node.Thumbnails == nil {
		node.Thumbnails = map[int]string{}
	}
	f.nodes = append(f.nodes, node)
	return node
}

func (f *fakeFiles) Create(_ context.Context, node *models.FileNode) (*models.FileNode, error) {
	if f.ops != nil {
		*f.ops = append(*f.ops, "files.create")
	}
	return f.add(node), nil
}

func (f *fakeFiles) GetByID(_ context.Context, id uuid.UUID) (*models.FileNode, error) {
	for _, n := range f.nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeFiles) GetOwned(_ context.Context, id, ownerID uuid.UUID) (*models.FileNode, error) {
	for _, n := range f.nodes {
		if n.ID == id && n.OwnerID == ownerID {
			return n, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeFiles) List(_ context.Context, ownerID uuid.UUID, parent models.Parent, limit, offset int) ([]*models.FileNode, error) {
	matched := []*models.FileNode{}
	for _, n := range f.nodes {
		if n.OwnerID == ownerID && n.Parent == parent {
			matched = append(matched, n)
		}
	}
	if offset >= len(matched) {
		return []*models.FileNode{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeFiles) SetPublic(_ context.Context, id, ownerID uuid.UUID, public bool) (*models.FileNode, error) {
	for _, n := range f.nodes {
		if n.ID == id && n.OwnerID == ownerID {
			n.IsPublic = public
			return n, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeFiles) RecordThumbnail(_ context.Context, id uuid.UUID, width int, ref string) error {
	for _, n := range f.nodes {
		if n.ID == id {
			if n.Thumbnails == nil {
				n.Thumbnails = map[int]string{}
			}
			n.Thumbnails[width] = ref
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeFiles) Count(context.Context) (int64, error) {
	return int64(len(f.nodes)), nil
}

// --- session store ---

type fakeSessions struct {
	byToken map[string]string
	lastTTL time.Duration
	getErr  error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: map[string]string{}}
}

func (f *fakeSessions) Put(_ context.Context, token, userID string, ttl time.Duration) error {
	f.byToken[token] = userID
	f.lastTTL = ttl
	return nil
}

func (f *fakeSessions) Get(_ context.Context, token string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	if id, ok := f.byToken[token]; ok {
		return id, nil
	}
	return "", common.ErrNotFound
}

func (f *fakeSessions) Del(_ context.Context, token string) error {
	delete(f.byToken, token)
	return nil
}

func (f *fakeSessions) Ping(context.Context) error { return nil }
func (f *fakeSessions) Close() error               { return nil }

// --- blob store ---

type fakeBlobs struct {
	data   map[string][]byte
	ops    *[]string
	putErr error
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{data: map[string][]byte{}} }

func (f *fakeBlobs) Put(_ context.Context, r io.Reader) (string, error) {
	if f.ops != nil {
		*f.ops = append(*f.ops, "blob.put")
	}
	if f.putErr != nil {
		return "", f.putErr
	}
	ref := blob.NewRef()
	b, _ := io.ReadAll(r)
	f.data[ref] = b
	return ref, nil
}

func (f *fakeBlobs) PutRef(_ context.Context, ref string, r io.Reader) error {
	if f.putErr != nil {
		return f.putErr
	}
	b, _ := io.ReadAll(r)
	f.data[ref] = b
	return nil
}

func (f *fakeBlobs) Get(_ context.Context, ref string) (io.ReadCloser, error) {
	b, ok := f.data[ref]
	if !ok {
		return nil, common.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeBlobs) Exists(_ context.Context, ref string) (bool, error) {
	_, ok := f.data[ref]
	return ok, nil
}

// --- job queue ---

type enqueued struct {
	queue   string
	payload any
}

type fakeQueue struct {
	jobs []enqueued
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, queueName string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, enqueued{queue: queueName, payload: payload})
	return nil
}
