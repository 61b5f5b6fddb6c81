package rest

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/google/uuid"
)

// The handler tests run the real service layer over in-memory stores and a
// filesystem blob root, exercising the full request path below the network.

type memUsers struct {
	mu    sync.Mutex
	users []*models.User
}

func (m *memUsers) Create(_ context.Context, email, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, common.ErrAlreadyExists
		}
	}
	u := &models.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash}
	m.users = append(m.users, u)
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

type memFiles struct {
	mu    sync.Mutex
	nodes []*models.FileNode
}

func (m *memFiles) Create(_ context.Context, node *models.FileNode) (*models.FileNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *node
	cp.ID = uuid.New()
	if cp.Thumbnails == nil {
		cp.Thumbnails = map[int]string{}
	}
	m.nodes = append(m.nodes, &cp)
	return &cp, nil
}

func (m *memFiles) GetByID(_ context.Context, id uuid.UUID) (*models.FileNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memFiles) GetOwned(_ context.Context, id, ownerID uuid.UUID) (*models.FileNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.ID == id && n.OwnerID == ownerID {
			return n, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memFiles) List(_ context.Context, ownerID uuid.UUID, parent models.Parent, limit, offset int) ([]*models.FileNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []*models.FileNode{}
	for _, n := range m.nodes {
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

func (m *memFiles) SetPublic(_ context.Context, id, ownerID uuid.UUID, public bool) (*models.FileNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.ID == id && n.OwnerID == ownerID {
			n.IsPublic = public
			return n, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memFiles) RecordThumbnail(_ context.Context, id uuid.UUID, width int, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.ID == id {
			n.Thumbnails[width] = ref
			return nil
		}
	}
	return common.ErrNotFound
}

func (m *memFiles) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.nodes)), nil
}

type memSessions struct {
	mu      sync.Mutex
	byToken map[string]string
}

func newMemSessions() *memSessions { return &memSessions{byToken: map[string]string{}} }

func (m *memSessions) Put(_ context.Context, token, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byToken[token] = userID
	return nil
}

func (m *memSessions) Get(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byToken[token]; ok {
		return id, nil
	}
	return "", common.ErrNotFound
}

func (m *memSessions) Del(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byToken, token)
	return nil
}

func (m *memSessions) Ping(context.Context) error { return nil }
func (m *memSessions) Close() error               { return nil }

type nopQueue struct{}

func (nopQueue) Enqueue(context.Context, string, any) error { return nil }

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	usersRepo := &memUsers{}
	filesRepo := &memFiles{}
	sess := newMemSessions()
	blobs := blob.NewFSStore(t.TempDir())
	logger := nopLogger{}

	h := NewHandler(
		services.NewUserService(usersRepo, sess, nopQueue{}, logger, 24*time.Hour),
		services.NewFileService(filesRepo, blobs, nopQueue{}, logger),
		services.NewAccessGate(sess, filesRepo),
		services.NewAppService(usersRepo, filesRepo, okPinger{}, okPinger{}),
		logger,
	)

	ts := httptest.NewServer(h.Routes())
	t.Cleanup(ts.Close)
	return ts
}
