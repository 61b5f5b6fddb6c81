package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/sessions"
	"github.com/google/uuid"
)

// AccessGate is the stateless policy combining the session store and the
// file catalog to authorize requests.
type AccessGate struct {
	sessions sessions.Store
	files    files.Repository
}

func NewAccessGate(sessions sessions.Store, files files.Repository) *AccessGate {
	return &AccessGate{sessions: sessions, files: files}
}

// Authorize resolves a bearer token to a user id. Absent, expired, or
// malformed tokens all collapse into common.ErrUnauthorized.
func (g *AccessGate) Authorize(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, common.ErrUnauthorized
	}

	userID, err := g.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return uuid.Nil, common.ErrUnauthorized
		}
		return uuid.Nil, err
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, common.ErrUnauthorized
	}
	return id, nil
}

// AuthorizeContent decides whether the caller may read the content of
// fileID. The token is optional: anonymous callers are granted access to
// public nodes only. A private node the caller does not own surfaces as
// common.ErrNotFound, the same shape as a genuinely absent id, so the
// endpoint cannot be used as an existence oracle.
func (g *AccessGate) AuthorizeContent(ctx context.Context, token string, fileID uuid.UUID) (node *models.FileNode, asOwner bool, err error) {
	node, err = g.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, false, err
	}

	if token != "" {
		userID, err := g.Authorize(ctx, token)
		// an invalid token demotes the caller to anonymous
		if err == nil && node.OwnerID == userID {
			return node, true, nil
		}
		if err != nil && !errors.Is(err, common.ErrUnauthorized) {
			return nil, false, err
		}
	}

	if node.IsPublic {
		return node, false, nil
	}
	return nil, false, common.ErrNotFound
}
