// Package files provides the persisted file catalog: the hierarchical
// metadata store for folders, files, and images.
package files

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/google/uuid"
)

// Repository is the file catalog contract.
//
// GetOwned scopes the lookup to an owner, so a foreign id surfaces as
// common.ErrNotFound rather than as a distinct "forbidden" state. SetPublic
// and RecordThumbnail are single-statement atomic updates; RecordThumbnail
// is an idempotent upsert of one width slot.
type Repository interface {
	Create(ctx context.Context, node *models.FileNode) (*models.FileNode, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.FileNode, error)
	GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.FileNode, error)
	List(ctx context.Context, ownerID uuid.UUID, parent models.Parent, limit, offset int) ([]*models.FileNode, error)
	SetPublic(ctx context.Context, id, ownerID uuid.UUID, public bool) (*models.FileNode, error)
	RecordThumbnail(ctx context.Context, id uuid.UUID, width int, blobRef string) error
	Count(ctx context.Context) (int64, error)
}
