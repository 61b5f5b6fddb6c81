package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/google/uuid"
)

// PageSize is the fixed listing page length.
const PageSize = 20

// reasonParentInvalid covers every parent-resolution failure: malformed id,
// absent node, or a parent that is not a folder.
const reasonParentInvalid = "Parent not found"

// FileService implements the catalog operations: upload, lookup, listing,
// visibility, and content retrieval.
type FileService struct {
	files  files.Repository
	blobs  blob.Store
	jobs   Enqueuer
	logger logging.Logger
}

func NewFileService(files files.Repository, blobs blob.Store, jobs Enqueuer, logger logging.Logger) *FileService {
	return &FileService{files: files, blobs: blobs, jobs: jobs, logger: logger}
}

// CreateInput is a decoded upload request. Data holds the raw (already
// base64-decoded) content; it must be empty for folders and non-empty for
// everything else.
type CreateInput struct {
	Name     string
	Kind     string
	ParentID string
	IsPublic bool
	Data     []byte
}

// Create validates the input, persists the content blob first and the
// catalog record second (so a crash cannot leave metadata pointing at a
// blob that was never written), and enqueues a thumbnail job for images.
func (s *FileService) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*models.FileNode, error) {
	if in.Name == "" {
		return nil, common.NewValidationError("Missing name")
	}
	if !models.ValidKind(in.Kind) {
		return nil, common.NewValidationError("Missing type")
	}

	kind := models.Kind(in.Kind)
	if kind == models.KindFolder && len(in.Data) > 0 {
		return nil, common.NewValidationError("Data not allowed for folders")
	}
	if kind != models.KindFolder && len(in.Data) == 0 {
		return nil, common.NewValidationError("Missing data")
	}

	parent, err := s.resolveParent(ctx, in.ParentID)
	if err != nil {
		return nil, err
	}

	node := &models.FileNode{
		OwnerID:  ownerID,
		Name:     in.Name,
		Kind:     kind,
		Parent:   parent,
		IsPublic: in.IsPublic,
	}

	if kind != models.KindFolder {
		ref, err := s.blobs.Put(ctx, bytes.NewReader(in.Data))
		if err != nil {
			return nil, err
		}
		node.BlobRef = ref
	}

	created, err := s.files.Create(ctx, node)
	if err != nil {
		return nil, err
	}

	if kind == models.KindImage {
		job := models.ThumbnailJob{UserID: ownerID.String(), FileID: created.ID.String()}
		// thumbnailing is asynchronous and non-essential; the upload
		// already succeeded
		if err := s.jobs.Enqueue(ctx, queue.Thumbnails, job); err != nil {
			s.logger.Warn(ctx, "thumbnail job enqueue failed", "fileId", job.FileID, "error", err.Error())
		}
	}

	return created, nil
}

// resolveParent parses and checks a wire-level parent id. The parent must
// exist and be a folder; it does not have to belong to the uploader.
func (s *FileService) resolveParent(ctx context.Context, parentID string) (models.Parent, error) {
	parent, err := models.ParseParent(parentID)
	if err != nil {
		return models.Parent{}, common.NewValidationError(reasonParentInvalid)
	}
	if parent.IsRoot() {
		return parent, nil
	}

	id, _ := parent.ID()
	pnode, err := s.files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.Parent{}, common.NewValidationError(reasonParentInvalid)
		}
		return models.Parent{}, err
	}
	if pnode.Kind != models.KindFolder {
		return models.Parent{}, common.NewValidationError(reasonParentInvalid)
	}
	return parent, nil
}

// Get returns the node only if ownerID owns it; anything else is not found.
func (s *FileService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.FileNode, error) {
	return s.files.GetOwned(ctx, id, ownerID)
}

// List returns one page (PageSize entries) of the owner's children of the
// given parent, in insertion order.
func (s *FileService) List(ctx context.Context, ownerID uuid.UUID, parentID string, page int) ([]*models.FileNode, error) {
	parent, err := models.ParseParent(parentID)
	if err != nil {
		return nil, common.NewValidationError(reasonParentInvalid)
	}
	if page < 0 {
		page = 0
	}
	return s.files.List(ctx, ownerID, parent, PageSize, page*PageSize)
}

// SetPublic toggles visibility; only the owner can, and a foreign id is
// indistinguishable from an absent one.
func (s *FileService) SetPublic(ctx context.Context, ownerID, id uuid.UUID, public bool) (*models.FileNode, error) {
	return s.files.SetPublic(ctx, id, ownerID, public)
}

// Content opens the node's stored bytes for streaming. A non-zero width
// selects a thumbnail; a width outside the configured set is a validation
// error, and a configured width not yet produced is not found.
func (s *FileService) Content(ctx context.Context, node *models.FileNode, width int) (io.ReadCloser, error) {
	if node.Kind == models.KindFolder {
		return nil, common.NewValidationError("A folder doesn't have content")
	}

	ref := node.BlobRef
	if width != 0 {
		if !slices.Contains(models.ThumbnailWidths, width) {
			return nil, common.NewValidationError("Invalid size")
		}
		ref = node.Thumbnails[width]
	}
	if ref == "" {
		return nil, common.ErrNotFound
	}

	return s.blobs.Get(ctx, ref)
}
