package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ThumbnailPipeline consumes thumbnail jobs: it reads the source blob,
// produces one resized variant per configured width, stores each variant,
// and records it on the catalog node.
//
// Every step is idempotent, so a redelivered job overwrites the variants it
// already produced instead of duplicating them, and widths that failed last
// time are attempted again.
type ThumbnailPipeline struct {
	files  files.Repository
	blobs  blob.Store
	logger logging.Logger
}

func NewThumbnailPipeline(files files.Repository, blobs blob.Store, logger logging.Logger) *ThumbnailPipeline {
	return &ThumbnailPipeline{files: files, blobs: blobs, logger: logger.With("component", "thumbnails")}
}

// Handle implements queue.Handler. A job whose file no longer exists, no
// longer belongs to the enqueuing user, or cannot be parsed is terminal;
// storage failures are retryable.
func (p *ThumbnailPipeline) Handle(ctx context.Context, payload json.RawMessage) error {
	var job models.ThumbnailJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return queue.NoRetry(fmt.Errorf("malformed thumbnail job: %w", err))
	}

	ownerID, err := uuid.Parse(job.UserID)
	if err != nil {
		return queue.NoRetry(fmt.Errorf("malformed user id %q: %w", job.UserID, err))
	}
	fileID, err := uuid.Parse(job.FileID)
	if err != nil {
		return queue.NoRetry(fmt.Errorf("malformed file id %q: %w", job.FileID, err))
	}

	node, err := p.files.GetOwned(ctx, fileID, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			p.logger.Info(ctx, "skipping job for vanished file", "fileId", job.FileID)
			return queue.NoRetry(err)
		}
		return err
	}
	if node.Kind != models.KindImage {
		p.logger.Info(ctx, "skipping job for non-image node", "fileId", job.FileID, "kind", string(node.Kind))
		return nil
	}

	src, err := p.blobs.Get(ctx, node.BlobRef)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return queue.NoRetry(fmt.Errorf("source blob missing for %s: %w", job.FileID, err))
		}
		return err
	}
	raw, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return fmt.Errorf("source blob read for %s: %w", job.FileID, err)
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return queue.NoRetry(fmt.Errorf("undecodable image %s: %w", job.FileID, err))
	}

	format, err := encodeFormat(node.Name, raw)
	if err != nil {
		return queue.NoRetry(fmt.Errorf("unsupported image format %s: %w", job.FileID, err))
	}

	// each width succeeds or fails on its own; one bad width must not
	// block the others
	var failed []error
	for _, width := range models.ThumbnailWidths {
		if err := p.produce(ctx, node, img, format, width); err != nil {
			p.logger.Warn(ctx, "thumbnail width failed", "fileId", job.FileID, "width", width, "error", err.Error())
			failed = append(failed, fmt.Errorf("width %d: %w", width, err))
			continue
		}
	}
	return errors.Join(failed...)
}

// encodeFormat picks the output format for the resized variants: the file
// name's extension when it is a known raster format, otherwise the format
// sniffed from the source bytes. Variants keep the source format so the
// content type later derived from the name stays truthful.
func encodeFormat(name string, raw []byte) (imaging.Format, error) {
	if format, err := imaging.FormatFromFilename(name); err == nil {
		return format, nil
	}
	_, sniffed, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return imaging.PNG, err
	}
	return imaging.FormatFromExtension(sniffed)
}

func (p *ThumbnailPipeline) produce(ctx context.Context, node *models.FileNode, img image.Image, format imaging.Format, width int) error {
	resized := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return err
	}

	ref := blob.DerivedRef(node.BlobRef, width)
	if err := p.blobs.PutRef(ctx, ref, &buf); err != nil {
		return err
	}
	return p.files.RecordThumbnail(ctx, node.ID, width, ref)
}
