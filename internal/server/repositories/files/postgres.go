package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const nodeColumns = `id, owner_id, name, kind, parent_id, is_public, blob_ref, thumbnails`

func (r *PostgresRepository) Create(ctx context.Context, node *models.FileNode) (*models.FileNode, error) {

	query :=
		`INSERT INTO files (owner_id, name, kind, parent_id, is_public, blob_ref)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		node.OwnerID, node.Name, string(node.Kind), parentArg(node.Parent), node.IsPublic, blobArg(node.BlobRef),
	).Scan(&node.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return node, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FileNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM files WHERE id = $1`
	return scanNode(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.FileNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM files WHERE id = $1 AND owner_id = $2`
	return scanNode(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// List returns the owner's children of parent in insertion order.
func (r *PostgresRepository) List(ctx context.Context, ownerID uuid.UUID, parent models.Parent, limit, offset int) ([]*models.FileNode, error) {
	query :=
		`SELECT ` + nodeColumns + ` FROM files
		 WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		 ORDER BY seq
		 LIMIT $3 OFFSET $4
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID, parentArg(parent), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	nodes := []*models.FileNode{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return nodes, nil
}

// SetPublic flips visibility in one atomic statement scoped to (id, owner).
func (r *PostgresRepository) SetPublic(ctx context.Context, id, ownerID uuid.UUID, public bool) (*models.FileNode, error) {
	query :=
		`UPDATE files SET is_public = $3
		 WHERE id = $1 AND owner_id = $2
		 RETURNING ` + nodeColumns

	return scanNode(r.db.QueryRowContext(ctx, query, id, ownerID, public))
}

// RecordThumbnail merges one width slot into the thumbnails map. Rerunning
// the same job overwrites the slot with an identical value, so redelivery
// is harmless.
func (r *PostgresRepository) RecordThumbnail(ctx context.Context, id uuid.UUID, width int, blobRef string) error {
	query :=
		`UPDATE files SET thumbnails = thumbnails || jsonb_build_object($2::text, $3::text)
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, strconv.Itoa(width), blobRef)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// --- row mapping helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*models.FileNode, error) {
	var (
		node    models.FileNode
		kind    string
		parent  uuid.NullUUID
		blobRef sql.NullString
		thumbs  []byte
	)

	err := row.Scan(&node.ID, &node.OwnerID, &node.Name, &kind, &parent, &node.IsPublic, &blobRef, &thumbs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	node.Kind = models.Kind(kind)
	if parent.Valid {
		node.Parent = models.ParentOf(parent.UUID)
	} else {
		node.Parent = models.RootParent()
	}
	node.BlobRef = blobRef.String

	thumbnails, err := decodeThumbnails(thumbs)
	if err != nil {
		return nil, err
	}
	node.Thumbnails = thumbnails

	return &node, nil
}

func decodeThumbnails(raw []byte) (map[int]string, error) {
	if len(raw) == 0 {
		return map[int]string{}, nil
	}
	byWidth := map[string]string{}
	if err := json.Unmarshal(raw, &byWidth); err != nil {
		return nil, fmt.Errorf("thumbnails decode error: %w", err)
	}
	out := make(map[int]string, len(byWidth))
	for k, v := range byWidth {
		w, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("thumbnails decode error: bad width %q", k)
		}
		out[w] = v
	}
	return out, nil
}

func parentArg(p models.Parent) uuid.NullUUID {
	if id, ok := p.ID(); ok {
		return uuid.NullUUID{UUID: id, Valid: true}
	}
	return uuid.NullUUID{}
}

func blobArg(ref string) sql.NullString {
	if ref == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: ref, Valid: true}
}
