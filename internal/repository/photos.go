package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/safesight/safesight/internal/domain"
)

// CreatePhotoParams holds column values for a new photo row.
type CreatePhotoParams struct {
	InspectionID uuid.UUID
	StorageKey   string
	ThumbnailKey string
	ContentType  string
	SizeBytes    int64
	CapturedAt   time.Time
}

const createPhoto = `
INSERT INTO photos (inspection_id, storage_key, thumbnail_key, content_type, size_bytes, captured_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
RETURNING id, inspection_id, storage_key, COALESCE(thumbnail_key, ''), content_type, size_bytes, captured_at, is_analyzed, created_at, updated_at
`

// CreatePhoto inserts a photo row for an inspection.
func (q *Queries) CreatePhoto(ctx context.Context, arg CreatePhotoParams) (*domain.Photo, error) {
	row := q.db.QueryRowContext(ctx, createPhoto,
		arg.InspectionID, arg.StorageKey, arg.ThumbnailKey, arg.ContentType, arg.SizeBytes, arg.CapturedAt)
	var p domain.Photo
	err := row.Scan(&p.ID, &p.InspectionID, &p.StorageKey, &p.ThumbnailKey,
		&p.ContentType, &p.SizeBytes, &p.CapturedAt, &p.IsAnalyzed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const listPhotosByInspectionID = `
SELECT id, inspection_id, storage_key, COALESCE(thumbnail_key, ''), content_type, size_bytes, captured_at, is_analyzed, created_at, updated_at
FROM photos
WHERE inspection_id = $1
ORDER BY captured_at, created_at
`

func (q *Queries) listPhotosByInspectionID(ctx context.Context, inspectionID uuid.UUID) ([]domain.Photo, error) {
	rows, err := q.db.QueryContext(ctx, listPhotosByInspectionID, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []domain.Photo
	for rows.Next() {
		var p domain.Photo
		if err := rows.Scan(&p.ID, &p.InspectionID, &p.StorageKey, &p.ThumbnailKey,
			&p.ContentType, &p.SizeBytes, &p.CapturedAt, &p.IsAnalyzed, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

const markPhotoAnalyzed = `
UPDATE photos
SET is_analyzed = true, updated_at = now()
WHERE id = $1
`

// MarkPhotoAnalyzed flips the idempotence guard for a photo. The flag only
// ever moves false -> true.
func (q *Queries) MarkPhotoAnalyzed(ctx context.Context, photoID uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, markPhotoAnalyzed, photoID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
