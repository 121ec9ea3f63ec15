package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/safesight/safesight/internal/domain"
)

// CreateInspectionParams holds column values for a new inspection row.
type CreateInspectionParams struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	CompanyID      uuid.UUID
	Status         string
	StartedAt      time.Time
}

const createInspection = `
INSERT INTO inspections (organization_id, user_id, company_id, status, started_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, organization_id, user_id, company_id, status, started_at, completed_at, created_at, updated_at
`

// CreateInspection inserts a new inspection row. This is the only INSERT into
// inspections in the entire codebase; every later mutation is an UPDATE by id.
func (q *Queries) CreateInspection(ctx context.Context, arg CreateInspectionParams) (*domain.Inspection, error) {
	row := q.db.QueryRowContext(ctx, createInspection,
		arg.OrganizationID, arg.UserID, arg.CompanyID, arg.Status, arg.StartedAt)
	return scanInspection(row)
}

const getInspection = `
SELECT i.id, i.organization_id, i.user_id, i.company_id, i.status,
       i.started_at, i.completed_at, i.created_at, i.updated_at,
       c.name AS company_name, u.name AS inspector_name, u.email AS inspector_email
FROM inspections i
JOIN affiliated_companies c ON c.id = i.company_id
JOIN users u ON u.id = i.user_id
WHERE i.id = $1
`

// GetInspectionWithPhotos loads the inspection aggregate: the inspection row
// (with company and inspector context), its photos in capture order, and each
// photo's already-persisted findings. Returns sql.ErrNoRows if the inspection
// does not exist.
func (q *Queries) GetInspectionWithPhotos(ctx context.Context, id uuid.UUID) (*domain.Inspection, error) {
	var insp domain.Inspection
	var completedAt sql.NullTime
	err := q.db.QueryRowContext(ctx, getInspection, id).Scan(
		&insp.ID, &insp.OrganizationID, &insp.UserID, &insp.CompanyID, &insp.Status,
		&insp.StartedAt, &completedAt, &insp.CreatedAt, &insp.UpdatedAt,
		&insp.CompanyName, &insp.InspectorName, &insp.InspectorEmail,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		insp.CompletedAt = &t
	}

	photos, err := q.listPhotosByInspectionID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	insp.Photos = photos

	if err := q.attachFindings(ctx, &insp); err != nil {
		return nil, fmt.Errorf("attach findings: %w", err)
	}

	return &insp, nil
}

const updateInspectionStatus = `
UPDATE inspections
SET status = $2, updated_at = now()
WHERE id = $1
`

// UpdateInspectionStatus updates only the status column, keyed strictly on
// primary key.
func (q *Queries) UpdateInspectionStatus(ctx context.Context, id uuid.UUID, status domain.InspectionStatus) error {
	res, err := q.db.ExecContext(ctx, updateInspectionStatus, id, status.String())
	if err != nil {
		return err
	}
	return requireRowAffected(res, id)
}

const finishInspection = `
UPDATE inspections
SET status = $2, completed_at = $3, updated_at = now()
WHERE id = $1
`

// FinishInspection records a terminal status together with the completion
// timestamp, keyed strictly on primary key.
func (q *Queries) FinishInspection(ctx context.Context, id uuid.UUID, status domain.InspectionStatus, completedAt time.Time) error {
	res, err := q.db.ExecContext(ctx, finishInspection, id, status.String(), completedAt)
	if err != nil {
		return err
	}
	return requireRowAffected(res, id)
}

const getAnalysisStatus = `
SELECT i.status, i.started_at, i.completed_at,
       count(p.id) AS total_photos,
       count(p.id) FILTER (WHERE p.is_analyzed) AS analyzed_photos
FROM inspections i
LEFT JOIN photos p ON p.inspection_id = i.id
WHERE i.id = $1
GROUP BY i.id
`

// GetAnalysisStatus returns the polling read model for an inspection.
func (q *Queries) GetAnalysisStatus(ctx context.Context, id uuid.UUID) (*domain.AnalysisStatus, error) {
	var st domain.AnalysisStatus
	var completedAt sql.NullTime
	err := q.db.QueryRowContext(ctx, getAnalysisStatus, id).Scan(
		&st.Status, &st.StartedAt, &completedAt, &st.TotalPhotos, &st.AnalyzedPhotos,
	)
	if err != nil {
		return nil, err
	}
	st.InspectionID = id
	st.PendingPhotos = st.TotalPhotos - st.AnalyzedPhotos
	if completedAt.Valid {
		t := completedAt.Time
		st.CompletedAt = &t
	}
	return &st, nil
}

const countInspectionPhotos = `
SELECT count(*) FROM photos
WHERE inspection_id = $1 AND id = ANY($2::uuid[])
`

// CountInspectionPhotos counts how many of the given photo ids belong to the
// inspection. Used to validate analysis requests before enqueueing.
func (q *Queries) CountInspectionPhotos(ctx context.Context, inspectionID uuid.UUID, photoIDs []uuid.UUID) (int, error) {
	ids := make([]string, len(photoIDs))
	for i, id := range photoIDs {
		ids[i] = id.String()
	}
	var n int
	err := q.db.QueryRowContext(ctx, countInspectionPhotos, inspectionID, pq.Array(ids)).Scan(&n)
	return n, err
}

func scanInspection(row *sql.Row) (*domain.Inspection, error) {
	var insp domain.Inspection
	var completedAt sql.NullTime
	err := row.Scan(
		&insp.ID, &insp.OrganizationID, &insp.UserID, &insp.CompanyID, &insp.Status,
		&insp.StartedAt, &completedAt, &insp.CreatedAt, &insp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		insp.CompletedAt = &t
	}
	return &insp, nil
}

// requireRowAffected turns a zero-row UPDATE into sql.ErrNoRows so callers
// can distinguish "missing inspection" from success.
func requireRowAffected(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("inspection %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
