package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/safesight/safesight/internal/domain"
)

// CreateFindingParams holds column values for a new finding row. Findings are
// keyed directly by photo id; they never pass through the parent inspection's
// in-memory collection on their way to the database.
type CreateFindingParams struct {
	PhotoID          uuid.UUID
	Description      string
	RiskLevel        domain.RiskLevel
	CorrectiveAction string
	PreventiveAction string
	RawResponse      pqtype.NullRawMessage
}

const createFinding = `
INSERT INTO findings (photo_id, description, risk_level, corrective_action, preventive_action, raw_response)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, photo_id, description, risk_level, corrective_action, preventive_action, created_at
`

// CreateFinding inserts one finding row for a photo.
func (q *Queries) CreateFinding(ctx context.Context, arg CreateFindingParams) (*domain.Finding, error) {
	row := q.db.QueryRowContext(ctx, createFinding,
		arg.PhotoID, arg.Description, arg.RiskLevel.String(),
		arg.CorrectiveAction, arg.PreventiveAction, arg.RawResponse)
	var f domain.Finding
	err := row.Scan(&f.ID, &f.PhotoID, &f.Description, &f.RiskLevel,
		&f.CorrectiveAction, &f.PreventiveAction, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if arg.RawResponse.Valid {
		f.RawResponse = arg.RawResponse.RawMessage
	}
	return &f, nil
}

const listFindingsByInspectionID = `
SELECT f.id, f.photo_id, f.description, f.risk_level, f.corrective_action, f.preventive_action, f.created_at
FROM findings f
JOIN photos p ON p.id = f.photo_id
WHERE p.inspection_id = $1
ORDER BY f.created_at
`

// attachFindings populates each photo's Findings slice from the database.
func (q *Queries) attachFindings(ctx context.Context, insp *domain.Inspection) error {
	rows, err := q.db.QueryContext(ctx, listFindingsByInspectionID, insp.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	byPhoto := make(map[uuid.UUID][]domain.Finding)
	for rows.Next() {
		var f domain.Finding
		if err := rows.Scan(&f.ID, &f.PhotoID, &f.Description, &f.RiskLevel,
			&f.CorrectiveAction, &f.PreventiveAction, &f.CreatedAt); err != nil {
			return err
		}
		byPhoto[f.PhotoID] = append(byPhoto[f.PhotoID], f)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range insp.Photos {
		insp.Photos[i].Findings = byPhoto[insp.Photos[i].ID]
	}
	return nil
}
