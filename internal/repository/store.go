package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/safesight/safesight/internal/domain"
)

// CreateInspectionWithPhotosParams creates an inspection and its photo rows in
// one transaction.
type CreateInspectionWithPhotosParams struct {
	Inspection CreateInspectionParams
	Photos     []CreatePhotoParams
}

// CreateInspectionWithPhotos atomically inserts the inspection and all of its
// photo rows. Either the whole aggregate lands or none of it does.
func (s *Store) CreateInspectionWithPhotos(ctx context.Context, arg CreateInspectionWithPhotosParams) (*domain.Inspection, error) {
	var insp *domain.Inspection
	err := s.execTx(ctx, func(q *Queries) error {
		var err error
		insp, err = q.CreateInspection(ctx, arg.Inspection)
		if err != nil {
			return fmt.Errorf("create inspection: %w", err)
		}
		for _, pp := range arg.Photos {
			pp.InspectionID = insp.ID
			photo, err := q.CreatePhoto(ctx, pp)
			if err != nil {
				return fmt.Errorf("create photo: %w", err)
			}
			insp.Photos = append(insp.Photos, *photo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return insp, nil
}

// SaveAnalyzedPhoto commits one photo's analysis outcome atomically: every
// finding row plus the is_analyzed flag land in a single transaction, so a
// photo is never marked analyzed with only some of its findings persisted.
func (s *Store) SaveAnalyzedPhoto(ctx context.Context, photoID uuid.UUID, findings []CreateFindingParams) error {
	return s.execTx(ctx, func(q *Queries) error {
		for _, fp := range findings {
			fp.PhotoID = photoID
			if _, err := q.CreateFinding(ctx, fp); err != nil {
				return fmt.Errorf("create finding: %w", err)
			}
		}
		if err := q.MarkPhotoAnalyzed(ctx, photoID); err != nil {
			return fmt.Errorf("mark photo analyzed: %w", err)
		}
		return nil
	})
}
