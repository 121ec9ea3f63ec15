package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/safesight/safesight/internal/domain"
)

const createOrganization = `
INSERT INTO organizations (name)
VALUES ($1)
RETURNING id, name, created_at
`

// CreateOrganization inserts a new tenant.
func (q *Queries) CreateOrganization(ctx context.Context, name string) (*domain.Organization, error) {
	var org domain.Organization
	err := q.db.QueryRowContext(ctx, createOrganization, name).
		Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// CreateUserParams holds column values for a new user row.
type CreateUserParams struct {
	OrganizationID uuid.UUID
	Name           string
	Email          string
	Role           domain.UserRole
}

const createUser = `
INSERT INTO users (organization_id, name, email, role)
VALUES ($1, $2, $3, $4)
RETURNING id, organization_id, name, email, role, created_at, updated_at
`

// CreateUser inserts a new organization member.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*domain.User, error) {
	var u domain.User
	err := q.db.QueryRowContext(ctx, createUser,
		arg.OrganizationID, arg.Name, arg.Email, arg.Role.String()).
		Scan(&u.ID, &u.OrganizationID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const getUserByID = `
SELECT id, organization_id, name, email, role, created_at, updated_at
FROM users
WHERE id = $1
`

// GetUserByID fetches one user.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := q.db.QueryRowContext(ctx, getUserByID, id).
		Scan(&u.ID, &u.OrganizationID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const createCompany = `
INSERT INTO affiliated_companies (organization_id, name, contact_email)
VALUES ($1, $2, NULLIF($3, ''))
RETURNING id, organization_id, name, COALESCE(contact_email, ''), is_active, created_at, updated_at
`

// CreateCompany inserts a new affiliated company for a tenant.
func (q *Queries) CreateCompany(ctx context.Context, arg domain.CreateCompanyParams) (*domain.AffiliatedCompany, error) {
	var c domain.AffiliatedCompany
	err := q.db.QueryRowContext(ctx, createCompany, arg.OrganizationID, arg.Name, arg.ContactEmail).
		Scan(&c.ID, &c.OrganizationID, &c.Name, &c.ContactEmail, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const getCompanyByID = `
SELECT id, organization_id, name, COALESCE(contact_email, ''), is_active, created_at, updated_at
FROM affiliated_companies
WHERE id = $1
`

// GetCompanyByID fetches one affiliated company.
func (q *Queries) GetCompanyByID(ctx context.Context, id uuid.UUID) (*domain.AffiliatedCompany, error) {
	var c domain.AffiliatedCompany
	err := q.db.QueryRowContext(ctx, getCompanyByID, id).
		Scan(&c.ID, &c.OrganizationID, &c.Name, &c.ContactEmail, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const listCompaniesByOrganization = `
SELECT id, organization_id, name, COALESCE(contact_email, ''), is_active, created_at, updated_at
FROM affiliated_companies
WHERE organization_id = $1 AND is_active = true
ORDER BY name
`

// ListCompaniesByOrganization returns a tenant's active companies.
func (q *Queries) ListCompaniesByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.AffiliatedCompany, error) {
	rows, err := q.db.QueryContext(ctx, listCompaniesByOrganization, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []domain.AffiliatedCompany
	for rows.Next() {
		var c domain.AffiliatedCompany
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.ContactEmail,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

const deactivateCompany = `
UPDATE affiliated_companies
SET is_active = false, updated_at = now()
WHERE id = $1 AND organization_id = $2
`

// DeactivateCompany soft-deletes a company. Companies are never hard-deleted
// because inspections keep referencing them for audit history.
func (q *Queries) DeactivateCompany(ctx context.Context, id, orgID uuid.UUID) (int64, error) {
	res, err := q.db.ExecContext(ctx, deactivateCompany, id, orgID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const assignUserToCompany = `
INSERT INTO user_company_assignments (user_id, company_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

// AssignUserToCompany links an inspector to a company. Idempotent.
func (q *Queries) AssignUserToCompany(ctx context.Context, userID, companyID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, assignUserToCompany, userID, companyID)
	return err
}

const getOrganizationSettings = `
SELECT organization_id, optimize_images, image_max_width, image_quality,
       generate_thumbs, thumbnail_width, thumbnail_quality, analysis_prompt, updated_at
FROM organization_settings
WHERE organization_id = $1
`

// GetOrganizationSettings fetches a tenant's stored settings. Returns
// sql.ErrNoRows when the tenant has never materialized settings; callers fall
// back to domain.DefaultOrganizationSettings.
func (q *Queries) GetOrganizationSettings(ctx context.Context, orgID uuid.UUID) (*domain.OrganizationSettings, error) {
	var s domain.OrganizationSettings
	err := q.db.QueryRowContext(ctx, getOrganizationSettings, orgID).
		Scan(&s.OrganizationID, &s.OptimizeImages, &s.ImageMaxWidth, &s.ImageQuality,
			&s.GenerateThumbs, &s.ThumbnailWidth, &s.ThumbnailQuality, &s.AnalysisPrompt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const upsertOrganizationSettings = `
INSERT INTO organization_settings (organization_id, optimize_images, image_max_width, image_quality,
                                   generate_thumbs, thumbnail_width, thumbnail_quality, analysis_prompt, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (organization_id) DO UPDATE SET
    optimize_images = EXCLUDED.optimize_images,
    image_max_width = EXCLUDED.image_max_width,
    image_quality = EXCLUDED.image_quality,
    generate_thumbs = EXCLUDED.generate_thumbs,
    thumbnail_width = EXCLUDED.thumbnail_width,
    thumbnail_quality = EXCLUDED.thumbnail_quality,
    analysis_prompt = EXCLUDED.analysis_prompt,
    updated_at = now()
RETURNING organization_id, optimize_images, image_max_width, image_quality,
          generate_thumbs, thumbnail_width, thumbnail_quality, analysis_prompt, updated_at
`

// UpsertOrganizationSettings writes a tenant's settings, creating the row on
// first write. The settings row is keyed 1:1 on organization id.
func (q *Queries) UpsertOrganizationSettings(ctx context.Context, s *domain.OrganizationSettings) (*domain.OrganizationSettings, error) {
	var out domain.OrganizationSettings
	err := q.db.QueryRowContext(ctx, upsertOrganizationSettings,
		s.OrganizationID, s.OptimizeImages, s.ImageMaxWidth, s.ImageQuality,
		s.GenerateThumbs, s.ThumbnailWidth, s.ThumbnailQuality, s.AnalysisPrompt).
		Scan(&out.OrganizationID, &out.OptimizeImages, &out.ImageMaxWidth, &out.ImageQuality,
			&out.GenerateThumbs, &out.ThumbnailWidth, &out.ThumbnailQuality, &out.AnalysisPrompt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
