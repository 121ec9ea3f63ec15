package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/safesight/safesight/internal/domain"
	"github.com/safesight/safesight/internal/repository"
)

// CompanyService defines the interface for affiliated company management.
type CompanyService interface {
	// Create registers a new affiliated company for an organization.
	Create(ctx context.Context, params domain.CreateCompanyParams) (*domain.AffiliatedCompany, error)

	// List returns the organization's active companies.
	List(ctx context.Context, orgID uuid.UUID) ([]domain.AffiliatedCompany, error)

	// Deactivate soft-deletes a company. Inspections referencing it are
	// untouched; the company simply stops appearing in lists. Returns
	// domain.ENOTFOUND if no active company matches within the organization.
	Deactivate(ctx context.Context, orgID, companyID uuid.UUID) error

	// AssignInspector grants an inspector access to a company. Idempotent.
	AssignInspector(ctx context.Context, userID, companyID uuid.UUID) error
}

type companyService struct {
	store  *repository.Store
	logger *slog.Logger
}

// NewCompanyService creates a CompanyService.
func NewCompanyService(store *repository.Store, logger *slog.Logger) CompanyService {
	return &companyService{
		store:  store,
		logger: logger,
	}
}

// Create registers a new affiliated company.
func (s *companyService) Create(ctx context.Context, params domain.CreateCompanyParams) (*domain.AffiliatedCompany, error) {
	const op = "company.create"

	if params.OrganizationID == uuid.Nil {
		return nil, domain.Invalid(op, "organization id is required")
	}
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return nil, domain.Invalid(op, "company name is required")
	}

	company, err := s.store.CreateCompany(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create company")
	}

	s.logger.Info("company created", "company_id", company.ID, "organization_id", params.OrganizationID)
	return company, nil
}

// List returns the organization's active companies.
func (s *companyService) List(ctx context.Context, orgID uuid.UUID) ([]domain.AffiliatedCompany, error) {
	const op = "company.list"

	companies, err := s.store.ListCompaniesByOrganization(ctx, orgID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list companies")
	}
	return companies, nil
}

// Deactivate soft-deletes a company within its organization.
func (s *companyService) Deactivate(ctx context.Context, orgID, companyID uuid.UUID) error {
	const op = "company.deactivate"

	affected, err := s.store.DeactivateCompany(ctx, companyID, orgID)
	if err != nil {
		return domain.Internal(err, op, "failed to deactivate company")
	}
	if affected == 0 {
		return domain.NotFound(op, "company", companyID.String())
	}

	s.logger.Info("company deactivated", "company_id", companyID, "organization_id", orgID)
	return nil
}

// AssignInspector grants an inspector access to a company.
func (s *companyService) AssignInspector(ctx context.Context, userID, companyID uuid.UUID) error {
	const op = "company.assign_inspector"

	// Both sides must exist; a missing row is a client error, not a
	// foreign key violation surfaced as internal.
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "user", userID.String())
		}
		return domain.Internal(err, op, "failed to verify user")
	}
	if _, err := s.store.GetCompanyByID(ctx, companyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "company", companyID.String())
		}
		return domain.Internal(err, op, "failed to verify company")
	}

	if err := s.store.AssignUserToCompany(ctx, userID, companyID); err != nil {
		return domain.Internal(err, op, "failed to assign inspector")
	}

	s.logger.Info("inspector assigned", "user_id", userID, "company_id", companyID)
	return nil
}
