package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/database"
)

// ComponentRepository reads the canonical catalogs: pay components,
// insurance base types and personnel categories. All read-only to the
// import engine.
type ComponentRepository struct {
	db *database.DB
}

// NewComponentRepository creates a new component repository
func NewComponentRepository(db *database.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

// FindComponentsByNames returns the pay components whose display name is in
// the given set. Unmatched names are simply absent from the result.
func (r *ComponentRepository) FindComponentsByNames(ctx context.Context, names []string) ([]domain.PayComponent, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, code, name
		FROM pay_components
		WHERE name IN (?)
	`, names)
	if err != nil {
		return nil, err
	}

	var components []domain.PayComponent
	if err := r.db.SelectContext(ctx, &components, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return components, nil
}

// ListInsuranceTypes returns the full contribution-base catalog. The stable
// system key, not the display name, is the join key for base writes.
func (r *ComponentRepository) ListInsuranceTypes(ctx context.Context) ([]domain.InsuranceBaseType, error) {
	var types []domain.InsuranceBaseType

	query := `
		SELECT id, system_key, name
		FROM insurance_base_types
		ORDER BY system_key
	`

	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, err
	}

	return types, nil
}

// FindCategoriesByNames returns personnel categories matching the given
// display names.
func (r *ComponentRepository) FindCategoriesByNames(ctx context.Context, names []string) ([]domain.PersonnelCategory, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, code, name
		FROM personnel_categories
		WHERE name IN (?)
	`, names)
	if err != nil {
		return nil, err
	}

	var categories []domain.PersonnelCategory
	if err := r.db.SelectContext(ctx, &categories, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return categories, nil
}
