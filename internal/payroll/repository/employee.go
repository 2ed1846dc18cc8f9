package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/database"
)

// EmployeeRepository reads canonical employee identities. The import engine
// never creates employees; it only resolves against them.
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByIDNumbers returns all employees whose national ID number is in the
// given set. One query per batch keeps the resolver at O(1) round trips.
func (r *EmployeeRepository) FindByIDNumbers(ctx context.Context, idNumbers []string) ([]domain.Employee, error) {
	if len(idNumbers) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, employee_code, full_name, id_number
		FROM employees
		WHERE id_number IN (?) AND deleted_at IS NULL
	`, idNumbers)
	if err != nil {
		return nil, err
	}

	var employees []domain.Employee
	if err := r.db.SelectContext(ctx, &employees, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return employees, nil
}

// FindByNames returns all employees whose full name matches exactly.
// Duplicate names come back as multiple rows; disambiguation is the
// resolver's concern, not the repository's.
func (r *EmployeeRepository) FindByNames(ctx context.Context, names []string) ([]domain.Employee, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, employee_code, full_name, id_number
		FROM employees
		WHERE full_name IN (?) AND deleted_at IS NULL
	`, names)
	if err != nil {
		return nil, err
	}

	var employees []domain.Employee
	if err := r.db.SelectContext(ctx, &employees, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return employees, nil
}
