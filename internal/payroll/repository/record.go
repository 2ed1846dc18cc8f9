package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/database"
)

// RecordRepository handles payroll record persistence. A payroll record is
// the per-employee, per-period container monetary line items attach to.
type RecordRepository struct {
	db *database.DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *database.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// GetByEmployeeAndPeriod gets the record for an (employee, period) pair.
// Returns (nil, nil) when no record exists.
func (r *RecordRepository) GetByEmployeeAndPeriod(ctx context.Context, employeeID, periodID string) (*domain.PayrollRecord, error) {
	var record domain.PayrollRecord

	query := `
		SELECT id, employee_id, period_id, status, pay_date
		FROM payroll_records
		WHERE employee_id = $1 AND period_id = $2
	`

	err := r.db.GetContext(ctx, &record, query, employeeID, periodID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Ensure finds the record for (employee, period), creating a draft one when
// the import mode permits. Returns (nil, nil) when the record is absent and
// the mode forbids creation; the caller treats that as a failed row.
//
// The check-then-insert here is only an optimization. The real duplicate
// guard is the UNIQUE(employee_id, period_id) constraint: a unique violation
// on insert means a concurrent worker created the record first, so the row
// is re-fetched instead of failing.
func (r *RecordRepository) Ensure(ctx context.Context, employeeID string, period domain.PayPeriod, mode domain.ImportMode) (*domain.PayrollRecord, error) {
	existing, err := r.GetByEmployeeAndPeriod(ctx, employeeID, period.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if !mode.AllowsCreate() {
		return nil, nil
	}

	record := &domain.PayrollRecord{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		PeriodID:   period.ID,
		Status:     domain.RecordStatusDraft,
		PayDate:    period.EndDate,
	}

	query := `
		INSERT INTO payroll_records (id, employee_id, period_id, status, pay_date)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID, record.EmployeeID, record.PeriodID, record.Status, record.PayDate,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return r.GetByEmployeeAndPeriod(ctx, employeeID, period.ID)
		}
		return nil, err
	}

	return record, nil
}
