package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/database"
	"github.com/salaryflow/payroll-backend/pkg/errors"
)

// PeriodRepository handles pay period persistence
type PeriodRepository struct {
	db *database.DB
}

// NewPeriodRepository creates a new period repository
func NewPeriodRepository(db *database.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// GetByID gets a pay period by ID
func (r *PeriodRepository) GetByID(ctx context.Context, id string) (*domain.PayPeriod, error) {
	var period domain.PayPeriod

	query := `
		SELECT id, name, start_date, end_date, pay_date
		FROM payroll_periods
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &period, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("pay period")
	}
	if err != nil {
		return nil, err
	}

	return &period, nil
}

// FindByMonth finds the most recent period whose name matches a YYYY-MM
// month key. Period names follow the legacy convention "2025年06月".
func (r *PeriodRepository) FindByMonth(ctx context.Context, month string) (*domain.PayPeriod, error) {
	if len(month) != 7 || month[4] != '-' {
		return nil, errors.BadRequest("month must be in YYYY-MM format")
	}

	name := fmt.Sprintf("%%%s年%s月%%", month[:4], month[5:7])

	var period domain.PayPeriod
	query := `
		SELECT id, name, start_date, end_date, pay_date
		FROM payroll_periods
		WHERE name LIKE $1
		ORDER BY start_date DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &period, query, name)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("pay period")
	}
	if err != nil {
		return nil, err
	}

	return &period, nil
}

// List lists pay periods, newest first
func (r *PeriodRepository) List(ctx context.Context, limit int) ([]domain.PayPeriod, error) {
	if limit <= 0 {
		limit = 24
	}

	var periods []domain.PayPeriod
	query := `
		SELECT id, name, start_date, end_date, pay_date
		FROM payroll_periods
		ORDER BY start_date DESC
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &periods, query, limit); err != nil {
		return nil, err
	}

	return periods, nil
}

// Create creates a new pay period
func (r *PeriodRepository) Create(ctx context.Context, period *domain.PayPeriod) error {
	if period.ID == "" {
		period.ID = uuid.New().String()
	}

	query := `
		INSERT INTO payroll_periods (id, name, start_date, end_date, pay_date)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		period.ID, period.Name, period.StartDate, period.EndDate, period.PayDate,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}
