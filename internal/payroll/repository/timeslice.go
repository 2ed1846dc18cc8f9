package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/database"
	"github.com/shopspring/decimal"
)

// AssignmentRepository writes effective-dated assignment slices. Applying a
// new fact closes the currently open slice for the dimension at the new
// effective start and inserts a fresh open slice in one atomic unit, so the
// dimension never ends up with a half-applied pair.
//
// Each slice table carries a partial unique index on the open slice
// (scope columns WHERE effective_end IS NULL). A unique violation on the
// insert means a concurrent writer won the race; the close/insert pair is
// retried once in a fresh transaction.
type AssignmentRepository struct {
	db *database.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *database.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// sliceDimension describes one effective-dated table: the columns that scope
// the open-slice uniqueness and the columns carrying the fact payload.
type sliceDimension struct {
	table     string
	scopeCols []string
	factCols  []string
}

var (
	categoryDimension = sliceDimension{
		table:     "employee_category_assignments",
		scopeCols: []string{"employee_id"},
		factCols:  []string{"category_id"},
	}
	jobDimension = sliceDimension{
		table:     "employee_job_assignments",
		scopeCols: []string{"employee_id"},
		factCols:  []string{"department", "position", "job_rank"},
	}
	contributionDimension = sliceDimension{
		table:     "employee_contribution_bases",
		scopeCols: []string{"employee_id", "insurance_type_id"},
		factCols:  []string{"base_amount"},
	}
)

// ApplyCategorySlice records a personnel category assignment effective from
// the given date. Returns whether the write was back-dated relative to the
// slice it closed.
func (r *AssignmentRepository) ApplyCategorySlice(ctx context.Context, employeeID, categoryID string, effectiveStart time.Time) (bool, error) {
	return r.applySliceWithRetry(ctx, categoryDimension,
		[]interface{}{employeeID},
		[]interface{}{categoryID},
		effectiveStart,
	)
}

// ApplyJobSlice records a job assignment (department/position/rank) slice.
func (r *AssignmentRepository) ApplyJobSlice(ctx context.Context, employeeID string, fact domain.JobFact, effectiveStart time.Time) (bool, error) {
	return r.applySliceWithRetry(ctx, jobDimension,
		[]interface{}{employeeID},
		[]interface{}{nullable(fact.Department), nullable(fact.Position), nullable(fact.JobRank)},
		effectiveStart,
	)
}

// ApplyContributionBaseSlice records a contribution base for one insurance
// type. The insurance type is part of the dimension scope: bases for
// different types are independent timelines.
func (r *AssignmentRepository) ApplyContributionBaseSlice(ctx context.Context, employeeID, insuranceTypeID string, amount decimal.Decimal, effectiveStart time.Time) (bool, error) {
	return r.applySliceWithRetry(ctx, contributionDimension,
		[]interface{}{employeeID, insuranceTypeID},
		[]interface{}{amount},
		effectiveStart,
	)
}

func (r *AssignmentRepository) applySliceWithRetry(ctx context.Context, dim sliceDimension, scope, fact []interface{}, start time.Time) (bool, error) {
	backdated, err := r.applySlice(ctx, dim, scope, fact, start)
	if err != nil && database.IsUniqueViolation(err) {
		// Lost the open-slice race; the other writer's slice is now the one
		// to close.
		backdated, err = r.applySlice(ctx, dim, scope, fact, start)
	}
	return backdated, err
}

// applySlice runs the close/insert pair in one transaction:
//  1. find the open slice for the dimension scope (FOR UPDATE),
//  2. if found, close it at the new effective start (no gap, no overlap),
//  3. insert the new open slice.
//
// A new start at or before the open slice's start is a back-dated
// correction. The pair is applied unchanged (history rewriting is not this
// engine's call) and the caller is told so it can attach a warning.
func (r *AssignmentRepository) applySlice(ctx context.Context, dim sliceDimension, scope, fact []interface{}, start time.Time) (bool, error) {
	backdated := false

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		selectQuery := fmt.Sprintf(`
			SELECT id, effective_start
			FROM %s
			WHERE %s AND effective_end IS NULL
			FOR UPDATE
		`, dim.table, scopeClause(dim.scopeCols, 1))

		var open struct {
			ID             string    `db:"id"`
			EffectiveStart time.Time `db:"effective_start"`
		}
		err := tx.GetContext(ctx, &open, selectQuery, scope...)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		if err == nil {
			backdated = !start.After(open.EffectiveStart)

			closeQuery := fmt.Sprintf(`
				UPDATE %s SET effective_end = $1 WHERE id = $2
			`, dim.table)
			if _, err := tx.ExecContext(ctx, closeQuery, start, open.ID); err != nil {
				return err
			}
		}

		cols := append(append([]string{"id"}, dim.scopeCols...), dim.factCols...)
		cols = append(cols, "effective_start", "effective_end")

		args := append([]interface{}{uuid.New().String()}, scope...)
		args = append(args, fact...)
		args = append(args, start, nil)

		insertQuery := fmt.Sprintf(`
			INSERT INTO %s (%s) VALUES (%s)
		`, dim.table, strings.Join(cols, ", "), placeholders(len(cols)))

		_, err = tx.ExecContext(ctx, insertQuery, args...)
		return err
	})

	return backdated, err
}

// ListCategorySlices returns every category slice for one employee, oldest
// first.
func (r *AssignmentRepository) ListCategorySlices(ctx context.Context, employeeID string) ([]domain.TimeSlice, error) {
	return r.listSlices(ctx, categoryDimension, employeeID)
}

func (r *AssignmentRepository) listSlices(ctx context.Context, dim sliceDimension, employeeID string) ([]domain.TimeSlice, error) {
	query := fmt.Sprintf(`
		SELECT id, employee_id, effective_start, effective_end
		FROM %s
		WHERE employee_id = $1
		ORDER BY effective_start
	`, dim.table)

	var slices []domain.TimeSlice
	if err := r.db.SelectContext(ctx, &slices, query, employeeID); err != nil {
		return nil, err
	}

	return slices, nil
}

func scopeClause(cols []string, start int) string {
	parts := make([]string, 0, len(cols))
	for i, col := range cols {
		parts = append(parts, fmt.Sprintf("%s = $%d", col, start+i))
	}
	return strings.Join(parts, " AND ")
}

func placeholders(n int) string {
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, fmt.Sprintf("$%d", i))
	}
	return strings.Join(parts, ", ")
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
