package repository

import (
	"context"
	"time"

	"github.com/salaryflow/payroll-backend/pkg/database"
	"github.com/shopspring/decimal"
)

// ReportRepository serves the read side of the period exports: payroll
// details, contribution bases, category assignments and the per-category
// summary. Queries return long-format rows; the export service pivots them.
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// PayrollDetailRow is one (employee, component) amount within a period.
type PayrollDetailRow struct {
	EmployeeCode  *string         `db:"employee_code"`
	FullName      string          `db:"full_name"`
	IDNumber      *string         `db:"id_number"`
	CategoryName  *string         `db:"category_name"`
	ComponentName string          `db:"component_name"`
	Amount        decimal.Decimal `db:"amount"`
}

// PayrollDetails returns every line item of a period joined with employee
// identity and the category effective at the period end.
func (r *ReportRepository) PayrollDetails(ctx context.Context, periodID string, asOf time.Time) ([]PayrollDetailRow, error) {
	query := `
		SELECT e.employee_code, e.full_name, e.id_number,
		       pc.name AS category_name,
		       c.name AS component_name,
		       li.amount
		FROM payroll_line_items li
		JOIN payroll_records pr ON li.record_id = pr.id
		JOIN employees e ON pr.employee_id = e.id
		JOIN pay_components c ON li.component_id = c.id
		LEFT JOIN employee_category_assignments ca
		       ON ca.employee_id = e.id
		      AND ca.effective_start <= $2
		      AND (ca.effective_end IS NULL OR ca.effective_end > $2)
		LEFT JOIN personnel_categories pc ON ca.category_id = pc.id
		WHERE pr.period_id = $1
		ORDER BY COALESCE(pc.name, '未分类'), e.employee_code, e.full_name, c.name
	`

	var rows []PayrollDetailRow
	if err := r.db.SelectContext(ctx, &rows, query, periodID, asOf); err != nil {
		return nil, err
	}

	return rows, nil
}

// ContributionBaseRow is one employee's base for one insurance type.
type ContributionBaseRow struct {
	EmployeeCode *string         `db:"employee_code"`
	FullName     string          `db:"full_name"`
	IDNumber     *string         `db:"id_number"`
	SystemKey    string          `db:"system_key"`
	TypeName     string          `db:"type_name"`
	BaseAmount   decimal.Decimal `db:"base_amount"`
}

// ContributionBases returns the bases effective at the given date for every
// employee that has any.
func (r *ReportRepository) ContributionBases(ctx context.Context, asOf time.Time) ([]ContributionBaseRow, error) {
	query := `
		SELECT e.employee_code, e.full_name, e.id_number,
		       t.system_key, t.name AS type_name,
		       cb.base_amount
		FROM employee_contribution_bases cb
		JOIN employees e ON cb.employee_id = e.id
		JOIN insurance_base_types t ON cb.insurance_type_id = t.id
		WHERE cb.effective_start <= $1
		  AND (cb.effective_end IS NULL OR cb.effective_end > $1)
		ORDER BY e.employee_code, e.full_name, t.system_key
	`

	var rows []ContributionBaseRow
	if err := r.db.SelectContext(ctx, &rows, query, asOf); err != nil {
		return nil, err
	}

	return rows, nil
}

// CategoryAssignmentRow is one employee's category effective at a date.
type CategoryAssignmentRow struct {
	EmployeeCode   *string    `db:"employee_code"`
	FullName       string     `db:"full_name"`
	IDNumber       *string    `db:"id_number"`
	CategoryCode   string     `db:"category_code"`
	CategoryName   string     `db:"category_name"`
	EffectiveStart time.Time  `db:"effective_start"`
	EffectiveEnd   *time.Time `db:"effective_end"`
}

// CategoryAssignments returns the category assignment effective at the given
// date for every assigned employee.
func (r *ReportRepository) CategoryAssignments(ctx context.Context, asOf time.Time) ([]CategoryAssignmentRow, error) {
	query := `
		SELECT e.employee_code, e.full_name, e.id_number,
		       pc.code AS category_code, pc.name AS category_name,
		       ca.effective_start, ca.effective_end
		FROM employee_category_assignments ca
		JOIN employees e ON ca.employee_id = e.id
		JOIN personnel_categories pc ON ca.category_id = pc.id
		WHERE ca.effective_start <= $1
		  AND (ca.effective_end IS NULL OR ca.effective_end > $1)
		ORDER BY pc.code, e.employee_code, e.full_name
	`

	var rows []CategoryAssignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, asOf); err != nil {
		return nil, err
	}

	return rows, nil
}

// CategorySummaryRow aggregates one category's payroll for a period.
type CategorySummaryRow struct {
	CategoryName  string          `db:"category_name" json:"category_name"`
	EmployeeCount int             `db:"employee_count" json:"employee_count"`
	TotalGross    decimal.Decimal `db:"total_gross" json:"total_gross"`
	AvgGross      decimal.Decimal `db:"avg_gross" json:"avg_gross"`
	MinGross      decimal.Decimal `db:"min_gross" json:"min_gross"`
	MaxGross      decimal.Decimal `db:"max_gross" json:"max_gross"`
}

// PeriodSummary returns per-category employee counts and gross-pay
// aggregates for a period, largest categories first.
func (r *ReportRepository) PeriodSummary(ctx context.Context, periodID string, asOf time.Time) ([]CategorySummaryRow, error) {
	query := `
		SELECT COALESCE(pc.name, '未分类') AS category_name,
		       COUNT(*) AS employee_count,
		       ROUND(SUM(g.gross), 2) AS total_gross,
		       ROUND(AVG(g.gross), 2) AS avg_gross,
		       ROUND(MIN(g.gross), 2) AS min_gross,
		       ROUND(MAX(g.gross), 2) AS max_gross
		FROM (
			SELECT pr.employee_id, SUM(li.amount) AS gross
			FROM payroll_records pr
			JOIN payroll_line_items li ON li.record_id = pr.id
			WHERE pr.period_id = $1
			GROUP BY pr.employee_id
		) g
		LEFT JOIN employee_category_assignments ca
		       ON ca.employee_id = g.employee_id
		      AND ca.effective_start <= $2
		      AND (ca.effective_end IS NULL OR ca.effective_end > $2)
		LEFT JOIN personnel_categories pc ON ca.category_id = pc.id
		GROUP BY pc.name
		ORDER BY employee_count DESC, category_name
	`

	var rows []CategorySummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, periodID, asOf); err != nil {
		return nil, err
	}

	return rows, nil
}
