package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/internal/payroll/repository"
	"github.com/salaryflow/payroll-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// utf8BOM makes Excel open the CSV as UTF-8 instead of GBK.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReportStore serves the read queries behind the period exports.
type ReportStore interface {
	PayrollDetails(ctx context.Context, periodID string, asOf time.Time) ([]repository.PayrollDetailRow, error)
	ContributionBases(ctx context.Context, asOf time.Time) ([]repository.ContributionBaseRow, error)
	CategoryAssignments(ctx context.Context, asOf time.Time) ([]repository.CategoryAssignmentRow, error)
	PeriodSummary(ctx context.Context, periodID string, asOf time.Time) ([]repository.CategorySummaryRow, error)
}

// ExportService produces the operator-facing CSV exports and the per-period
// summary. Long-format rows from the report store are pivoted into one line
// per employee with value columns in first-seen order.
type ExportService struct {
	reports ReportStore
	periods PeriodStore
	log     *logger.Logger
}

// NewExportService creates an export service.
func NewExportService(reports ReportStore, periods PeriodStore, log *logger.Logger) *ExportService {
	return &ExportService{
		reports: reports,
		periods: periods,
		log:     log.WithComponent("export-service"),
	}
}

// ExportPayrollDetails renders a period's line items as CSV, one row per
// employee with a column per pay component and a trailing total.
func (s *ExportService) ExportPayrollDetails(ctx context.Context, periodID string) ([]byte, error) {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}

	rows, err := s.reports.PayrollDetails(ctx, periodID, period.EndDate)
	if err != nil {
		return nil, err
	}

	type employeeLine struct {
		code     string
		name     string
		idNumber string
		category string
		amounts  map[string]decimal.Decimal
		total    decimal.Decimal
	}

	var componentOrder []string
	seenComponent := make(map[string]bool)
	componentTotals := make(map[string]decimal.Decimal)
	var lineOrder []string
	lines := make(map[string]*employeeLine)

	for _, r := range rows {
		key := r.FullName
		if r.IDNumber != nil {
			key = *r.IDNumber
		}
		line, ok := lines[key]
		if !ok {
			line = &employeeLine{
				code:     deref(r.EmployeeCode),
				name:     r.FullName,
				idNumber: deref(r.IDNumber),
				category: derefOr(r.CategoryName, "未分类"),
				amounts:  make(map[string]decimal.Decimal),
			}
			lines[key] = line
			lineOrder = append(lineOrder, key)
		}
		if !seenComponent[r.ComponentName] {
			seenComponent[r.ComponentName] = true
			componentOrder = append(componentOrder, r.ComponentName)
		}
		line.amounts[r.ComponentName] = line.amounts[r.ComponentName].Add(r.Amount)
		line.total = line.total.Add(r.Amount)
		componentTotals[r.ComponentName] = componentTotals[r.ComponentName].Add(r.Amount)
	}

	// Columns that are zero for every employee carry no information and
	// clutter the sheet; drop them.
	kept := componentOrder[:0]
	for _, component := range componentOrder {
		if !componentTotals[component].IsZero() {
			kept = append(kept, component)
		}
	}
	componentOrder = kept

	header := []string{"员工编号", "姓名", "身份证号", "人员类别"}
	header = append(header, componentOrder...)
	header = append(header, "合计")

	records := make([][]string, 0, len(lineOrder)+1)
	records = append(records, header)
	for _, key := range lineOrder {
		line := lines[key]
		record := []string{line.code, line.name, line.idNumber, line.category}
		for _, component := range componentOrder {
			if amount, ok := line.amounts[component]; ok {
				record = append(record, amount.StringFixed(2))
			} else {
				record = append(record, "")
			}
		}
		record = append(record, line.total.StringFixed(2))
		records = append(records, record)
	}

	s.log.Info().Str("period", period.Name).Int("employees", len(lineOrder)).Msg("payroll detail export rendered")
	return renderCSV(records)
}

// ExportContributionBases renders the bases effective at a date as CSV, one
// row per employee with a column per insurance type.
func (s *ExportService) ExportContributionBases(ctx context.Context, asOf time.Time) ([]byte, error) {
	rows, err := s.reports.ContributionBases(ctx, asOf)
	if err != nil {
		return nil, err
	}

	type employeeLine struct {
		code     string
		name     string
		idNumber string
		bases    map[string]decimal.Decimal
	}

	var typeOrder []string
	typeNames := make(map[string]string)
	var lineOrder []string
	lines := make(map[string]*employeeLine)

	for _, r := range rows {
		key := r.FullName
		if r.IDNumber != nil {
			key = *r.IDNumber
		}
		line, ok := lines[key]
		if !ok {
			line = &employeeLine{
				code:     deref(r.EmployeeCode),
				name:     r.FullName,
				idNumber: deref(r.IDNumber),
				bases:    make(map[string]decimal.Decimal),
			}
			lines[key] = line
			lineOrder = append(lineOrder, key)
		}
		if _, ok := typeNames[r.SystemKey]; !ok {
			typeNames[r.SystemKey] = r.TypeName
			typeOrder = append(typeOrder, r.SystemKey)
		}
		line.bases[r.SystemKey] = r.BaseAmount
	}

	header := []string{"员工编号", "姓名", "身份证号"}
	for _, key := range typeOrder {
		header = append(header, typeNames[key])
	}

	records := make([][]string, 0, len(lineOrder)+1)
	records = append(records, header)
	for _, key := range lineOrder {
		line := lines[key]
		record := []string{line.code, line.name, line.idNumber}
		for _, systemKey := range typeOrder {
			if amount, ok := line.bases[systemKey]; ok {
				record = append(record, amount.StringFixed(2))
			} else {
				record = append(record, "")
			}
		}
		records = append(records, record)
	}

	return renderCSV(records)
}

// ExportCategoryAssignments renders the assignments effective at a date as CSV.
func (s *ExportService) ExportCategoryAssignments(ctx context.Context, asOf time.Time) ([]byte, error) {
	rows, err := s.reports.CategoryAssignments(ctx, asOf)
	if err != nil {
		return nil, err
	}

	records := [][]string{{"员工编号", "姓名", "身份证号", "类别编码", "人员类别", "生效日期", "失效日期"}}
	for _, r := range rows {
		end := ""
		if r.EffectiveEnd != nil {
			end = r.EffectiveEnd.Format("2006-01-02")
		}
		records = append(records, []string{
			deref(r.EmployeeCode),
			r.FullName,
			deref(r.IDNumber),
			r.CategoryCode,
			r.CategoryName,
			r.EffectiveStart.Format("2006-01-02"),
			end,
		})
	}

	return renderCSV(records)
}

// PeriodSummary returns per-category payroll aggregates for a period.
func (s *ExportService) PeriodSummary(ctx context.Context, periodID string) ([]repository.CategorySummaryRow, *domain.PayPeriod, error) {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, nil, err
	}

	summary, err := s.reports.PeriodSummary(ctx, periodID, period.EndDate)
	if err != nil {
		return nil, nil, err
	}

	return summary, period, nil
}

func renderCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
