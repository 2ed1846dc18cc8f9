package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/internal/payroll/repository"
	"github.com/salaryflow/payroll-backend/internal/payroll/service"
	"github.com/salaryflow/payroll-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReportStore struct {
	details []repository.PayrollDetailRow
	bases   []repository.ContributionBaseRow
	summary []repository.CategorySummaryRow
}

func (s *fakeReportStore) PayrollDetails(context.Context, string, time.Time) ([]repository.PayrollDetailRow, error) {
	return s.details, nil
}

func (s *fakeReportStore) ContributionBases(context.Context, time.Time) ([]repository.ContributionBaseRow, error) {
	return s.bases, nil
}

func (s *fakeReportStore) CategoryAssignments(context.Context, time.Time) ([]repository.CategoryAssignmentRow, error) {
	return nil, nil
}

func (s *fakeReportStore) PeriodSummary(context.Context, string, time.Time) ([]repository.CategorySummaryRow, error) {
	return s.summary, nil
}

type fakePeriodStore struct {
	period domain.PayPeriod
}

func (s *fakePeriodStore) GetByID(context.Context, string) (*domain.PayPeriod, error) {
	return &s.period, nil
}

func (s *fakePeriodStore) FindByMonth(context.Context, string) (*domain.PayPeriod, error) {
	return &s.period, nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func parseExportedCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "exports must carry a UTF-8 BOM for Excel")

	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportPayrollDetails_PivotsByComponent(t *testing.T) {
	reports := &fakeReportStore{
		details: []repository.PayrollDetailRow{
			{EmployeeCode: strPtr("A001"), FullName: "张伟", IDNumber: strPtr("110101199001010001"),
				CategoryName: strPtr("在编人员"), ComponentName: "基本工资", Amount: dec("8000")},
			{EmployeeCode: strPtr("A001"), FullName: "张伟", IDNumber: strPtr("110101199001010001"),
				CategoryName: strPtr("在编人员"), ComponentName: "绩效奖金", Amount: dec("1500.50")},
			{EmployeeCode: strPtr("A002"), FullName: "李娜", IDNumber: strPtr("110101199202020002"),
				ComponentName: "基本工资", Amount: dec("7200")},
		},
	}
	periods := &fakePeriodStore{period: domain.PayPeriod{
		ID: "p1", Name: "2025年06月",
		EndDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}}

	svc := service.NewExportService(reports, periods, logger.New("test", "test"))

	data, err := svc.ExportPayrollDetails(context.Background(), "p1")
	require.NoError(t, err)

	records := parseExportedCSV(t, data)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"员工编号", "姓名", "身份证号", "人员类别", "基本工资", "绩效奖金", "合计"}, records[0])
	assert.Equal(t, []string{"A001", "张伟", "110101199001010001", "在编人员", "8000.00", "1500.50", "9500.50"}, records[1])
	assert.Equal(t, []string{"A002", "李娜", "110101199202020002", "未分类", "7200.00", "", "7200.00"}, records[2])
}

func TestExportPayrollDetails_DropsAllZeroColumns(t *testing.T) {
	reports := &fakeReportStore{
		details: []repository.PayrollDetailRow{
			{EmployeeCode: strPtr("A001"), FullName: "张伟", IDNumber: strPtr("110101199001010001"),
				CategoryName: strPtr("在编人员"), ComponentName: "基本工资", Amount: dec("8000")},
			{EmployeeCode: strPtr("A001"), FullName: "张伟", IDNumber: strPtr("110101199001010001"),
				CategoryName: strPtr("在编人员"), ComponentName: "取暖补贴", Amount: dec("0")},
			{EmployeeCode: strPtr("A002"), FullName: "李娜", IDNumber: strPtr("110101199202020002"),
				ComponentName: "取暖补贴", Amount: dec("0")},
		},
	}
	periods := &fakePeriodStore{period: domain.PayPeriod{
		ID: "p1", Name: "2025年06月",
		EndDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}}

	svc := service.NewExportService(reports, periods, logger.New("test", "test"))

	data, err := svc.ExportPayrollDetails(context.Background(), "p1")
	require.NoError(t, err)

	records := parseExportedCSV(t, data)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"员工编号", "姓名", "身份证号", "人员类别", "基本工资", "合计"}, records[0])
	assert.Equal(t, []string{"A002", "李娜", "110101199202020002", "未分类", "", "0.00"}, records[2])
}

func TestExportContributionBases_PivotsByInsuranceType(t *testing.T) {
	reports := &fakeReportStore{
		bases: []repository.ContributionBaseRow{
			{EmployeeCode: strPtr("A001"), FullName: "张伟", IDNumber: strPtr("110101199001010001"),
				SystemKey: domain.InsurancePension, TypeName: "养老保险", BaseAmount: dec("6000")},
			{EmployeeCode: strPtr("A001"), FullName: "张伟", IDNumber: strPtr("110101199001010001"),
				SystemKey: domain.InsuranceMedical, TypeName: "医疗保险", BaseAmount: dec("6000")},
			{EmployeeCode: strPtr("A002"), FullName: "李娜", IDNumber: strPtr("110101199202020002"),
				SystemKey: domain.InsurancePension, TypeName: "养老保险", BaseAmount: dec("5400")},
		},
	}
	periods := &fakePeriodStore{}

	svc := service.NewExportService(reports, periods, logger.New("test", "test"))

	data, err := svc.ExportContributionBases(context.Background(), time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	records := parseExportedCSV(t, data)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"员工编号", "姓名", "身份证号", "养老保险", "医疗保险"}, records[0])
	assert.Equal(t, []string{"A001", "张伟", "110101199001010001", "6000.00", "6000.00"}, records[1])
	assert.Equal(t, []string{"A002", "李娜", "110101199202020002", "5400.00", ""}, records[2])
}

func TestPeriodSummary_ReturnsPeriodWithCategories(t *testing.T) {
	reports := &fakeReportStore{
		summary: []repository.CategorySummaryRow{
			{CategoryName: "在编人员", EmployeeCount: 12, TotalGross: dec("96000"), AvgGross: dec("8000"),
				MinGross: dec("6500"), MaxGross: dec("9800")},
		},
	}
	periods := &fakePeriodStore{period: domain.PayPeriod{ID: "p1", Name: "2025年06月"}}

	svc := service.NewExportService(reports, periods, logger.New("test", "test"))

	summary, period, err := svc.PeriodSummary(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "2025年06月", period.Name)
	require.Len(t, summary, 1)
	assert.Equal(t, 12, summary[0].EmployeeCount)
}
