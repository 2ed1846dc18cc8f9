package domain_test

import (
	"testing"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/stretchr/testify/assert"
)

func TestImportResult_Accounting(t *testing.T) {
	r := domain.NewImportResult()
	r.TotalRows = 5

	r.AddSuccess(false)
	r.AddSuccess(true) // succeeded with a skipped field
	r.AddSuccess(false)
	r.AddError(4, "", domain.MsgMissingIdentifier)
	r.AddError(5, "category", domain.MsgUnknownCategory)

	assert.Equal(t, 3, r.SuccessCount)
	assert.Equal(t, 2, r.FailedCount)
	assert.Equal(t, 1, r.SkippedCount)
	assert.Equal(t, r.TotalRows, r.SuccessCount+r.FailedCount)
	assert.True(t, r.Success, "row failures must not flip the run flag")
	assert.True(t, r.HasErrors())
}

func TestImportResult_WarningsDoNotAffectCounts(t *testing.T) {
	r := domain.NewImportResult()
	r.TotalRows = 1

	r.AddWarning(2, "奖金", domain.MsgUnknownComponent, domain.ActionSkipped)
	r.AddSuccess(true)

	assert.Equal(t, 1, r.SuccessCount)
	assert.Equal(t, 0, r.FailedCount)
	assert.Len(t, r.Warnings, 1)
	assert.Equal(t, domain.ActionSkipped, r.Warnings[0].Action)
}

func TestImportResult_Merge(t *testing.T) {
	total := domain.NewImportResult()

	earnings := domain.NewImportResult()
	earnings.TotalRows = 3
	earnings.AddSuccess(false)
	earnings.AddSuccess(false)
	earnings.AddError(4, "", domain.MsgEmployeeNotFound)

	categories := domain.NewImportResult()
	categories.TotalRows = 2
	categories.AddSuccess(false)
	categories.AddSuccess(false)
	categories.Success = false

	total.Merge(domain.GroupEarnings, earnings)
	total.Merge(domain.GroupCategoryAssignment, categories)

	assert.Equal(t, 5, total.TotalRows)
	assert.Equal(t, 4, total.SuccessCount)
	assert.Equal(t, 1, total.FailedCount)
	assert.Equal(t, 3, total.GroupCounts[domain.GroupEarnings])
	assert.Equal(t, 2, total.GroupCounts[domain.GroupCategoryAssignment])
	assert.False(t, total.Success, "a failed group run must fail the aggregate")
}

func TestDataGroup_ExpandAll(t *testing.T) {
	expanded := domain.GroupAll.Expand()

	assert.Equal(t, []domain.DataGroup{
		domain.GroupEarnings,
		domain.GroupContributionBases,
		domain.GroupCategoryAssignment,
		domain.GroupJobAssignment,
	}, expanded)

	assert.Equal(t, []domain.DataGroup{domain.GroupEarnings}, domain.GroupEarnings.Expand())
}

func TestImportMode_Permissions(t *testing.T) {
	assert.True(t, domain.ModeCreate.AllowsCreate())
	assert.False(t, domain.ModeCreate.AllowsOverwrite())

	assert.False(t, domain.ModeUpdate.AllowsCreate())
	assert.True(t, domain.ModeUpdate.AllowsOverwrite())

	assert.True(t, domain.ModeUpsert.AllowsCreate())
	assert.True(t, domain.ModeUpsert.AllowsOverwrite())

	assert.False(t, domain.ImportMode("REPLACE").Valid())
}

func TestRowNumber_HeaderOffset(t *testing.T) {
	assert.Equal(t, 2, domain.RowNumber(0))
	assert.Equal(t, 7, domain.RowNumber(5))
}

func TestRow_SourceRowPrefersRecordedNumber(t *testing.T) {
	assert.Equal(t, 9, domain.Row{Number: 9}.SourceRow(0))
	assert.Equal(t, 2, domain.Row{}.SourceRow(0))
}

func TestImportConfig_Validate(t *testing.T) {
	period := domain.PayPeriod{ID: "p1", Name: "2025年06月"}

	valid := domain.ImportConfig{
		Groups: []domain.DataGroup{domain.GroupAll},
		Mode:   domain.ModeUpsert,
		Period: period,
	}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, domain.DefaultBatchSize, valid.EffectiveBatchSize())

	assert.ErrorIs(t, domain.ImportConfig{Mode: domain.ModeUpsert, Period: period}.Validate(), domain.ErrNoDataGroups)
	assert.ErrorIs(t, domain.ImportConfig{
		Groups: []domain.DataGroup{"payslips"}, Mode: domain.ModeUpsert, Period: period,
	}.Validate(), domain.ErrUnknownDataGroup)
	assert.ErrorIs(t, domain.ImportConfig{
		Groups: []domain.DataGroup{domain.GroupEarnings}, Mode: "REPLACE", Period: period,
	}.Validate(), domain.ErrUnknownImportMode)
	assert.ErrorIs(t, domain.ImportConfig{
		Groups: []domain.DataGroup{domain.GroupEarnings}, Mode: domain.ModeUpsert,
	}.Validate(), domain.ErrMissingPeriod)
}

func TestDefaultDictionary_ContributionLabels(t *testing.T) {
	dict := domain.DefaultDictionary(domain.GroupContributionBases)

	m, ok := dict.FieldFor("养老保险缴费基数")
	assert.True(t, ok)
	assert.Equal(t, domain.InsurancePension, m.Field)
	assert.Equal(t, domain.FieldTypeDecimal, m.Type)

	assert.True(t, dict.IsIdentifierLabel("身份证号"))
	assert.True(t, dict.IsIdentifierLabel("员工姓名"))
	assert.False(t, dict.IsIdentifierLabel("养老保险缴费基数"))

	_, ok = dict.FieldFor("补充公积金")
	assert.False(t, ok, "unmapped labels stay unmapped")
}
