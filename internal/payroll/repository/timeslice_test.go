package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/internal/payroll/repository"
	"github.com/salaryflow/payroll-backend/pkg/database"
	"github.com/salaryflow/payroll-backend/pkg/logger"
	"github.com/salaryflow/payroll-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssignmentRepo(t *testing.T) (*repository.AssignmentRepository, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewAssignmentRepository(database.Wrap(mockDB.DB, logger.New("test", "test")))
	return repo, mockDB
}

func decimalFrom(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func jobFact(department, position, rank string) domain.JobFact {
	return domain.JobFact{Department: department, Position: position, JobRank: rank}
}

func TestAssignmentRepository_FirstAssignmentInsertsOnly(t *testing.T) {
	repo, mockDB := newAssignmentRepo(t)
	defer mockDB.Close()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id, effective_start").
		WithArgs("e1").
		WillReturnRows(testutil.MockRows("id", "effective_start"))
	mockDB.ExpectExec("INSERT INTO employee_category_assignments").
		WillReturnResult(testutil.NewResult(1))
	mockDB.ExpectCommit()

	backdated, err := repo.ApplyCategorySlice(context.Background(), "e1", "cat-1", start)
	require.NoError(t, err)
	assert.False(t, backdated)

	mockDB.ExpectationsWereMet(t)
}

func TestAssignmentRepository_ClosesOpenSliceAtNewStart(t *testing.T) {
	repo, mockDB := newAssignmentRepo(t)
	defer mockDB.Close()

	openStart := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id, effective_start").
		WithArgs("e1").
		WillReturnRows(testutil.MockRows("id", "effective_start").AddRow("slice-1", openStart))
	// The open slice ends exactly where the new one starts.
	mockDB.ExpectExec("UPDATE employee_category_assignments SET effective_end").
		WithArgs(newStart, "slice-1").
		WillReturnResult(testutil.NewResult(1))
	mockDB.ExpectExec("INSERT INTO employee_category_assignments").
		WillReturnResult(testutil.NewResult(1))
	mockDB.ExpectCommit()

	backdated, err := repo.ApplyCategorySlice(context.Background(), "e1", "cat-2", newStart)
	require.NoError(t, err)
	assert.False(t, backdated)

	mockDB.ExpectationsWereMet(t)
}

func TestAssignmentRepository_BackdatedStartIsReported(t *testing.T) {
	repo, mockDB := newAssignmentRepo(t)
	defer mockDB.Close()

	openStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	newStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id, effective_start").
		WithArgs("e1").
		WillReturnRows(testutil.MockRows("id", "effective_start").AddRow("slice-1", openStart))
	mockDB.ExpectExec("UPDATE employee_category_assignments SET effective_end").
		WithArgs(newStart, "slice-1").
		WillReturnResult(testutil.NewResult(1))
	mockDB.ExpectExec("INSERT INTO employee_category_assignments").
		WillReturnResult(testutil.NewResult(1))
	mockDB.ExpectCommit()

	backdated, err := repo.ApplyCategorySlice(context.Background(), "e1", "cat-2", newStart)
	require.NoError(t, err)
	assert.True(t, backdated, "a start at or before the open slice's start is a correction")

	mockDB.ExpectationsWereMet(t)
}

func TestAssignmentRepository_RetriesOnceOnOpenSliceRace(t *testing.T) {
	repo, mockDB := newAssignmentRepo(t)
	defer mockDB.Close()

	otherStart := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	newStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// First attempt: no open slice visible, but a concurrent writer wins the
	// insert and the partial unique index fires.
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id, effective_start").
		WithArgs("e1").
		WillReturnRows(testutil.MockRows("id", "effective_start"))
	mockDB.ExpectExec("INSERT INTO employee_category_assignments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "employee_category_assignments_open_slice"})
	mockDB.ExpectRollback()

	// Retry: the winner's slice is now the open one to close.
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id, effective_start").
		WithArgs("e1").
		WillReturnRows(testutil.MockRows("id", "effective_start").AddRow("slice-other", otherStart))
	mockDB.ExpectExec("UPDATE employee_category_assignments SET effective_end").
		WithArgs(newStart, "slice-other").
		WillReturnResult(testutil.NewResult(1))
	mockDB.ExpectExec("INSERT INTO employee_category_assignments").
		WillReturnResult(testutil.NewResult(1))
	mockDB.ExpectCommit()

	backdated, err := repo.ApplyCategorySlice(context.Background(), "e1", "cat-1", newStart)
	require.NoError(t, err)
	assert.False(t, backdated)

	mockDB.ExpectationsWereMet(t)
}

func TestAssignmentRepository_ContributionScopeIncludesInsuranceType(t *testing.T) {
	repo, mockDB := newAssignmentRepo(t)
	defer mockDB.Close()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id, effective_start").
		WithArgs("e1", "ins-pension").
		WillReturnRows(testutil.MockRows("id", "effective_start"))
	mockDB.ExpectExec("INSERT INTO employee_contribution_bases").
		WillReturnResult(testutil.NewResult(1))
	mockDB.ExpectCommit()

	backdated, err := repo.ApplyContributionBaseSlice(context.Background(), "e1", "ins-pension", decimalFrom("6000"), start)
	require.NoError(t, err)
	assert.False(t, backdated)

	mockDB.ExpectationsWereMet(t)
}

func TestAssignmentRepository_JobFactEmptyFieldsStoredAsNull(t *testing.T) {
	repo, mockDB := newAssignmentRepo(t)
	defer mockDB.Close()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT id, effective_start").
		WithArgs("e1").
		WillReturnRows(testutil.MockRows("id", "effective_start"))
	mockDB.ExpectExec("INSERT INTO employee_job_assignments").
		WithArgs(sqlmock.AnyArg(), "e1", "财务部", "会计", nil, start, nil).
		WillReturnResult(testutil.NewResult(1))
	mockDB.ExpectCommit()

	fact := jobFact("财务部", "会计", "")
	backdated, err := repo.ApplyJobSlice(context.Background(), "e1", fact, start)
	require.NoError(t, err)
	assert.False(t, backdated)

	mockDB.ExpectationsWereMet(t)
}

func TestAssignmentRepository_ListCategorySlicesOldestFirst(t *testing.T) {
	repo, mockDB := newAssignmentRepo(t)
	defer mockDB.Close()

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mockDB.ExpectQuery("SELECT id, employee_id, effective_start, effective_end").
		WithArgs("e1").
		WillReturnRows(testutil.MockRows("id", "employee_id", "effective_start", "effective_end").
			AddRow("slice-1", "e1", first, second).
			AddRow("slice-2", "e1", second, nil))

	slices, err := repo.ListCategorySlices(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, slices, 2)

	assert.False(t, slices[0].Open())
	assert.Equal(t, second, *slices[0].EffectiveEnd)
	assert.True(t, slices[1].Open())
	assert.Equal(t, second, slices[1].EffectiveStart)

	mockDB.ExpectationsWereMet(t)
}
