package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/internal/payroll/repository"
	"github.com/salaryflow/payroll-backend/pkg/database"
	"github.com/salaryflow/payroll-backend/pkg/logger"
	"github.com/salaryflow/payroll-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPeriod() domain.PayPeriod {
	return domain.PayPeriod{
		ID:        "p1",
		Name:      "2025年06月",
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		PayDate:   time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
	}
}

func recordColumns() []string {
	return []string{"id", "employee_id", "period_id", "status", "pay_date"}
}

func TestRecordRepository_EnsureReturnsExisting(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewRecordRepository(database.Wrap(mockDB.DB, logger.New("test", "test")))

	period := testPeriod()
	mockDB.ExpectQuery("SELECT id, employee_id, period_id, status, pay_date").
		WithArgs("e1", "p1").
		WillReturnRows(testutil.MockRows(recordColumns()...).
			AddRow("rec-1", "e1", "p1", domain.RecordStatusApproved, period.EndDate))

	record, err := repo.Ensure(context.Background(), "e1", period, domain.ModeUpdate)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "rec-1", record.ID)
	assert.Equal(t, domain.RecordStatusApproved, record.Status)

	mockDB.ExpectationsWereMet(t)
}

func TestRecordRepository_EnsureMissingUnderUpdateReturnsNil(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewRecordRepository(database.Wrap(mockDB.DB, logger.New("test", "test")))

	mockDB.ExpectQuery("SELECT id, employee_id, period_id, status, pay_date").
		WithArgs("e1", "p1").
		WillReturnRows(testutil.MockRows(recordColumns()...))

	record, err := repo.Ensure(context.Background(), "e1", testPeriod(), domain.ModeUpdate)
	require.NoError(t, err)
	assert.Nil(t, record, "UPDATE must not create missing records")

	mockDB.ExpectationsWereMet(t)
}

func TestRecordRepository_EnsureCreatesDraftUnderUpsert(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewRecordRepository(database.Wrap(mockDB.DB, logger.New("test", "test")))

	period := testPeriod()
	mockDB.ExpectQuery("SELECT id, employee_id, period_id, status, pay_date").
		WithArgs("e1", "p1").
		WillReturnRows(testutil.MockRows(recordColumns()...))
	mockDB.ExpectExec("INSERT INTO payroll_records").
		WillReturnResult(testutil.NewResult(1))

	record, err := repo.Ensure(context.Background(), "e1", period, domain.ModeUpsert)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, domain.RecordStatusDraft, record.Status)
	assert.True(t, record.PayDate.Equal(period.EndDate), "pay date defaults to the period end")

	mockDB.ExpectationsWereMet(t)
}

func TestRecordRepository_EnsureRefetchesOnUniqueViolation(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewRecordRepository(database.Wrap(mockDB.DB, logger.New("test", "test")))

	period := testPeriod()

	// First read sees nothing, the insert loses the race, the re-fetch
	// returns the concurrently created record.
	mockDB.ExpectQuery("SELECT id, employee_id, period_id, status, pay_date").
		WithArgs("e1", "p1").
		WillReturnRows(testutil.MockRows(recordColumns()...))
	mockDB.ExpectExec("INSERT INTO payroll_records").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payroll_records_employee_period"})
	mockDB.ExpectQuery("SELECT id, employee_id, period_id, status, pay_date").
		WithArgs("e1", "p1").
		WillReturnRows(testutil.MockRows(recordColumns()...).
			AddRow("rec-other", "e1", "p1", domain.RecordStatusDraft, period.EndDate))

	record, err := repo.Ensure(context.Background(), "e1", period, domain.ModeUpsert)
	require.NoError(t, err, "losing the insert race is not an error")
	require.NotNil(t, record)
	assert.Equal(t, "rec-other", record.ID)

	mockDB.ExpectationsWereMet(t)
}
