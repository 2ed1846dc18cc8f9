package service

import (
	"context"
	"time"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/shopspring/decimal"
)

// The service layer talks to storage through narrow interfaces so the
// import pipeline can be tested against in-memory fakes. The repository
// package provides the PostgreSQL implementations.

// EmployeeStore looks up employees by the identifiers rows carry.
type EmployeeStore interface {
	FindByIDNumbers(ctx context.Context, idNumbers []string) ([]domain.Employee, error)
	FindByNames(ctx context.Context, names []string) ([]domain.Employee, error)
}

// PeriodStore resolves pay periods.
type PeriodStore interface {
	GetByID(ctx context.Context, id string) (*domain.PayPeriod, error)
	FindByMonth(ctx context.Context, month string) (*domain.PayPeriod, error)
}

// ComponentStore resolves pay components, insurance types and categories.
type ComponentStore interface {
	FindComponentsByNames(ctx context.Context, names []string) ([]domain.PayComponent, error)
	ListInsuranceTypes(ctx context.Context) ([]domain.InsuranceBaseType, error)
	FindCategoriesByNames(ctx context.Context, names []string) ([]domain.PersonnelCategory, error)
}

// RecordStore manages payroll record headers.
type RecordStore interface {
	// Ensure returns the record for (employee, period), creating a draft
	// when the mode allows it. A nil record with a nil error means the
	// record does not exist and the mode forbids creating it.
	Ensure(ctx context.Context, employeeID string, period domain.PayPeriod, mode domain.ImportMode) (*domain.PayrollRecord, error)
}

// LineItemStore writes earnings line items in chunks.
type LineItemStore interface {
	// ReplaceChunk deletes any existing rows for the chunk's keys and
	// inserts the new ones in a single transaction.
	ReplaceChunk(ctx context.Context, items []domain.LineItem) error
	// InsertRows inserts items grouped per source row. A row with any
	// already-existing key is withheld in full; the conflicting keys are
	// returned and items of clean rows still land.
	InsertRows(ctx context.Context, rows [][]domain.LineItem) ([]domain.ItemKey, error)
}

// AssignmentStore writes effective-dated assignment slices. The boolean
// return reports whether the new slice starts at or before the slice it
// closed.
type AssignmentStore interface {
	ApplyCategorySlice(ctx context.Context, employeeID, categoryID string, effectiveStart time.Time) (bool, error)
	ApplyJobSlice(ctx context.Context, employeeID string, fact domain.JobFact, effectiveStart time.Time) (bool, error)
	ApplyContributionBaseSlice(ctx context.Context, employeeID, insuranceTypeID string, amount decimal.Decimal, effectiveStart time.Time) (bool, error)
}
