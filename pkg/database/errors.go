package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/salaryflow/payroll-backend/pkg/errors"
)

// PostgreSQL error codes (class 23 - integrity constraint violation)
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqNotNullViolation    = "23502"
	pqCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. Callers that find-or-create rows treat this as "someone else
// already created it" and re-fetch instead of failing.
func IsUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == pqUniqueViolation
}

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		return errors.Conflict(uniqueViolationMessage(pqErr))

	case pqForeignKeyViolation:
		return errors.BadRequest("referenced record does not exist")

	case pqNotNullViolation:
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	case pqCheckViolation:
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)

	default:
		return nil
	}
}

// uniqueViolationMessage creates a user-friendly message for unique constraint violations.
func uniqueViolationMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "payroll_records_employee_period"):
		return "a payroll record for this employee and period already exists"
	case strings.Contains(constraint, "payroll_line_items_record_component"):
		return "a line item for this record and component already exists"
	case strings.Contains(constraint, "open_slice"):
		return "an open assignment slice already exists for this employee"
	default:
		return "a record with these values already exists"
	}
}
