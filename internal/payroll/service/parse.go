package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/shopspring/decimal"
)

// dateLayouts are the formats the legacy spreadsheets actually use.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006年01月02日",
	"2006-1-2",
	"2006/1/2",
}

// parseDate parses a cell into a date, trying each known layout.
func parseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}

// parseAmount parses a cell into a decimal amount. Currency symbols,
// thousands separators and full-width variants are tolerated since the
// cells come from hand-edited spreadsheets.
func parseAmount(value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)
	v = strings.NewReplacer("¥", "", "￥", "", ",", "", "，", "", "元", "").Replace(v)
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(v)
}

// extractIdentifier pulls the employee identifier fields out of a row using
// the group's dictionary. Multiple labels may map to the same field (姓名 and
// 员工姓名 both mean full name); the first non-empty cell wins.
func extractIdentifier(row domain.Row, dict domain.Dictionary) domain.EmployeeIdentifier {
	var id domain.EmployeeIdentifier
	for _, m := range dict.Mappings {
		v := strings.TrimSpace(row.Get(m.Label))
		if v == "" {
			continue
		}
		switch m.Field {
		case domain.FieldEmployeeCode:
			if id.Code == "" {
				id.Code = v
			}
		case domain.FieldFullName:
			if id.FullName == "" {
				id.FullName = v
			}
		case domain.FieldIDNumber:
			if id.IDNumber == "" {
				id.IDNumber = v
			}
		}
	}
	return id
}

// cellFor returns the trimmed cell for a canonical field, resolving the
// field back to its source label through the dictionary.
func cellFor(row domain.Row, dict domain.Dictionary, field string) string {
	label, ok := dict.LabelFor(field)
	if !ok {
		return ""
	}
	return strings.TrimSpace(row.Get(label))
}

// effectiveDate resolves a row's effective date, defaulting to the period
// start when the cell is absent. The boolean reports whether the default was
// used; a malformed cell is an error.
func effectiveDate(row domain.Row, dict domain.Dictionary, period domain.PayPeriod) (time.Time, bool, error) {
	v := cellFor(row, dict, domain.FieldEffectiveDate)
	if v == "" {
		return period.StartDate, true, nil
	}
	t, err := parseDate(v)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, false, nil
}
