package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportMode controls how the import treats existing records.
type ImportMode string

const (
	// ModeCreate inserts only; a pre-existing record at the same key is a conflict.
	ModeCreate ImportMode = "CREATE"
	// ModeUpdate overwrites existing records and never creates containers.
	ModeUpdate ImportMode = "UPDATE"
	// ModeUpsert creates missing records and overwrites existing ones.
	ModeUpsert ImportMode = "UPSERT"
)

// Valid reports whether the mode is one of the known import modes.
func (m ImportMode) Valid() bool {
	switch m {
	case ModeCreate, ModeUpdate, ModeUpsert:
		return true
	}
	return false
}

// AllowsCreate reports whether the mode permits creating missing payroll records.
func (m ImportMode) AllowsCreate() bool {
	return m == ModeCreate || m == ModeUpsert
}

// AllowsOverwrite reports whether the mode permits replacing existing line items.
func (m ImportMode) AllowsOverwrite() bool {
	return m == ModeUpdate || m == ModeUpsert
}

// DataGroup identifies one import domain.
type DataGroup string

const (
	GroupEarnings           DataGroup = "earnings"
	GroupContributionBases  DataGroup = "contribution_bases"
	GroupCategoryAssignment DataGroup = "category_assignment"
	GroupJobAssignment      DataGroup = "job_assignment"
	// GroupAll fans out to every group in the fixed order below.
	GroupAll DataGroup = "all"
)

// Valid reports whether the group is one of the known data groups.
func (g DataGroup) Valid() bool {
	switch g {
	case GroupEarnings, GroupContributionBases, GroupCategoryAssignment, GroupJobAssignment, GroupAll:
		return true
	}
	return false
}

// Expand resolves GroupAll into the concrete groups. The order is fixed so
// that result aggregation is deterministic; the groups write disjoint tables,
// so correctness does not depend on it.
func (g DataGroup) Expand() []DataGroup {
	if g != GroupAll {
		return []DataGroup{g}
	}
	return []DataGroup{
		GroupEarnings,
		GroupContributionBases,
		GroupCategoryAssignment,
		GroupJobAssignment,
	}
}

// Row is one generic source row: column label → raw cell value.
// Rows arrive already stripped of the header row. Number is the 1-based
// row number in the original source when the source recorded one (sources
// that drop blank interior rows must set it so reported row numbers keep
// matching the file); zero means the slice position is authoritative.
type Row struct {
	Number int
	Values map[string]string
}

// Get returns the trimmed cell value for a label.
func (r Row) Get(label string) string {
	return r.Values[label]
}

// SourceRow returns the operator-facing row number: the original source row
// when recorded, otherwise RowNumber(index).
func (r Row) SourceRow(index int) int {
	if r.Number > 0 {
		return r.Number
	}
	return RowNumber(index)
}

// RowNumber converts a zero-based data row index into the number reported to
// the operator. Row 1 of the source file is the header, so data row i is
// sheet row i+2.
func RowNumber(index int) int {
	return index + 2
}

// EmployeeIdentifier is a loose employee reference from one source row.
// The employee code is accepted as a hint but is not authoritative;
// resolution requires a national ID number or a full name.
type EmployeeIdentifier struct {
	Code     string
	FullName string
	IDNumber string
}

// Empty reports whether no identifying field is present at all.
func (id EmployeeIdentifier) Empty() bool {
	return id.Code == "" && id.FullName == "" && id.IDNumber == ""
}

// Resolvable reports whether the identifier carries an authoritative field.
func (id EmployeeIdentifier) Resolvable() bool {
	return id.FullName != "" || id.IDNumber != ""
}

// Employee is the canonical employee identity. Read-only to the import
// engine: it is resolved, never created here.
type Employee struct {
	ID           string  `db:"id" json:"id"`
	EmployeeCode *string `db:"employee_code" json:"employee_code"`
	FullName     string  `db:"full_name" json:"full_name"`
	IDNumber     *string `db:"id_number" json:"id_number"`
}

// PayPeriod groups one import run. Dates are a half-open interval
// [Start, End] plus the pay date.
type PayPeriod struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	PayDate   time.Time `db:"pay_date" json:"pay_date"`
}

// PayrollRecord is the per-employee, per-period container for line items.
type PayrollRecord struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	PeriodID   string    `db:"period_id" json:"period_id"`
	Status     string    `db:"status" json:"status"`
	PayDate    time.Time `db:"pay_date" json:"pay_date"`
}

// Payroll record statuses.
const (
	RecordStatusDraft    = "draft"
	RecordStatusApproved = "approved"
	RecordStatusPaid     = "paid"
)

// PayComponent is a canonical earning line-item type (base salary, bonus, ...).
type PayComponent struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// LineItem is one monetary fact: (record, component, amount).
type LineItem struct {
	RecordID    string          `db:"record_id" json:"record_id"`
	ComponentID string          `db:"component_id" json:"component_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
}

// ItemKey identifies one line item. Re-importing the same key overwrites the
// amount under UPDATE/UPSERT and conflicts under CREATE.
type ItemKey struct {
	RecordID    string
	ComponentID string
}

// Key returns the line item's identity.
func (i LineItem) Key() ItemKey {
	return ItemKey{RecordID: i.RecordID, ComponentID: i.ComponentID}
}

// InsuranceBaseType is a canonical contribution-base category. SystemKey is
// the stable join key (pension, medical, ...); Name is the locale-variable
// display label.
type InsuranceBaseType struct {
	ID        string `db:"id" json:"id"`
	SystemKey string `db:"system_key" json:"system_key"`
	Name      string `db:"name" json:"name"`
}

// Stable insurance-base system keys.
const (
	InsurancePension             = "pension"
	InsuranceMedical             = "medical"
	InsuranceUnemployment        = "unemployment"
	InsuranceHousingFund         = "housing_fund"
	InsuranceOccupationalPension = "occupational_pension"
	InsuranceSocial              = "social_insurance"
	InsuranceTaxBase             = "tax"
)

// PersonnelCategory is a canonical employee category (人员类别).
type PersonnelCategory struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// JobFact is the fact payload of one job assignment slice. Empty fields are
// stored as NULL.
type JobFact struct {
	Department string
	Position   string
	JobRank    string
}

// Empty reports whether the fact carries no information at all.
func (j JobFact) Empty() bool {
	return j.Department == "" && j.Position == "" && j.JobRank == ""
}

// TimeSlice is one effective-dated row. EffectiveEnd nil means the slice is
// currently open. For a given employee and dimension at most one slice may
// be open, and closed slices must not overlap.
type TimeSlice struct {
	ID             string     `db:"id" json:"id"`
	EmployeeID     string     `db:"employee_id" json:"employee_id"`
	EffectiveStart time.Time  `db:"effective_start" json:"effective_start"`
	EffectiveEnd   *time.Time `db:"effective_end" json:"effective_end"`
}

// Open reports whether the slice is currently open.
func (s TimeSlice) Open() bool {
	return s.EffectiveEnd == nil
}
