package domain

// ImportError is a row-fatal problem: the row's facts were not applied.
type ImportError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// WarningAction describes what the importer did about a tolerable problem.
type WarningAction string

const (
	// ActionSkipped means the offending field was dropped; the rest of the row applied.
	ActionSkipped WarningAction = "skipped"
	// ActionDefaulted means a missing optional value was replaced with a default.
	ActionDefaulted WarningAction = "defaulted"
	// ActionAccepted means a suspicious value (e.g. a back-dated effective
	// date) was applied as given.
	ActionAccepted WarningAction = "accepted"
)

// ImportWarning is a row-tolerable problem: the row still counts as success.
type ImportWarning struct {
	Row     int           `json:"row"`
	Field   string        `json:"field,omitempty"`
	Message string        `json:"message"`
	Action  WarningAction `json:"action"`
}

// ImportResult is the aggregate outcome of an import run and the only output
// contract of the engine. Invariant: TotalRows = SuccessCount + FailedCount;
// skipped rows are a subset of successes, not a third bucket.
type ImportResult struct {
	TotalRows    int               `json:"total_rows"`
	SuccessCount int               `json:"success_count"`
	FailedCount  int               `json:"failed_count"`
	SkippedCount int               `json:"skipped_count"`
	Errors       []ImportError     `json:"errors"`
	Warnings     []ImportWarning   `json:"warnings"`
	GroupCounts  map[DataGroup]int `json:"group_counts"`
	// Success is false only when the run itself aborted (run-fatal error or
	// failed pre-validation); row-level failures leave it true.
	Success bool `json:"success"`
}

// NewImportResult returns an empty result ready for aggregation.
func NewImportResult() *ImportResult {
	return &ImportResult{
		Errors:      []ImportError{},
		Warnings:    []ImportWarning{},
		GroupCounts: make(map[DataGroup]int),
		Success:     true,
	}
}

// AddError records a row-fatal error and counts the row as failed.
func (r *ImportResult) AddError(row int, field, message string) {
	r.Errors = append(r.Errors, ImportError{Row: row, Field: field, Message: message})
	r.FailedCount++
}

// AddWarning records a row-tolerable warning. It does not affect row counts.
func (r *ImportResult) AddWarning(row int, field, message string, action WarningAction) {
	r.Warnings = append(r.Warnings, ImportWarning{Row: row, Field: field, Message: message, Action: action})
}

// AddSuccess counts one row as successfully applied. skipped marks rows that
// succeeded with at least one skipped field.
func (r *ImportResult) AddSuccess(skipped bool) {
	r.SuccessCount++
	if skipped {
		r.SkippedCount++
	}
}

// Merge folds a per-group result into the aggregate, attributing the group's
// processed row count.
func (r *ImportResult) Merge(group DataGroup, other *ImportResult) {
	r.TotalRows += other.TotalRows
	r.SuccessCount += other.SuccessCount
	r.FailedCount += other.FailedCount
	r.SkippedCount += other.SkippedCount
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.GroupCounts[group] += other.TotalRows
	if !other.Success {
		r.Success = false
	}
}

// HasErrors reports whether any row-fatal error was recorded.
func (r *ImportResult) HasErrors() bool {
	return len(r.Errors) > 0
}
