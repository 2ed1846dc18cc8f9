package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/salaryflow/payroll-backend/internal/payroll/service"
	"github.com/salaryflow/payroll-backend/pkg/errors"
	"github.com/salaryflow/payroll-backend/pkg/httputil"
	"github.com/salaryflow/payroll-backend/pkg/logger"
)

// ExportHandler handles CSV export and summary endpoints
type ExportHandler struct {
	exports *service.ExportService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(exports *service.ExportService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		exports: exports,
		logger:  log,
	}
}

// PayrollDetails streams a period's payroll details as CSV
func (h *ExportHandler) PayrollDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := h.exports.ExportPayrollDetails(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	writeCSV(w, fmt.Sprintf("payroll_details_%s.csv", id), data)
}

// ContributionBases streams the contribution bases effective at a date as CSV
func (h *ExportHandler) ContributionBases(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfDate(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	data, err := h.exports.ExportContributionBases(r.Context(), asOf)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	writeCSV(w, fmt.Sprintf("contribution_bases_%s.csv", asOf.Format("2006-01-02")), data)
}

// CategoryAssignments streams the category assignments effective at a date as CSV
func (h *ExportHandler) CategoryAssignments(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfDate(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	data, err := h.exports.ExportCategoryAssignments(r.Context(), asOf)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	writeCSV(w, fmt.Sprintf("category_assignments_%s.csv", asOf.Format("2006-01-02")), data)
}

// Summary returns per-category payroll aggregates for a period
func (h *ExportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, period, err := h.exports.PeriodSummary(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"period":     period,
		"categories": summary,
	})
}

func asOfDate(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("as_of")
	if v == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, errors.BadRequest("as_of must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
