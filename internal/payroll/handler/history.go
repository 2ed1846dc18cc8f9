package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/salaryflow/payroll-backend/internal/payroll/repository"
	"github.com/salaryflow/payroll-backend/pkg/errors"
	"github.com/salaryflow/payroll-backend/pkg/httputil"
	"github.com/salaryflow/payroll-backend/pkg/logger"
)

// HistoryHandler exposes the effective-dated assignment timelines the import
// engine writes. Slices are never deleted, so the timeline is the full
// history.
type HistoryHandler struct {
	assignments *repository.AssignmentRepository
	logger      *logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(assignments *repository.AssignmentRepository, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		assignments: assignments,
		logger:      log,
	}
}

// CategoryHistory returns an employee's category assignment slices, oldest
// first. At most one slice has a null effective_end.
func (h *HistoryHandler) CategoryHistory(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	if employeeID == "" {
		httputil.Error(w, errors.BadRequest("employee id is required"))
		return
	}

	slices, err := h.assignments.ListCategorySlices(r.Context(), employeeID)
	if err != nil {
		h.logger.WithError(err).Error().Str("employee_id", employeeID).Msg("failed to list category history")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, slices)
}
