package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/internal/payroll/repository"
	"github.com/salaryflow/payroll-backend/pkg/errors"
	"github.com/salaryflow/payroll-backend/pkg/httputil"
	"github.com/salaryflow/payroll-backend/pkg/logger"
)

// PeriodHandler handles pay period endpoints
type PeriodHandler struct {
	periods *repository.PeriodRepository
	logger  *logger.Logger
}

// NewPeriodHandler creates a new period handler
func NewPeriodHandler(periods *repository.PeriodRepository, log *logger.Logger) *PeriodHandler {
	return &PeriodHandler{
		periods: periods,
		logger:  log,
	}
}

// List lists pay periods, newest first
func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	periods, err := h.periods.List(r.Context(), limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, periods, &httputil.Meta{Total: int64(len(periods))})
}

// Get gets a pay period by ID
func (h *PeriodHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	period, err := h.periods.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, period)
}

// Resolve finds the period for a YYYY-MM month key
func (h *PeriodHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		httputil.Error(w, errors.BadRequest("month query parameter is required"))
		return
	}

	period, err := h.periods.FindByMonth(r.Context(), month)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, period)
}

// CreatePeriodRequest is the JSON body for creating a pay period.
type CreatePeriodRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	PayDate   string `json:"pay_date" validate:"required,datetime=2006-01-02"`
}

// Create creates a new pay period
func (h *PeriodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	startDate, _ := time.Parse("2006-01-02", req.StartDate)
	endDate, _ := time.Parse("2006-01-02", req.EndDate)
	payDate, _ := time.Parse("2006-01-02", req.PayDate)
	if endDate.Before(startDate) {
		httputil.Error(w, errors.BadRequest("end_date must not be before start_date"))
		return
	}

	period := &domain.PayPeriod{
		Name:      req.Name,
		StartDate: startDate,
		EndDate:   endDate,
		PayDate:   payDate,
	}
	if err := h.periods.Create(r.Context(), period); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, period)
}
