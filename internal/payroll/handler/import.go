package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/internal/payroll/service"
	"github.com/salaryflow/payroll-backend/internal/payroll/source"
	"github.com/salaryflow/payroll-backend/pkg/config"
	"github.com/salaryflow/payroll-backend/pkg/errors"
	"github.com/salaryflow/payroll-backend/pkg/httputil"
	"github.com/salaryflow/payroll-backend/pkg/logger"
	"github.com/salaryflow/payroll-backend/pkg/messaging"
)

// maxUploadBytes bounds xlsx uploads (16 MiB).
const maxUploadBytes = 16 << 20

// ImportHandler handles import run endpoints
type ImportHandler struct {
	imports *service.ImportService
	periods service.PeriodStore
	cfg     config.ImportConfig
	logger  *logger.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(imports *service.ImportService, periods service.PeriodStore, cfg config.ImportConfig, log *logger.Logger) *ImportHandler {
	return &ImportHandler{
		imports: imports,
		periods: periods,
		cfg:     cfg,
		logger:  log,
	}
}

// ImportRequest is the JSON body of an import run.
type ImportRequest struct {
	PeriodID             string                         `json:"period_id"`
	Month                string                         `json:"month"`
	Mode                 string                         `json:"mode" validate:"required,oneof=CREATE UPDATE UPSERT"`
	Groups               []string                       `json:"groups" validate:"required,min=1"`
	BatchSize            int                            `json:"batch_size" validate:"omitempty,min=1,max=1000"`
	ValidateBeforeImport bool                           `json:"validate_before_import"`
	Rows                 map[string][]map[string]string `json:"rows" validate:"required"`
}

// Run starts an import from JSON rows, keyed by data group.
func (h *ImportHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	period, err := h.resolvePeriod(r, req.PeriodID, req.Month)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	groups := make([]domain.DataGroup, 0, len(req.Groups))
	for _, g := range req.Groups {
		group := domain.DataGroup(g)
		if !group.Valid() {
			httputil.Error(w, errors.BadRequest("unknown data group: "+g))
			return
		}
		groups = append(groups, group)
	}

	total := 0
	rows := make(map[domain.DataGroup][]domain.Row, len(req.Rows))
	for groupName, rawRows := range req.Rows {
		group := domain.DataGroup(groupName)
		if !group.Valid() || group == domain.GroupAll {
			httputil.Error(w, errors.BadRequest("unknown data group in rows: "+groupName))
			return
		}
		converted := make([]domain.Row, len(rawRows))
		for i, values := range rawRows {
			converted[i] = domain.Row{Values: values}
		}
		rows[group] = converted
		total += len(rawRows)
	}
	if h.cfg.MaxRows > 0 && total > h.cfg.MaxRows {
		httputil.Error(w, errors.BadRequest("row count exceeds the import limit"))
		return
	}

	importCfg := domain.ImportConfig{
		Groups:               groups,
		Mode:                 domain.ImportMode(req.Mode),
		Period:               *period,
		BatchSize:            h.effectiveBatchSize(req.BatchSize),
		ValidateBeforeImport: req.ValidateBeforeImport,
	}

	result := h.imports.Import(importContext(r), importCfg, rows)
	httputil.JSON(w, http.StatusOK, result)
}

// RunXLSX starts an import for a single data group from an uploaded workbook.
// The sheet's first row must carry the column labels of that group's
// dictionary.
func (h *ImportHandler) RunXLSX(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.Error(w, errors.BadRequest("invalid multipart form"))
		return
	}

	group := domain.DataGroup(r.FormValue("group"))
	if !group.Valid() || group == domain.GroupAll {
		httputil.Error(w, errors.BadRequest("a single concrete data group is required"))
		return
	}
	mode := domain.ImportMode(r.FormValue("mode"))
	if !mode.Valid() {
		httputil.Error(w, errors.BadRequest("unknown import mode"))
		return
	}

	period, err := h.resolvePeriod(r, r.FormValue("period_id"), r.FormValue("month"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing file upload"))
		return
	}
	defer file.Close()

	rows, err := source.RowsFromXLSX(file)
	if err != nil {
		h.logger.WithError(err).Warn().Msg("failed to parse uploaded workbook")
		httputil.Error(w, errors.BadRequest("could not read the uploaded workbook"))
		return
	}
	if h.cfg.MaxRows > 0 && len(rows) > h.cfg.MaxRows {
		httputil.Error(w, errors.BadRequest("row count exceeds the import limit"))
		return
	}

	batchSize := 0
	if v := r.FormValue("batch_size"); v != "" {
		batchSize, _ = strconv.Atoi(v)
	}

	importCfg := domain.ImportConfig{
		Groups:               []domain.DataGroup{group},
		Mode:                 mode,
		Period:               *period,
		BatchSize:            h.effectiveBatchSize(batchSize),
		ValidateBeforeImport: r.FormValue("validate_before_import") == "true",
	}

	result := h.imports.Import(importContext(r), importCfg, map[domain.DataGroup][]domain.Row{group: rows})
	httputil.JSON(w, http.StatusOK, result)
}

// importContext carries the request ID into the run so published lifecycle
// events correlate back to the HTTP request that started the import.
func importContext(r *http.Request) context.Context {
	ctx := r.Context()
	if requestID := httputil.GetRequestID(ctx); requestID != "" {
		ctx = messaging.WithCorrelationID(ctx, requestID)
	}
	return ctx
}

func (h *ImportHandler) resolvePeriod(r *http.Request, periodID, month string) (*domain.PayPeriod, error) {
	switch {
	case periodID != "":
		return h.periods.GetByID(r.Context(), periodID)
	case month != "":
		return h.periods.FindByMonth(r.Context(), month)
	default:
		return nil, errors.BadRequest("period_id or month is required")
	}
}

func (h *ImportHandler) effectiveBatchSize(requested int) int {
	if requested > 0 {
		return requested
	}
	return h.cfg.BatchSize
}
