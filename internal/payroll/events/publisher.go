package events

import (
	"context"
	"time"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/logger"
	"github.com/salaryflow/payroll-backend/pkg/messaging"
)

// ImportEventPublisher emits import run lifecycle events to RabbitMQ.
// Publishing is best effort: a broker failure is logged and never fails the
// import, since the result has already been committed.
type ImportEventPublisher struct {
	publisher *messaging.Publisher
	log       *logger.Logger
}

// NewImportEventPublisher creates a publisher on the payroll events exchange.
func NewImportEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*ImportEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangePayrollEvents, "payroll-service", log)
	if err != nil {
		return nil, err
	}

	return &ImportEventPublisher{
		publisher: publisher,
		log:       log.WithComponent("import-events"),
	}, nil
}

// ImportCompleted publishes the run's aggregate counts.
func (p *ImportEventPublisher) ImportCompleted(ctx context.Context, runID string, cfg domain.ImportConfig, result *domain.ImportResult) {
	groups := make([]string, 0, len(cfg.Groups))
	for _, g := range cfg.Groups {
		groups = append(groups, string(g))
	}

	event := messaging.ImportCompletedEvent{
		RunID:        runID,
		PeriodID:     cfg.Period.ID,
		DataGroups:   groups,
		Mode:         string(cfg.Mode),
		TotalRows:    result.TotalRows,
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
		SkippedCount: result.SkippedCount,
		Success:      result.Success,
		FinishedAt:   time.Now().UTC(),
	}

	if err := p.publisher.Publish(ctx, messaging.EventImportCompleted, event); err != nil {
		p.log.WithError(err).Warn().Str("import_run_id", runID).Msg("failed to publish import completed event")
	}
}

// ImportFailed publishes a run abort with its reason.
func (p *ImportEventPublisher) ImportFailed(ctx context.Context, runID string, cfg domain.ImportConfig, reason string) {
	event := messaging.ImportFailedEvent{
		RunID:    runID,
		PeriodID: cfg.Period.ID,
		Reason:   reason,
	}

	if err := p.publisher.Publish(ctx, messaging.EventImportFailed, event); err != nil {
		p.log.WithError(err).Warn().Str("import_run_id", runID).Msg("failed to publish import failed event")
	}
}
