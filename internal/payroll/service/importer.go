package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/logger"
)

// importer is one group's parse/resolve phase; it returns an applier holding
// everything needed for the write phase.
type importer interface {
	group() domain.DataGroup
	prepare(ctx context.Context, rows []domain.Row, cfg domain.ImportConfig) (applier, *domain.ImportResult, error)
}

// applier is one group's write phase.
type applier interface {
	apply(ctx context.Context) error
}

// EventSink receives run lifecycle notifications. A nil sink is allowed.
type EventSink interface {
	ImportCompleted(ctx context.Context, runID string, cfg domain.ImportConfig, result *domain.ImportResult)
	ImportFailed(ctx context.Context, runID string, cfg domain.ImportConfig, reason string)
}

// ImportService is the import entry point. It validates the run parameters,
// fans out to the requested group importers with run-scoped resolver caches,
// and aggregates their results. The caller always gets a complete
// ImportResult; a run-fatal failure sets Success false and appends one
// summary error, and anything already committed stays committed.
type ImportService struct {
	employees   EmployeeStore
	components  ComponentStore
	records     RecordStore
	items       LineItemStore
	assignments AssignmentStore
	events      EventSink
	log         *logger.Logger
}

// NewImportService wires an import service to its stores.
func NewImportService(
	employees EmployeeStore,
	components ComponentStore,
	records RecordStore,
	items LineItemStore,
	assignments AssignmentStore,
	events EventSink,
	log *logger.Logger,
) *ImportService {
	return &ImportService{
		employees:   employees,
		components:  components,
		records:     records,
		items:       items,
		assignments: assignments,
		events:      events,
		log:         log.WithComponent("import-service"),
	}
}

// Import runs one import: config validation, per-group parse/resolve, then
// per-group writes. When cfg.ValidateBeforeImport is set and any group's
// parse pass records a row-fatal error, the run returns without writing
// anything and Success is false.
func (s *ImportService) Import(ctx context.Context, cfg domain.ImportConfig, rows map[domain.DataGroup][]domain.Row) *domain.ImportResult {
	runID := uuid.New().String()
	log := s.log.WithImportRun(runID)

	result := domain.NewImportResult()
	if err := cfg.Validate(); err != nil {
		result.Success = false
		result.Errors = append(result.Errors, domain.ImportError{Message: err.Error()})
		s.notify(ctx, runID, cfg, result, err.Error())
		return result
	}

	groups := expandGroups(cfg.Groups)
	log.Info().
		Str("mode", string(cfg.Mode)).
		Str("period", cfg.Period.Name).
		Int("groups", len(groups)).
		Bool("validate_first", cfg.ValidateBeforeImport).
		Msg("import run started")

	// Run-scoped caches: a fresh resolver pair per invocation so concurrent
	// runs never share lookup state.
	resolver := NewEmployeeResolver(s.employees)
	components := NewComponentResolver(s.components)

	type preparedGroup struct {
		group   domain.DataGroup
		applier applier
		result  *domain.ImportResult
	}
	var prepared []preparedGroup

	for _, group := range groups {
		imp := s.importerFor(group, resolver, components, log)

		var (
			plan        applier
			groupResult *domain.ImportResult
		)
		err := guard(func() error {
			var prepErr error
			plan, groupResult, prepErr = imp.prepare(ctx, rows[group], cfg)
			return prepErr
		})
		if err != nil {
			log.WithError(err).Error().Str("group", string(group)).Msg("import run aborted during parse")
			if groupResult != nil {
				result.Merge(group, groupResult)
			}
			result.Success = false
			result.Errors = append(result.Errors, domain.ImportError{
				Message: fmt.Sprintf("import aborted in group %s: %v", group, err),
			})
			s.notify(ctx, runID, cfg, result, err.Error())
			return result
		}
		prepared = append(prepared, preparedGroup{group: imp.group(), applier: plan, result: groupResult})
	}

	if cfg.ValidateBeforeImport {
		fatal := false
		for _, p := range prepared {
			if p.result.HasErrors() {
				fatal = true
				break
			}
		}
		if fatal {
			for _, p := range prepared {
				result.Merge(p.group, p.result)
			}
			result.Success = false
			log.Warn().Int("failed_rows", result.FailedCount).Msg("pre-validation failed, nothing written")
			s.notify(ctx, runID, cfg, result, "pre-validation failed")
			return result
		}
	}

	for _, p := range prepared {
		err := guard(func() error {
			return p.applier.apply(ctx)
		})
		if err != nil {
			// Rows the aborted group never reached sit in neither bucket;
			// trim them so the totals still add up.
			p.result.TotalRows = p.result.SuccessCount + p.result.FailedCount
		}
		result.Merge(p.group, p.result)
		if err != nil {
			log.WithError(err).Error().Str("group", string(p.group)).Msg("import run aborted during write")
			result.Success = false
			result.Errors = append(result.Errors, domain.ImportError{
				Message: fmt.Sprintf("import aborted in group %s: %v", p.group, err),
			})
			// Groups already applied stay committed; groups after this one
			// never ran and are not counted.
			s.notify(ctx, runID, cfg, result, err.Error())
			return result
		}
	}

	log.Info().
		Int("total", result.TotalRows).
		Int("success", result.SuccessCount).
		Int("failed", result.FailedCount).
		Int("skipped", result.SkippedCount).
		Msg("import run finished")

	s.notify(ctx, runID, cfg, result, "")
	return result
}

func (s *ImportService) importerFor(group domain.DataGroup, resolver *EmployeeResolver, components *ComponentResolver, log *logger.Logger) importer {
	switch group {
	case domain.GroupContributionBases:
		return NewContributionImporter(resolver, components, s.assignments, log)
	case domain.GroupCategoryAssignment:
		return NewCategoryImporter(resolver, components, s.assignments, log)
	case domain.GroupJobAssignment:
		return NewJobImporter(resolver, s.assignments, log)
	default:
		return NewEarningsImporter(s.records, s.items, resolver, components, log)
	}
}

func (s *ImportService) notify(ctx context.Context, runID string, cfg domain.ImportConfig, result *domain.ImportResult, reason string) {
	if s.events == nil {
		return
	}
	if result.Success {
		s.events.ImportCompleted(ctx, runID, cfg, result)
		return
	}
	s.events.ImportFailed(ctx, runID, cfg, reason)
}

// expandGroups flattens GroupAll and removes duplicates while keeping the
// fixed fan-out order.
func expandGroups(groups []domain.DataGroup) []domain.DataGroup {
	seen := make(map[domain.DataGroup]bool)
	var out []domain.DataGroup
	for _, g := range groups {
		for _, expanded := range g.Expand() {
			if !seen[expanded] {
				seen[expanded] = true
				out = append(out, expanded)
			}
		}
	}
	return out
}

// guard converts a panic escaping a group importer into an error so the run
// can finish with a summary instead of crashing the caller.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	return fn()
}
