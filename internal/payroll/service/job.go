package service

import (
	"context"
	"time"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/logger"
)

// JobImporter writes job assignments (department, position, rank) as
// effective-dated slices, one write per row. The three fact fields are
// free text; a row where all of them are empty carries nothing to assign.
type JobImporter struct {
	resolver    *EmployeeResolver
	assignments AssignmentStore
	log         *logger.Logger
}

// NewJobImporter creates a job-assignment importer.
func NewJobImporter(resolver *EmployeeResolver, assignments AssignmentStore, log *logger.Logger) *JobImporter {
	return &JobImporter{
		resolver:    resolver,
		assignments: assignments,
		log:         log.WithComponent("job-importer"),
	}
}

type jobRow struct {
	rowNum    int
	employee  *domain.Employee
	fact      domain.JobFact
	effective time.Time
}

type jobPlan struct {
	imp    *JobImporter
	rows   []jobRow
	result *domain.ImportResult
}

func (imp *JobImporter) group() domain.DataGroup {
	return domain.GroupJobAssignment
}

func (imp *JobImporter) prepare(ctx context.Context, rows []domain.Row, cfg domain.ImportConfig) (applier, *domain.ImportResult, error) {
	dict := domain.DefaultDictionary(domain.GroupJobAssignment)
	result := domain.NewImportResult()
	result.TotalRows = len(rows)

	identifiers := make([]domain.EmployeeIdentifier, len(rows))
	for i, row := range rows {
		identifiers[i] = extractIdentifier(row, dict)
	}
	resolutions, err := imp.resolver.ResolveMany(ctx, identifiers)
	if err != nil {
		return nil, nil, err
	}

	plan := &jobPlan{imp: imp, result: result}
	for i, row := range rows {
		rowNum := row.SourceRow(i)

		if !identifiers[i].Resolvable() {
			result.AddError(rowNum, "", domain.MsgMissingIdentifier)
			continue
		}
		if res := resolutions[i]; res.Err != nil {
			result.AddError(rowNum, "", resolutionMessage(res.Err))
			continue
		}

		fact := domain.JobFact{
			Department: cellFor(row, dict, domain.FieldDepartment),
			Position:   cellFor(row, dict, domain.FieldPosition),
			JobRank:    cellFor(row, dict, domain.FieldJobRank),
		}
		if fact.Empty() {
			result.AddError(rowNum, "", domain.MsgEmptyJobAssignment)
			continue
		}

		effective, defaulted, err := effectiveDate(row, dict, cfg.Period)
		if err != nil {
			result.AddError(rowNum, domain.FieldEffectiveDate, domain.MsgInvalidDate)
			continue
		}
		if defaulted {
			result.AddWarning(rowNum, domain.FieldEffectiveDate, domain.MsgDefaultedDate, domain.ActionDefaulted)
		}

		plan.rows = append(plan.rows, jobRow{
			rowNum:    rowNum,
			employee:  resolutions[i].Employee,
			fact:      fact,
			effective: effective,
		})
	}

	return plan, result, nil
}

func (p *jobPlan) apply(ctx context.Context) error {
	imp := p.imp

	for _, row := range p.rows {
		rowNum := row.rowNum

		backdated, err := imp.assignments.ApplyJobSlice(ctx, row.employee.ID, row.fact, row.effective)
		if err != nil {
			imp.log.WithError(err).Error().Int("row", rowNum).Msg("job slice write failed")
			p.result.AddError(rowNum, "", domain.MsgStoreFailure)
			continue
		}
		if backdated {
			p.result.AddWarning(rowNum, domain.FieldEffectiveDate, domain.MsgBackdatedSlice, domain.ActionAccepted)
		}
		p.result.AddSuccess(false)
	}

	return nil
}
