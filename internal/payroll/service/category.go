package service

import (
	"context"
	"time"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/logger"
)

// CategoryImporter writes personnel category assignments as effective-dated
// slices, one write per row. The category is the row's only fact, so it is
// required and an unknown category name fails the row.
type CategoryImporter struct {
	resolver    *EmployeeResolver
	components  *ComponentResolver
	assignments AssignmentStore
	log         *logger.Logger
}

// NewCategoryImporter creates a category-assignment importer.
func NewCategoryImporter(resolver *EmployeeResolver, components *ComponentResolver, assignments AssignmentStore, log *logger.Logger) *CategoryImporter {
	return &CategoryImporter{
		resolver:    resolver,
		components:  components,
		assignments: assignments,
		log:         log.WithComponent("category-importer"),
	}
}

type categoryRow struct {
	rowNum    int
	employee  *domain.Employee
	category  domain.PersonnelCategory
	effective time.Time
}

type categoryPlan struct {
	imp    *CategoryImporter
	rows   []categoryRow
	result *domain.ImportResult
}

func (imp *CategoryImporter) group() domain.DataGroup {
	return domain.GroupCategoryAssignment
}

func (imp *CategoryImporter) prepare(ctx context.Context, rows []domain.Row, cfg domain.ImportConfig) (applier, *domain.ImportResult, error) {
	dict := domain.DefaultDictionary(domain.GroupCategoryAssignment)
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

	plan := &categoryPlan{imp: imp, result: result}
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

		name := cellFor(row, dict, domain.FieldCategory)
		if name == "" {
			result.AddError(rowNum, domain.FieldCategory, domain.MsgMissingCategory)
			continue
		}
		category, err := imp.components.Category(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		if category == nil {
			result.AddError(rowNum, domain.FieldCategory, domain.MsgUnknownCategory)
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

		plan.rows = append(plan.rows, categoryRow{
			rowNum:    rowNum,
			employee:  resolutions[i].Employee,
			category:  *category,
			effective: effective,
		})
	}

	return plan, result, nil
}

func (p *categoryPlan) apply(ctx context.Context) error {
	imp := p.imp

	for _, row := range p.rows {
		rowNum := row.rowNum

		backdated, err := imp.assignments.ApplyCategorySlice(ctx, row.employee.ID, row.category.ID, row.effective)
		if err != nil {
			imp.log.WithError(err).Error().Int("row", rowNum).Msg("category slice write failed")
			p.result.AddError(rowNum, domain.FieldCategory, domain.MsgStoreFailure)
			continue
		}
		if backdated {
			p.result.AddWarning(rowNum, domain.FieldEffectiveDate, domain.MsgBackdatedSlice, domain.ActionAccepted)
		}
		p.result.AddSuccess(false)
	}

	return nil
}
