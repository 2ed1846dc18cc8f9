package service

import (
	"context"
	"strings"
	"time"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// ContributionImporter writes insurance contribution bases as effective-dated
// slices, one per (employee, insurance type). Column labels are mapped to
// stable system keys through the dictionary; unmapped labels and malformed
// amounts are skipped per field, not per row.
type ContributionImporter struct {
	resolver    *EmployeeResolver
	components  *ComponentResolver
	assignments AssignmentStore
	log         *logger.Logger
}

// NewContributionImporter creates a contribution-bases importer.
func NewContributionImporter(resolver *EmployeeResolver, components *ComponentResolver, assignments AssignmentStore, log *logger.Logger) *ContributionImporter {
	return &ContributionImporter{
		resolver:    resolver,
		components:  components,
		assignments: assignments,
		log:         log.WithComponent("contribution-importer"),
	}
}

type contributionFact struct {
	insuranceType domain.InsuranceBaseType
	amount        decimal.Decimal
}

type contributionRow struct {
	rowNum    int
	employee  *domain.Employee
	effective time.Time
	facts     []contributionFact
	skipped   bool
}

type contributionPlan struct {
	imp    *ContributionImporter
	rows   []contributionRow
	result *domain.ImportResult
}

func (imp *ContributionImporter) group() domain.DataGroup {
	return domain.GroupContributionBases
}

func (imp *ContributionImporter) prepare(ctx context.Context, rows []domain.Row, cfg domain.ImportConfig) (applier, *domain.ImportResult, error) {
	dict := domain.DefaultDictionary(domain.GroupContributionBases)
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

	plan := &contributionPlan{imp: imp, result: result}
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

		effective, defaulted, err := effectiveDate(row, dict, cfg.Period)
		if err != nil {
			result.AddError(rowNum, domain.FieldEffectiveDate, domain.MsgInvalidDate)
			continue
		}
		if defaulted {
			result.AddWarning(rowNum, domain.FieldEffectiveDate, domain.MsgDefaultedDate, domain.ActionDefaulted)
		}

		parsed := contributionRow{rowNum: rowNum, employee: resolutions[i].Employee, effective: effective}
		for label, raw := range row.Values {
			if dict.IsIdentifierLabel(label) || strings.TrimSpace(raw) == "" {
				continue
			}
			mapping, ok := dict.FieldFor(label)
			if !ok {
				result.AddWarning(rowNum, label, domain.MsgUnknownInsuranceKey, domain.ActionSkipped)
				parsed.skipped = true
				continue
			}
			if mapping.Type != domain.FieldTypeDecimal {
				continue
			}

			insuranceType, err := imp.components.InsuranceType(ctx, mapping.Field)
			if err != nil {
				return nil, nil, err
			}
			if insuranceType == nil {
				result.AddWarning(rowNum, label, domain.MsgUnknownInsuranceKey, domain.ActionSkipped)
				parsed.skipped = true
				continue
			}

			amount, err := parseAmount(raw)
			if err != nil {
				result.AddWarning(rowNum, label, domain.MsgInvalidAmount, domain.ActionSkipped)
				parsed.skipped = true
				continue
			}
			if amount.IsNegative() {
				result.AddWarning(rowNum, label, domain.MsgNegativeAmount, domain.ActionSkipped)
				parsed.skipped = true
				continue
			}
			parsed.facts = append(parsed.facts, contributionFact{insuranceType: *insuranceType, amount: amount})
		}

		if len(parsed.facts) == 0 {
			result.AddError(rowNum, "", domain.MsgNoValueColumns)
			continue
		}
		plan.rows = append(plan.rows, parsed)
	}

	return plan, result, nil
}

// apply writes each row's bases as individual slices. The slices are
// independent atomic units, so a store failure fails only its row.
func (p *contributionPlan) apply(ctx context.Context) error {
	imp := p.imp

	for _, row := range p.rows {
		rowNum := row.rowNum

		failed := false
		for _, fact := range row.facts {
			backdated, err := imp.assignments.ApplyContributionBaseSlice(ctx, row.employee.ID, fact.insuranceType.ID, fact.amount, row.effective)
			if err != nil {
				imp.log.WithError(err).Error().Int("row", rowNum).Str("insurance_type", fact.insuranceType.SystemKey).Msg("contribution base write failed")
				p.result.AddError(rowNum, fact.insuranceType.SystemKey, domain.MsgStoreFailure)
				failed = true
				break
			}
			if backdated {
				p.result.AddWarning(rowNum, fact.insuranceType.SystemKey, domain.MsgBackdatedSlice, domain.ActionAccepted)
			}
		}
		if !failed {
			p.result.AddSuccess(row.skipped)
		}
	}

	return nil
}
