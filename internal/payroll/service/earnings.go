package service

import (
	"context"
	"strings"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/salaryflow/payroll-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// EarningsImporter writes monetary line items. Rows are parsed against the
// earnings dictionary, where every non-identifier column is a candidate
// pay-component name, then written in chunks of whole rows so that one
// employee's items never straddle a chunk boundary.
type EarningsImporter struct {
	records    RecordStore
	items      LineItemStore
	resolver   *EmployeeResolver
	components *ComponentResolver
	log        *logger.Logger
}

// NewEarningsImporter creates an earnings importer bound to run-scoped resolvers.
func NewEarningsImporter(records RecordStore, items LineItemStore, resolver *EmployeeResolver, components *ComponentResolver, log *logger.Logger) *EarningsImporter {
	return &EarningsImporter{
		records:    records,
		items:      items,
		resolver:   resolver,
		components: components,
		log:        log.WithComponent("earnings-importer"),
	}
}

type componentAmount struct {
	component domain.PayComponent
	amount    decimal.Decimal
}

type earningsRow struct {
	rowNum   int
	employee *domain.Employee
	amounts  []componentAmount
	skipped  bool
}

type earningsPlan struct {
	imp    *EarningsImporter
	cfg    domain.ImportConfig
	rows   []earningsRow
	result *domain.ImportResult
}

func (imp *EarningsImporter) group() domain.DataGroup {
	return domain.GroupEarnings
}

// prepare parses and resolves every row. Row-fatal problems (missing or
// unresolvable identifiers, rows with nothing to import) are recorded here;
// unknown components and malformed amounts are skipped with a warning.
func (imp *EarningsImporter) prepare(ctx context.Context, rows []domain.Row, cfg domain.ImportConfig) (applier, *domain.ImportResult, error) {
	dict := domain.DefaultDictionary(domain.GroupEarnings)
	result := domain.NewImportResult()
	result.TotalRows = len(rows)

	identifiers := make([]domain.EmployeeIdentifier, len(rows))
	labelSet := make(map[string]bool)
	for i, row := range rows {
		identifiers[i] = extractIdentifier(row, dict)
		for label := range row.Values {
			if !dict.IsIdentifierLabel(label) {
				labelSet[label] = true
			}
		}
	}

	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}

	resolutions, err := imp.resolver.ResolveMany(ctx, identifiers)
	if err != nil {
		return nil, nil, err
	}
	components, err := imp.components.Components(ctx, labels)
	if err != nil {
		return nil, nil, err
	}

	plan := &earningsPlan{imp: imp, cfg: cfg, result: result}
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

		parsed := earningsRow{rowNum: rowNum, employee: resolutions[i].Employee}
		for label, raw := range row.Values {
			if dict.IsIdentifierLabel(label) || strings.TrimSpace(raw) == "" {
				continue
			}
			component, ok := components[label]
			if !ok {
				result.AddWarning(rowNum, label, domain.MsgUnknownComponent, domain.ActionSkipped)
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
			parsed.amounts = append(parsed.amounts, componentAmount{component: component, amount: amount})
		}

		if len(parsed.amounts) == 0 {
			result.AddError(rowNum, "", domain.MsgNoValueColumns)
			continue
		}
		plan.rows = append(plan.rows, parsed)
	}

	return plan, result, nil
}

// apply ensures the payroll record per employee, then writes items one chunk
// of rows at a time. A chunk failure fails that chunk's rows and the next
// chunk still runs.
func (p *earningsPlan) apply(ctx context.Context) error {
	imp := p.imp
	recordCache := make(map[string]*domain.PayrollRecord)

	var writable []earningsRow
	for _, row := range p.rows {
		record, cached := recordCache[row.employee.ID]
		if !cached {
			var err error
			record, err = imp.records.Ensure(ctx, row.employee.ID, p.cfg.Period, p.cfg.Mode)
			if err != nil {
				imp.log.WithError(err).Error().Int("row", row.rowNum).Msg("failed to ensure payroll record")
				p.result.AddError(row.rowNum, "", domain.MsgStoreFailure)
				continue
			}
			recordCache[row.employee.ID] = record
		}
		if record == nil {
			p.result.AddError(row.rowNum, "", domain.MsgRecordNotFound)
			continue
		}
		writable = append(writable, row)
	}

	batchSize := p.cfg.EffectiveBatchSize()
	for start := 0; start < len(writable); start += batchSize {
		end := start + batchSize
		if end > len(writable) {
			end = len(writable)
		}
		p.applyChunk(ctx, writable[start:end], recordCache)
	}

	return nil
}

func (p *earningsPlan) applyChunk(ctx context.Context, chunk []earningsRow, records map[string]*domain.PayrollRecord) {
	imp := p.imp

	rowItems := make([][]domain.LineItem, len(chunk))
	for ci, row := range chunk {
		record := records[row.employee.ID]
		for _, ca := range row.amounts {
			rowItems[ci] = append(rowItems[ci], domain.LineItem{
				RecordID:    record.ID,
				ComponentID: ca.component.ID,
				Amount:      ca.amount,
			})
		}
	}

	if p.cfg.Mode.AllowsOverwrite() {
		var items []domain.LineItem
		for _, ri := range rowItems {
			items = append(items, ri...)
		}
		if err := imp.items.ReplaceChunk(ctx, items); err != nil {
			imp.log.WithError(err).Error().Int("chunk_rows", len(chunk)).Msg("chunk write failed")
			for _, row := range chunk {
				p.result.AddError(row.rowNum, "", domain.MsgStoreFailure)
			}
			return
		}
		for _, row := range chunk {
			p.result.AddSuccess(row.skipped)
		}
		return
	}

	// CREATE: the store withholds every item of a conflicted row, so a
	// row reported as failed leaves nothing behind.
	conflicts, err := imp.items.InsertRows(ctx, rowItems)
	if err != nil {
		imp.log.WithError(err).Error().Int("chunk_rows", len(chunk)).Msg("chunk write failed")
		for _, row := range chunk {
			p.result.AddError(row.rowNum, "", domain.MsgStoreFailure)
		}
		return
	}

	conflicted := make(map[domain.ItemKey]bool, len(conflicts))
	for _, key := range conflicts {
		conflicted[key] = true
	}
	for _, row := range chunk {
		record := records[row.employee.ID]
		failed := false
		for _, ca := range row.amounts {
			if conflicted[domain.ItemKey{RecordID: record.ID, ComponentID: ca.component.ID}] {
				p.result.AddError(row.rowNum, ca.component.Name, domain.MsgRecordExists)
				failed = true
				break
			}
		}
		if !failed {
			p.result.AddSuccess(row.skipped)
		}
	}
}

// resolutionMessage maps a resolver outcome to its operator-facing message.
func resolutionMessage(err error) string {
	if err == domain.ErrAmbiguousEmployee {
		return domain.MsgAmbiguousEmployee
	}
	return domain.MsgEmployeeNotFound
}
