package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/salaryflow/payroll-backend/internal/payroll/domain"
	"github.com/xuri/excelize/v2"
)

// RowsFromXLSX reads the first sheet of a workbook into generic rows. The
// first sheet row is the header; every later row becomes one label→value
// map. Trailing cells beyond the header width are dropped, and rows where
// every cell is blank are skipped so that the trailing empty region Excel
// keeps around does not show up as failed rows. Surviving rows keep their
// original sheet row number for error reporting.
func RowsFromXLSX(r io.Reader) ([]domain.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	header := make([]string, len(raw[0]))
	for i, label := range raw[0] {
		header[i] = strings.TrimSpace(label)
	}

	var rows []domain.Row
	for j, cells := range raw[1:] {
		values := make(map[string]string, len(header))
		empty := true
		for i, label := range header {
			if label == "" {
				continue
			}
			var v string
			if i < len(cells) {
				v = strings.TrimSpace(cells[i])
			}
			if v != "" {
				empty = false
			}
			values[label] = v
		}
		if empty {
			continue
		}
		// Data row at raw index j+1 is sheet row j+2. Carrying the sheet
		// row keeps reported numbers aligned when blank rows are skipped.
		rows = append(rows, domain.Row{Number: j + 2, Values: values})
	}

	return rows, nil
}
