package source_test

import (
	"testing"

	"github.com/salaryflow/payroll-backend/internal/payroll/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRowsFromXLSX_ReadsFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"姓名", "基本工资"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"张伟", "8000"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := source.RowsFromXLSX(buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "张伟", rows[0].Get("姓名"))
	assert.Equal(t, "8000", rows[0].Get("基本工资"))
}

func TestRowsFromXLSX_BlankRowsKeepSheetNumbers(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"姓名", "基本工资"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"张伟", "8000"}))
	// Sheet row 3 stays blank; the row after it must still report as row 4.
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"李娜", "9000"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := source.RowsFromXLSX(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, 4, rows[1].Number)
	assert.Equal(t, "李娜", rows[1].Get("姓名"))
}

func TestRowsFromXLSX_EmptySheetIsAnError(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = source.RowsFromXLSX(buf)
	assert.Error(t, err)
}
