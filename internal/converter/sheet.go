package converter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nconklindev/assaysplit/internal/types"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Column names expected in the export's header row. Matching is exact:
// case- and spacing-sensitive.
const (
	colSampleNum      = "Sample Num"
	colTestName       = "Test Name"
	colPrint          = "Print"
	colRun            = "Run"
	colProcessGroup   = "Process Group"
	colProcessName    = "Process Name"
	colReceivedDate   = "Received Date"
	colExpirationDate = "Expiration Date"
)

// ReadRows extracts the data rows of a workbook's first sheet, one
// RawRow per row in sheet order. The first row is the header and must
// contain the Sample Num and Test Name columns.
func ReadRows(path string) ([]types.RawRow, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".xlsx":
		return readXLSXRows(path)
	case ".xls":
		return readXLSRows(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func readXLSXRows(path string) ([]types.RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	return rawRowsFromGrid(rows)
}

func readXLSRows(path string) ([]types.RawRow, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, err
	}

	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("workbook sheet 0 is unreadable")
	}

	var grid [][]string
	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		row := sheet.Row(rowID)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		var cells []string
		for colID := 0; colID <= row.LastCol(); colID++ {
			cells = append(cells, row.Col(colID))
		}
		grid = append(grid, cells)
	}

	return rawRowsFromGrid(grid)
}

// rawRowsFromGrid maps a header row plus data rows onto RawRows. Cells
// beyond a short row's length read as empty strings.
func rawRowsFromGrid(grid [][]string) ([]types.RawRow, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	cols := make(map[string]int)
	for i, name := range grid[0] {
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}

	for _, required := range []string{colSampleNum, colTestName} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	rows := make([]types.RawRow, 0, len(grid)-1)
	for _, r := range grid[1:] {
		rows = append(rows, types.RawRow{
			SampleNum:      cell(r, colSampleNum),
			TestName:       cell(r, colTestName),
			Print:          cell(r, colPrint),
			Run:            cell(r, colRun),
			ProcessGroup:   cell(r, colProcessGroup),
			ProcessName:    cell(r, colProcessName),
			ReceivedDate:   cell(r, colReceivedDate),
			ExpirationDate: cell(r, colExpirationDate),
		})
	}

	return rows, nil
}
