package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/acuityprep/blueprint-cli/internal/model"
)

// ReadXLSX parses an XLSX score export. SheetName selects a sheet by
// name; empty means the first sheet.
func ReadXLSX(path, sheetName string, opts Options) ([]model.RawCategoryRow, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if sheetName != "" {
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", sheetName)
		}
		sheet = s
	}

	var records [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		records = append(records, cells)
	}
	return fromRecords(records, opts)
}
