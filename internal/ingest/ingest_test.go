package ingest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/acuityprep/blueprint-cli/internal/model"
)

func TestReadCSV_VendorHeaders(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"Category, Correct, Total Questions, Performance",
		"Cardiovascular System, 42, 60, below average",
		"Renal and Urinary System, 12, 20,",
		", , ,", // blank row skipped
	}, "\n")

	rows, err := ReadCSV(strings.NewReader(in), Options{DefaultCategoryType: "system"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, "system", r.CategoryType)
	assert.Equal(t, "Cardiovascular System", r.Name)
	assert.Equal(t, model.Str("42"), r.Correct)
	assert.Equal(t, model.Str("60"), r.Total)
	assert.Equal(t, model.Str("below average"), r.ProxyWeakness)
	assert.Equal(t, 1.0, r.Confidence, "manual exports default to full confidence")

	assert.False(t, rows[1].ProxyWeakness.Present())
}

func TestReadCSV_TypeAndConfidenceColumns(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"Type,Name,Pct,Confidence",
		"discipline,Surgery,65%,0.8",
	}, "\n")

	rows, err := ReadCSV(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "discipline", rows[0].CategoryType)
	assert.Equal(t, model.Str("65%"), rows[0].PercentCorrect)
	assert.Equal(t, 0.8, rows[0].Confidence)
}

func TestReadCSV_NoNameColumn(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("Foo,Bar\n1,2"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no category-name column")
}

func TestReadCSV_Empty(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader(""), Options{})
	require.Error(t, err)
}

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_FirstSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Report": {
			{"Topic", "Num Correct", "Usage"},
			{"OMM", "18", "30"},
			{"Professionalism", "9", "10"},
		},
	})

	rows, err := ReadXLSX(path, "", Options{DefaultCategoryType: "competency_domain"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "OMM", rows[0].Name)
	assert.Equal(t, model.Str("30"), rows[0].Total)
	assert.Equal(t, "competency_domain", rows[1].CategoryType)
}

func TestReadXLSX_NamedSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Summary": {{"Name"}, {"ignored"}},
		"Detail": {
			{"Name", "Wrong", "Correct"},
			{"Surgery", "7", "13"},
		},
	})

	rows, err := ReadXLSX(path, "Detail", Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Surgery", rows[0].Name)
	assert.Equal(t, model.Str("7"), rows[0].IncorrectCount)

	_, err = ReadXLSX(path, "NoSuchSheet", Options{})
	require.Error(t, err)
}

func TestMapHeader_Normalization(t *testing.T) {
	t.Parallel()

	cols := mapHeader([]string{" Category  Type ", "NAME", "% Correct", "Bar Position", "Mystery"})
	assert.Equal(t, colCategoryType, cols[0])
	assert.Equal(t, colName, cols[1])
	assert.Equal(t, colPercent, cols[2])
	assert.Equal(t, colProxy, cols[3])
	_, ok := cols[4]
	assert.False(t, ok, "unknown headers are ignored")
}
