package ingest

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/acuityprep/blueprint-cli/internal/model"
)

// ReadCSV parses a CSV score export. The first record is the header.
func ReadCSV(r io.Reader, opts Options) ([]model.RawCategoryRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // vendors pad rows inconsistently
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv")
	}
	return fromRecords(records, opts)
}
