// Package ingest reads tabular score exports (CSV, XLSX) into raw
// category rows. Vendors disagree on column naming, so headers map
// through a synonym table; unknown columns are ignored.
package ingest

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/acuityprep/blueprint-cli/internal/model"
)

// Options configures tabular ingestion.
type Options struct {
	// DefaultCategoryType applies to rows when the file has no
	// category-type column.
	DefaultCategoryType string
	// DefaultConfidence applies when the file has no confidence column.
	// Manual exports default to full confidence.
	DefaultConfidence float64
}

type column int

const (
	colUnknown column = iota
	colCategoryType
	colName
	colCorrect
	colTotal
	colIncorrect
	colPercent
	colProxy
	colConfidence
)

var headerSynonyms = map[string]column{
	"category type":   colCategoryType,
	"categorytype":    colCategoryType,
	"type":            colCategoryType,
	"name":            colName,
	"category":        colName,
	"category name":   colName,
	"topic":           colName,
	"subject":         colName,
	"correct":         colCorrect,
	"num correct":     colCorrect,
	"correct count":   colCorrect,
	"right":           colCorrect,
	"total":           colTotal,
	"total questions": colTotal,
	"questions":       colTotal,
	"usage":           colTotal,
	"incorrect":       colIncorrect,
	"incorrect count": colIncorrect,
	"wrong":           colIncorrect,
	"missed":          colIncorrect,
	"percent":         colPercent,
	"percent correct": colPercent,
	"% correct":       colPercent,
	"pct":             colPercent,
	"score":           colPercent,
	"performance":     colProxy,
	"proxy":           colProxy,
	"weakness":        colProxy,
	"bar position":    colProxy,
	"confidence":      colConfidence,
}

func mapHeader(cells []string) map[int]column {
	cols := make(map[int]column)
	for i, h := range cells {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.Join(strings.Fields(key), " ")
		if c, ok := headerSynonyms[key]; ok {
			cols[i] = c
		}
	}
	return cols
}

// fromRecords converts raw string records (header first) into rows.
func fromRecords(records [][]string, opts Options) ([]model.RawCategoryRow, error) {
	if len(records) == 0 {
		return nil, eris.New("ingest: empty file")
	}

	cols := mapHeader(records[0])
	hasName := false
	for _, c := range cols {
		if c == colName {
			hasName = true
		}
	}
	if !hasName {
		return nil, eris.Errorf("ingest: no category-name column recognized in header %v", records[0])
	}

	if opts.DefaultConfidence == 0 {
		opts.DefaultConfidence = 1.0
	}

	var rows []model.RawCategoryRow
	for _, rec := range records[1:] {
		row := model.RawCategoryRow{
			CategoryType: opts.DefaultCategoryType,
			Confidence:   opts.DefaultConfidence,
		}
		empty := true
		for i, cell := range rec {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			switch cols[i] {
			case colCategoryType:
				row.CategoryType = cell
			case colName:
				row.Name = cell
				empty = false
			case colCorrect:
				row.Correct = model.Str(cell)
			case colTotal:
				row.Total = model.Str(cell)
			case colIncorrect:
				row.IncorrectCount = model.Str(cell)
			case colPercent:
				row.PercentCorrect = model.Str(cell)
			case colProxy:
				row.ProxyWeakness = model.Str(cell)
			case colConfidence:
				if f, err := strconv.ParseFloat(cell, 64); err == nil {
					row.Confidence = f
				}
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
