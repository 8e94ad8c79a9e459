// Package model defines the data contracts between the extraction
// collaborator, the canonicalization pipeline, and the ranking output.
package model

// RawCategoryRow is one performance line as extracted from a score
// report or entered manually. Numeric fields are loosely typed because
// vendors disagree on shape: counts, percentages, or a qualitative
// weakness indicator may each stand in for performance.
type RawCategoryRow struct {
	CategoryType   string  `json:"categoryType"`
	Name           string  `json:"name"`
	Correct        Value   `json:"correct,omitempty"`
	Total          Value   `json:"total,omitempty"`
	IncorrectCount Value   `json:"incorrectCount,omitempty"`
	PercentCorrect Value   `json:"percentCorrect,omitempty"`
	ProxyWeakness  Value   `json:"proxyWeakness,omitempty"`
	Confidence     float64 `json:"confidence"`
}

// ParsedRow is the canonical, scored unit produced by the pipeline.
// Weight is nil when the label could not be mapped to any blueprint
// category; such rows are retained and flagged, never dropped silently.
type ParsedRow struct {
	CategoryType  string   `json:"categoryType"`
	Name          string   `json:"name"`
	Correct       *int     `json:"correct,omitempty"`
	Total         *int     `json:"total,omitempty"`
	Accuracy      *float64 `json:"accuracy,omitempty"`
	Weight        *float64 `json:"weight"`
	ROI           float64  `json:"roi"`
	ProxyWeakness *float64 `json:"proxyWeakness,omitempty"`
	PROI          float64  `json:"proi"`
	Confidence    float64  `json:"confidence"`

	// Provenance.
	OriginalName string  `json:"originalName,omitempty"`
	MatchType    string  `json:"matchType"`
	MatchScore   float64 `json:"matchScore"`
	Unmapped     bool    `json:"unmapped"`
}

// HasCounts reports whether both correct and total are present.
func (r *ParsedRow) HasCounts() bool {
	return r.Correct != nil && r.Total != nil
}
