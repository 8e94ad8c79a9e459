// Package taxonomy holds the canonical exam-blueprint category tables:
// per-exam category names, blueprint weights, and the alias/regex lists
// used to map vendor score-report labels onto them.
package taxonomy

import (
	"regexp"
	"strings"
)

// ExamType identifies a supported exam blueprint.
type ExamType string

const (
	ExamCOMLEX2 ExamType = "comlex2"
	ExamStep2   ExamType = "step2"
)

// ParseExamType normalizes a raw exam identifier.
func ParseExamType(raw string) (ExamType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "comlex2", "comlex-2", "comlex_level2", "comlex level 2":
		return ExamCOMLEX2, true
	case "step2", "step-2", "usmle_step2", "usmle step 2":
		return ExamStep2, true
	}
	return "", false
}

// CategoryType is a closed set of known blueprint axes plus an
// unrecognized escape hatch that preserves the raw input string.
// Vendor exports are stringly typed, so anything we don't recognize
// is carried through rather than discarded.
type CategoryType struct {
	name  string
	known bool
}

var (
	CompetencyDomain     = CategoryType{"competency_domain", true}
	ClinicalPresentation = CategoryType{"clinical_presentation", true}
	Discipline           = CategoryType{"discipline", true}
	System               = CategoryType{"system", true}
)

var knownCategoryTypes = map[string]CategoryType{
	CompetencyDomain.name:     CompetencyDomain,
	ClinicalPresentation.name: ClinicalPresentation,
	Discipline.name:           Discipline,
	System.name:               System,
}

// ParseCategoryType maps a raw category-type string onto a known type,
// or returns an unrecognized variant preserving the original string.
func ParseCategoryType(raw string) CategoryType {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if ct, ok := knownCategoryTypes[key]; ok {
		return ct
	}
	return CategoryType{name: raw, known: false}
}

// Known reports whether the category type is one of the closed set.
func (c CategoryType) Known() bool { return c.known }

// String returns the canonical identifier for known types and the raw
// input for unrecognized ones.
func (c CategoryType) String() string { return c.name }

// CanonicalCategory is one blueprint entry: the fixed category name, its
// published content weight, and the synonyms used to resolve raw labels.
type CanonicalCategory struct {
	Exam    ExamType
	Type    CategoryType
	Name    string
	Weight  float64
	Aliases []string
	// SourceAliases holds vendor-specific synonyms keyed by source id
	// (e.g. "truelearn", "uworld"). These outrank generic aliases.
	SourceAliases map[string][]string
	// Patterns are regular expressions matched against sanitized labels.
	Patterns []*regexp.Regexp
}

// Table groups the canonical categories for one (exam, categoryType) axis.
type Table struct {
	Exam ExamType
	Type CategoryType
	// Unnormalized marks legacy tables whose weights do not sum to 1.0
	// (the old COMLEX discipline weights). Flagged at load, not rejected.
	Unnormalized bool
	Categories   []CanonicalCategory
}

// WeightSum returns the sum of all blueprint weights in the table.
func (t *Table) WeightSum() float64 {
	var sum float64
	for _, c := range t.Categories {
		sum += c.Weight
	}
	return sum
}

// Weight returns the blueprint weight for a canonical name, if present.
func (t *Table) Weight(canonicalName string) (float64, bool) {
	for _, c := range t.Categories {
		if c.Name == canonicalName {
			return c.Weight, true
		}
	}
	return 0, false
}
