// Package matcher resolves raw, inconsistently labeled performance
// categories onto canonical blueprint entries. Resolution is a cascade:
// exact match, vendor-specific alias, generic alias, regex, then fuzzy
// edit-distance similarity with a minimum score threshold.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/agext/levenshtein"

	"github.com/acuityprep/blueprint-cli/internal/taxonomy"
	"github.com/acuityprep/blueprint-cli/internal/textnorm"
)

// DefaultFuzzyThreshold is the minimum normalized similarity accepted on
// the fuzzy path.
const DefaultFuzzyThreshold = 0.84

// MatchType classifies how a label was resolved.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchAlias MatchType = "alias"
	MatchRegex MatchType = "regex"
	MatchFuzzy MatchType = "fuzzy"
	MatchNone  MatchType = "none"
)

// Result is the outcome of canonicalizing one label. Canonical is empty
// exactly when Type is MatchNone; Score then holds the best fuzzy
// similarity seen, for diagnostics.
type Result struct {
	Canonical string    `json:"canonical,omitempty"`
	Type      MatchType `json:"matchType"`
	Score     float64   `json:"matchScore"`
}

// Matched reports whether the label resolved to a canonical category.
func (r Result) Matched() bool { return r.Type != MatchNone }

// Matcher canonicalizes labels against a taxonomy store. It is a pure
// function of its inputs and the static taxonomy; the only internal
// state is a memoized lookup index per (exam, categoryType), built
// lazily and safe under concurrent first access since construction is
// idempotent.
type Matcher struct {
	tax       *taxonomy.Store
	threshold float64
	prepared  sync.Map // "exam|categoryType" -> *preparedTable
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithFuzzyThreshold overrides the minimum fuzzy similarity.
func WithFuzzyThreshold(t float64) Option {
	return func(m *Matcher) { m.threshold = t }
}

// New creates a Matcher over the given taxonomy.
func New(tax *taxonomy.Store, opts ...Option) *Matcher {
	m := &Matcher{tax: tax, threshold: DefaultFuzzyThreshold}
	for _, o := range opts {
		o(m)
	}
	return m
}

// preparedTable is the derived lookup index for one blueprint table:
// every canonical name, alias, and pattern reduced to sanitized,
// preprocessed form.
type preparedTable struct {
	entries      []preparedEntry
	byPrepared   map[string]string            // prepared form -> canonical name
	genericAlias map[string]string            // prepared alias -> canonical name
	sourceAlias  map[string]map[string]string // source -> prepared alias -> canonical name
	patterns     []preparedPattern
}

type preparedEntry struct {
	name       string
	simplified string
}

type preparedPattern struct {
	re   *regexp.Regexp
	name string
}

func (m *Matcher) preparedFor(exam taxonomy.ExamType, ct taxonomy.CategoryType) *preparedTable {
	key := fmt.Sprintf("%s|%s", exam, ct)
	if v, ok := m.prepared.Load(key); ok {
		return v.(*preparedTable)
	}

	table, ok := m.tax.Table(exam, ct)
	if !ok {
		return nil
	}

	pt := buildPrepared(table)
	// A concurrent builder may have won the race; both built the same
	// index from immutable data, so either copy is fine.
	actual, _ := m.prepared.LoadOrStore(key, pt)
	return actual.(*preparedTable)
}

func buildPrepared(table *taxonomy.Table) *preparedTable {
	pt := &preparedTable{
		byPrepared:   make(map[string]string),
		genericAlias: make(map[string]string),
		sourceAlias:  make(map[string]map[string]string),
	}
	for _, cat := range table.Categories {
		prep := preprocess(textnorm.Sanitize(cat.Name))
		if _, dup := pt.byPrepared[prep]; !dup {
			pt.byPrepared[prep] = cat.Name
		}
		pt.entries = append(pt.entries, preparedEntry{
			name:       cat.Name,
			simplified: simplify(prep),
		})

		for _, a := range cat.Aliases {
			key := preprocess(textnorm.Sanitize(a))
			if key == "" {
				continue
			}
			if _, dup := pt.genericAlias[key]; !dup {
				pt.genericAlias[key] = cat.Name
			}
		}
		for source, aliases := range cat.SourceAliases {
			src := strings.ToLower(strings.TrimSpace(source))
			if pt.sourceAlias[src] == nil {
				pt.sourceAlias[src] = make(map[string]string)
			}
			for _, a := range aliases {
				key := preprocess(textnorm.Sanitize(a))
				if key == "" {
					continue
				}
				if _, dup := pt.sourceAlias[src][key]; !dup {
					pt.sourceAlias[src][key] = cat.Name
				}
			}
		}
		for _, re := range cat.Patterns {
			pt.patterns = append(pt.patterns, preparedPattern{re: re, name: cat.Name})
		}
	}
	return pt
}

// Canonicalize resolves a raw label within one (exam, categoryType)
// axis. Source identifies the question-bank vendor and unlocks
// vendor-specific aliases; it may be empty.
func (m *Matcher) Canonicalize(exam taxonomy.ExamType, ct taxonomy.CategoryType, rawName, source string) Result {
	pt := m.preparedFor(exam, ct)
	if pt == nil {
		return Result{Type: MatchNone}
	}

	in := preprocess(textnorm.Sanitize(rawName))
	if in == "" {
		return Result{Type: MatchNone}
	}

	// 1. Exact.
	if name, ok := pt.byPrepared[in]; ok {
		return Result{Canonical: name, Type: MatchExact, Score: 1.0}
	}

	// 2. Vendor-specific alias.
	if source != "" {
		if amap, ok := pt.sourceAlias[strings.ToLower(strings.TrimSpace(source))]; ok {
			if name, ok := amap[in]; ok {
				return Result{Canonical: name, Type: MatchAlias, Score: 1.0}
			}
		}
	}

	// 3. Generic alias.
	if name, ok := pt.genericAlias[in]; ok {
		return Result{Canonical: name, Type: MatchAlias, Score: 0.98}
	}

	// 4. Regex.
	for _, pp := range pt.patterns {
		if pp.re.MatchString(in) {
			return Result{Canonical: pp.name, Type: MatchRegex, Score: 0.95}
		}
	}

	// 5. Fuzzy. Confusables are folded on the raw input before
	// sanitizing so OCR artifacts like "|" survive long enough to fold.
	fuzzyIn := simplify(preprocess(textnorm.Sanitize(confusableFold.Replace(strings.ToLower(rawName)))))
	best := Result{Type: MatchNone}
	if fuzzyIn == "" {
		return best
	}
	for _, e := range pt.entries {
		if e.simplified == "" {
			continue
		}
		score := similarity(fuzzyIn, e.simplified)
		if score > best.Score {
			best.Score = score
			best.Canonical = e.name
		}
	}
	if best.Score >= m.threshold {
		best.Type = MatchFuzzy
		return best
	}
	return Result{Type: MatchNone, Score: best.Score}
}

// similarity is normalized Levenshtein similarity:
// (maxLen - distance) / maxLen.
func similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 0
	}
	d := levenshtein.Distance(a, b, nil)
	if d > maxLen {
		d = maxLen
	}
	return float64(maxLen-d) / float64(maxLen)
}
