// Package audit provides the offline taxonomy regression harness: it
// replays a list of raw-label probes through the matcher and reports
// per-probe diagnostics plus an aggregate coverage ratio. Used to catch
// alias/weight table regressions, not for runtime serving.
package audit

import (
	"github.com/acuityprep/blueprint-cli/internal/matcher"
	"github.com/acuityprep/blueprint-cli/internal/taxonomy"
)

// Probe is one raw label to resolve.
type Probe struct {
	Exam         string `json:"exam"`
	CategoryType string `json:"categoryType"`
	RawName      string `json:"rawName"`
	Source       string `json:"source,omitempty"`
}

// ProbeResult is the match diagnostic for one probe.
type ProbeResult struct {
	Probe
	Matched   bool    `json:"matched"`
	Canonical string  `json:"canonical,omitempty"`
	MatchType string  `json:"matchType"`
	Score     float64 `json:"matchScore"`
}

// Report aggregates a probe run.
type Report struct {
	Results  []ProbeResult `json:"results"`
	Total    int           `json:"total"`
	Matched  int           `json:"matched"`
	Coverage float64       `json:"coverage"`
}

// Run resolves every probe and computes coverage. Probes with an
// unknown exam type count as unmatched rather than failing the run.
func Run(m *matcher.Matcher, probes []Probe) *Report {
	r := &Report{Total: len(probes)}
	for _, p := range probes {
		pr := ProbeResult{Probe: p, MatchType: string(matcher.MatchNone)}

		if exam, ok := taxonomy.ParseExamType(p.Exam); ok {
			ct := taxonomy.ParseCategoryType(p.CategoryType)
			ct = m.RecoverCategoryType(exam, ct, p.RawName, p.Source)
			res := m.Canonicalize(exam, ct, p.RawName, p.Source)
			pr.Matched = res.Matched()
			pr.Canonical = res.Canonical
			pr.MatchType = string(res.Type)
			pr.Score = res.Score
			pr.CategoryType = ct.String()
		}

		if pr.Matched {
			r.Matched++
		}
		r.Results = append(r.Results, pr)
	}
	if r.Total > 0 {
		r.Coverage = float64(r.Matched) / float64(r.Total)
	}
	return r
}
