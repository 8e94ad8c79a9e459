package pipeline

import (
	"regexp"

	"github.com/acuityprep/blueprint-cli/internal/taxonomy"
	"github.com/acuityprep/blueprint-cli/internal/textnorm"
)

// Combined labels join categories with "/", "&", or the word "and"
// ("Genitourinary/Renal System and Breasts"). Detection runs on the
// sanitized form, where "&" has already become "and".
var (
	separatorDetectRe = regexp.MustCompile(`/|\band\b`)
	separatorSplitRe  = regexp.MustCompile(`\s*(?:/|\band\b)\s*`)
)

// expand splits a combined-category row into one row per canonical
// target, apportioning its counts. A row splits only when its label
// resolves to at least two distinct canonical categories and it carries
// usable counts; otherwise it passes through unchanged.
func (p *Pipeline) expand(exam taxonomy.ExamType, ct taxonomy.CategoryType, source string, n normRow) []normRow {
	if n.total == nil || n.correct == nil || *n.total <= 0 {
		return []normRow{n}
	}

	sanitized := textnorm.Sanitize(n.name)
	if !separatorDetectRe.MatchString(sanitized) {
		return []normRow{n}
	}

	var targets []string
	seen := make(map[string]bool)
	for _, part := range separatorSplitRe.Split(sanitized, -1) {
		if part == "" {
			continue
		}
		res := p.m.Canonicalize(exam, ct, part, source)
		if !res.Matched() || seen[res.Canonical] {
			continue
		}
		seen[res.Canonical] = true
		targets = append(targets, res.Canonical)
	}
	if len(targets) < 2 {
		return []normRow{n}
	}

	// Allocate by blueprint weight when every target has one; equal
	// shares otherwise.
	shares := make([]float64, len(targets))
	weighted := true
	for i, name := range targets {
		w, ok := p.tax.Weight(exam, ct, name)
		if !ok || w <= 0 {
			weighted = false
			break
		}
		shares[i] = w
	}
	if !weighted {
		for i := range shares {
			shares[i] = 1
		}
	}

	totals := largestRemainder(*n.total, shares)
	corrects := largestRemainder(*n.correct, shares)
	rebalanceCorrects(corrects, totals)

	out := make([]normRow, len(targets))
	for i, name := range targets {
		sub := n
		sub.name = name
		c, t := corrects[i], totals[i]
		sub.correct, sub.total = &c, &t
		out[i] = sub
	}
	return out
}

// rebalanceCorrects caps each target's correct count at its allocated
// total and pushes the overflow onto targets with spare capacity.
// Overflow that finds no capacity is dropped; per-target consistency
// (correct <= total) wins over global conservation in that edge case.
func rebalanceCorrects(corrects, totals []int) {
	overflow := 0
	for i := range corrects {
		if corrects[i] > totals[i] {
			overflow += corrects[i] - totals[i]
			corrects[i] = totals[i]
		}
	}
	for i := range corrects {
		if overflow == 0 {
			return
		}
		if spare := totals[i] - corrects[i]; spare > 0 {
			add := spare
			if add > overflow {
				add = overflow
			}
			corrects[i] += add
			overflow -= add
		}
	}
}
