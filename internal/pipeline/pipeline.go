// Package pipeline runs the full canonicalization flow over a batch of
// extracted performance rows: category-type recovery, numeric
// normalization, combined-category splitting, name canonicalization,
// and scoring. Every input row ends up either as scored output or as a
// warning; nothing is dropped silently.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/acuityprep/blueprint-cli/internal/matcher"
	"github.com/acuityprep/blueprint-cli/internal/model"
	"github.com/acuityprep/blueprint-cli/internal/score"
	"github.com/acuityprep/blueprint-cli/internal/taxonomy"
)

// Pipeline ties the matcher and taxonomy into a batch row processor.
// Stateless across invocations; safe for concurrent use.
type Pipeline struct {
	tax           *taxonomy.Store
	m             *matcher.Matcher
	buckets       ProxyBuckets
	maxConcurrent int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProxyBuckets overrides the qualitative weakness constants.
func WithProxyBuckets(b ProxyBuckets) Option {
	return func(p *Pipeline) { p.buckets = b }
}

// WithMaxConcurrent bounds per-batch row parallelism.
func WithMaxConcurrent(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxConcurrent = n
		}
	}
}

// New creates a Pipeline.
func New(tax *taxonomy.Store, m *matcher.Matcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		tax:           tax,
		m:             m,
		buckets:       DefaultProxyBuckets,
		maxConcurrent: 8,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Input is one batch from the extraction collaborator or manual entry.
type Input struct {
	Exam   taxonomy.ExamType      `json:"exam"`
	Source string                 `json:"source,omitempty"`
	Rows   []model.RawCategoryRow `json:"rows"`
}

// Output is the scored batch plus everything a review step needs:
// non-fatal warnings, the missing-required flag, and aggregate stats.
type Output struct {
	Rows               []model.ParsedRow `json:"rows"`
	Warnings           []string          `json:"warnings"`
	HasMissingRequired bool              `json:"hasMissingRequired"`
	Confidence         float64           `json:"confidence"`
	AvgPercentCorrect  *float64          `json:"avgPercentCorrect,omitempty"`
}

type rowResult struct {
	rows     []model.ParsedRow
	warnings []string
	missing  bool
}

// Process canonicalizes and scores a batch. Rows are independent, so
// they run under a bounded errgroup; output order matches input order.
// The only error is context cancellation — bad rows become warnings.
func (p *Pipeline) Process(ctx context.Context, in Input) (*Output, error) {
	results := make([]rowResult, len(in.Rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for i, raw := range in.Rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.processOne(in.Exam, in.Source, i, raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: process batch")
	}

	out := &Output{}
	for _, r := range results {
		out.Rows = append(out.Rows, r.rows...)
		out.Warnings = append(out.Warnings, r.warnings...)
		out.HasMissingRequired = out.HasMissingRequired || r.missing
	}
	out.Confidence = score.OverallConfidence(out.Rows)
	out.AvgPercentCorrect = avgPercentCorrect(out.Rows)

	zap.L().Debug("pipeline: batch processed",
		zap.String("exam", string(in.Exam)),
		zap.Int("rows_in", len(in.Rows)),
		zap.Int("rows_out", len(out.Rows)),
		zap.Int("warnings", len(out.Warnings)),
	)
	return out, nil
}

func (p *Pipeline) processOne(exam taxonomy.ExamType, source string, idx int, raw model.RawCategoryRow) rowResult {
	ct := taxonomy.ParseCategoryType(raw.CategoryType)
	ct = p.m.RecoverCategoryType(exam, ct, raw.Name, source)

	n, warnings, ok := normalizeRow(idx, raw, p.buckets)
	if !ok {
		return rowResult{warnings: warnings, missing: true}
	}

	res := rowResult{warnings: warnings}
	for _, sub := range p.expand(exam, ct, source, n) {
		row, warn := p.finalize(exam, ct, source, sub)
		if warn != "" {
			res.warnings = append(res.warnings, warn)
		}
		res.rows = append(res.rows, row)
	}
	return res
}

// finalize canonicalizes one normalized row and computes its scores.
func (p *Pipeline) finalize(exam taxonomy.ExamType, ct taxonomy.CategoryType, source string, n normRow) (model.ParsedRow, string) {
	row := model.ParsedRow{
		CategoryType:  ct.String(),
		Name:          n.name,
		OriginalName:  n.originalName,
		Correct:       n.correct,
		Total:         n.total,
		ProxyWeakness: n.proxy,
		Confidence:    n.confidence,
	}

	match := p.m.Canonicalize(exam, ct, n.name, source)
	row.MatchType = string(match.Type)
	row.MatchScore = match.Score

	var warning string
	if match.Matched() {
		row.Name = match.Canonical
		if w, ok := p.tax.Weight(exam, ct, match.Canonical); ok {
			row.Weight = &w
		}
	} else {
		row.Unmapped = true
		warning = fmt.Sprintf("unmapped category %q (%s); needs manual review", n.originalName, ct)
	}

	row.Accuracy = score.Accuracy(row.Correct, row.Total)
	row.ROI = score.ROI(row.Accuracy, row.Weight)
	row.PROI = score.PROI(row.ProxyWeakness, row.Weight)
	return row, warning
}

// Rehydrate re-derives the computed fields of a stored session. Sessions
// written under an older schema (or trimmed by clients) may lack weight,
// roi, or proi; stale values are never trusted.
func (p *Pipeline) Rehydrate(env *model.Envelope) {
	exam, examKnown := taxonomy.ParseExamType(env.Exam)
	for i := range env.Rows {
		r := &env.Rows[i]
		r.Accuracy = score.Accuracy(r.Correct, r.Total)

		r.Weight = nil
		if examKnown && !r.Unmapped {
			ct := taxonomy.ParseCategoryType(r.CategoryType)
			if w, ok := p.tax.Weight(exam, ct, r.Name); ok {
				r.Weight = &w
			} else {
				r.Unmapped = true
			}
		}

		r.ROI = score.ROI(r.Accuracy, r.Weight)
		if r.ProxyWeakness != nil {
			// A carried-over PROI survives only when the proxy itself
			// is gone; with the proxy present we recompute.
			r.PROI = score.PROI(r.ProxyWeakness, r.Weight)
		}
	}
	env.Version = model.EnvelopeVersion
}

// avgPercentCorrect is the question-weighted mean accuracy across rows
// that have one, as a percentage. Nil when no row has accuracy.
func avgPercentCorrect(rows []model.ParsedRow) *float64 {
	var num, den float64
	for i := range rows {
		if rows[i].Accuracy == nil || rows[i].Total == nil {
			continue
		}
		w := float64(*rows[i].Total)
		num += *rows[i].Accuracy * w
		den += w
	}
	if den == 0 {
		return nil
	}
	avg := num / den * 100
	return &avg
}
