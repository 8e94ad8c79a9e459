// Package score computes study-priority scores and rankings over
// canonicalized performance rows.
//
// ROI = (1 - accuracy) * blueprint weight: a high-weight topic answered
// poorly is the best return on study time. PROI is the same idea using a
// qualitative weakness estimate when measured accuracy is unavailable.
package score

import (
	"math"
	"sort"

	"github.com/acuityprep/blueprint-cli/internal/model"
)

// Mode selects the ranking order.
type Mode string

const (
	// ModeROI ranks by descending ROI (the default).
	ModeROI Mode = "roi"
	// ModeWeakness ranks by descending weakness first, ROI second.
	ModeWeakness Mode = "weakness"
)

// ParseMode normalizes a raw mode string, defaulting to ModeROI.
func ParseMode(raw string) Mode {
	if Mode(raw) == ModeWeakness {
		return ModeWeakness
	}
	return ModeROI
}

// Accuracy returns correct/total when both are present and total > 0.
func Accuracy(correct, total *int) *float64 {
	if correct == nil || total == nil || *total <= 0 {
		return nil
	}
	a := float64(*correct) / float64(*total)
	return &a
}

// ROI returns (1 - accuracy) * weight, or 0 when either is undefined.
func ROI(accuracy, weight *float64) float64 {
	if accuracy == nil || weight == nil {
		return 0
	}
	return (1 - *accuracy) * *weight
}

// PROI returns proxyWeakness * weight, or 0 when either is undefined.
func PROI(proxy, weight *float64) float64 {
	if proxy == nil || weight == nil {
		return 0
	}
	return *proxy * *weight
}

// weakness is the primary sort key in weakness mode: 1 - accuracy when
// accuracy is known, otherwise the clamped proxy estimate, otherwise 0.
func weakness(r *model.ParsedRow) float64 {
	if r.Accuracy != nil {
		return 1 - *r.Accuracy
	}
	if r.ProxyWeakness != nil {
		return clamp01(*r.ProxyWeakness)
	}
	return 0
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

// SortRows orders rows in place by the given mode. The order is stable
// and total: ties fall through ROI, then PROI, then ascending name.
func SortRows(rows []model.ParsedRow, mode Mode) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if mode == ModeWeakness {
			if wa, wb := weakness(a), weakness(b); wa != wb {
				return wa > wb
			}
		}
		if a.ROI != b.ROI {
			return a.ROI > b.ROI
		}
		if a.PROI != b.PROI {
			return a.PROI > b.PROI
		}
		return a.Name < b.Name
	})
}

// OverallConfidence is the batch-level extraction confidence: the
// per-row confidence averaged with each row weighted by its question
// total (rows without counts weigh 1), clamped to [0,1]. An empty batch
// scores 0.
func OverallConfidence(rows []model.ParsedRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var num, den float64
	for i := range rows {
		w := 1.0
		if rows[i].Total != nil && *rows[i].Total > 0 {
			w = float64(*rows[i].Total)
		}
		num += clamp01(rows[i].Confidence) * w
		den += w
	}
	if den == 0 {
		return 0
	}
	return clamp01(num / den)
}
