package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/acuityprep/blueprint-cli/internal/model"
)

// ProxyBuckets are the fixed point estimates assigned to qualitative
// weakness phrasing ("below average", "higher performance"). They stand
// in for score-report bar positions, not measured values; the defaults
// are heuristic constants and deliberately configurable.
type ProxyBuckets struct {
	Below   float64 `yaml:"below" mapstructure:"below"`
	Average float64 `yaml:"average" mapstructure:"average"`
	Above   float64 `yaml:"above" mapstructure:"above"`
}

// DefaultProxyBuckets matches the historical constants.
var DefaultProxyBuckets = ProxyBuckets{Below: 0.85, Average: 0.5, Above: 0.15}

var (
	belowTokens   = map[string]bool{"below": true, "low": true, "left": true, "lower": true}
	aboveTokens   = map[string]bool{"above": true, "high": true, "right": true, "higher": true}
	averageTokens = map[string]bool{"average": true, "middle": true, "mid": true, "center": true}
)

// normRow is a RawCategoryRow after numeric coercion: counts resolved,
// percentages folded into counts, proxy weakness on [0,1].
type normRow struct {
	name         string
	originalName string
	correct      *int
	total        *int
	proxy        *float64
	confidence   float64
}

// coerceNumber interprets a loosely typed field as a plain number.
// Strings may carry a "%" suffix or thousands separators. Non-finite or
// unparseable values report false.
func coerceNumber(v model.Value) (float64, bool) {
	switch v.Kind {
	case model.Number:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return 0, false
		}
		return v.Num, true
	case model.Text:
		s := strings.TrimSpace(v.Str)
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// coercePercent interprets a field as a fraction on [0,1]. Values above
// 1 are treated as percentages and divided by 100.
func coercePercent(v model.Value) (float64, bool) {
	f, ok := coerceNumber(v)
	if !ok || f < 0 {
		return 0, false
	}
	if f > 1 {
		f /= 100
	}
	if f > 1 {
		f = 1
	}
	return f, true
}

// coerceProxy interprets a weakness indicator: numeric on [0,1] (or a
// percentage), else a qualitative phrase mapped through the buckets.
func coerceProxy(v model.Value, buckets ProxyBuckets) (float64, bool) {
	if f, ok := coerceNumber(v); ok {
		if f < 0 {
			return 0, false
		}
		if f > 1 {
			f /= 100
		}
		if f > 1 {
			f = 1
		}
		return f, true
	}
	if v.Kind != model.Text {
		return 0, false
	}

	for _, tok := range strings.Fields(strings.ToLower(v.Str)) {
		tok = strings.Trim(tok, ".,;:()")
		switch {
		case belowTokens[tok]:
			return buckets.Below, true
		case aboveTokens[tok]:
			return buckets.Above, true
		case averageTokens[tok]:
			return buckets.Average, true
		}
	}
	return 0, false
}

// normalizeRow coerces one raw row into canonical numeric form. A row
// that cannot yield a usable signal is rejected with a descriptive
// warning; the batch continues without it.
func normalizeRow(idx int, raw model.RawCategoryRow, buckets ProxyBuckets) (normRow, []string, bool) {
	n := normRow{
		name:         raw.Name,
		originalName: raw.Name,
		confidence:   raw.Confidence,
	}

	if strings.TrimSpace(raw.Name) == "" {
		return n, []string{fmt.Sprintf("row %d: empty category name", idx+1)}, false
	}

	var correct, total *int
	if f, ok := coerceNumber(raw.Correct); ok && f >= 0 {
		c := int(math.Round(f))
		correct = &c
	}
	if f, ok := coerceNumber(raw.Total); ok {
		t := int(math.Round(f))
		total = &t
	}

	var incorrect *int
	if f, ok := coerceNumber(raw.IncorrectCount); ok && f >= 0 {
		i := int(math.Round(f))
		incorrect = &i
	}

	pct, hasPct := coercePercent(raw.PercentCorrect)

	if p, ok := coerceProxy(raw.ProxyWeakness, buckets); ok {
		n.proxy = &p
	}

	// Derive missing counts. Order matters: percent needs a total, and
	// a total can itself come from correct+incorrect or correct/percent.
	if total == nil && correct != nil && incorrect != nil {
		t := *correct + *incorrect
		total = &t
	}
	if total == nil && correct != nil && hasPct && pct > 0 {
		t := int(math.Round(float64(*correct) / pct))
		total = &t
	}
	if correct == nil && hasPct && total != nil {
		c := int(math.Round(pct * float64(*total)))
		correct = &c
	}

	if total != nil && *total <= 0 {
		return n, []string{fmt.Sprintf("row %d (%s): invalid total %d", idx+1, raw.Name, *total)}, false
	}
	if total != nil && correct != nil && *correct > *total {
		return n, []string{fmt.Sprintf("row %d (%s): correct %d exceeds total %d", idx+1, raw.Name, *correct, *total)}, false
	}

	hasCounts := total != nil && correct != nil
	if !hasCounts && n.proxy == nil {
		return n, []string{fmt.Sprintf("row %d (%s): no usable numeric signal", idx+1, raw.Name)}, false
	}

	if hasCounts {
		n.correct = correct
		n.total = total
	}
	return n, nil, true
}
