package matcher

import (
	"strings"

	"go.uber.org/zap"

	"github.com/acuityprep/blueprint-cli/internal/taxonomy"
	"github.com/acuityprep/blueprint-cli/internal/textnorm"
)

// unknownBucketToken marks legacy COMLEX exports that lumped rows into
// synthetic buckets like "competency_domain_unknown1" instead of naming
// a real category type.
const unknownBucketToken = "unknown"

// RecoverCategoryType disambiguates a legacy unknown-bucket category
// type by probing the label against each category type the exam defines,
// in blueprint priority order, and returning the first type that yields
// a match. Best-effort: if nothing matches, the original unrecognized
// type is returned and the row will surface as unmapped downstream.
//
// Only COMLEX exports ever produced unknown buckets, so the heuristic
// activates for that exam alone.
func (m *Matcher) RecoverCategoryType(exam taxonomy.ExamType, rawType taxonomy.CategoryType, rawLabel, source string) taxonomy.CategoryType {
	if rawType.Known() {
		return rawType
	}
	if exam != taxonomy.ExamCOMLEX2 {
		return rawType
	}
	if !strings.Contains(textnorm.Sanitize(rawType.String()), unknownBucketToken) {
		return rawType
	}

	for _, ct := range m.tax.CategoryTypes(exam) {
		if res := m.Canonicalize(exam, ct, rawLabel, source); res.Matched() {
			zap.L().Debug("matcher: recovered category type from unknown bucket",
				zap.String("raw_type", rawType.String()),
				zap.String("label", rawLabel),
				zap.String("recovered", ct.String()),
				zap.String("match_type", string(res.Type)),
			)
			return ct
		}
	}
	return rawType
}
