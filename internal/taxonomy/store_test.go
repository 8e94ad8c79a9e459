package taxonomy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedTables(t *testing.T) {
	t.Parallel()

	s, err := Load()
	require.NoError(t, err)

	assert.ElementsMatch(t, []ExamType{ExamCOMLEX2, ExamStep2}, s.Exams())
}

func TestLoad_COMLEX2Tables(t *testing.T) {
	t.Parallel()

	s, err := Load()
	require.NoError(t, err)

	cd, ok := s.Table(ExamCOMLEX2, CompetencyDomain)
	require.True(t, ok)
	assert.Len(t, cd.Categories, 7)
	assert.InDelta(t, 1.0, cd.WeightSum(), 1e-9)
	assert.False(t, cd.Unnormalized)

	cp, ok := s.Table(ExamCOMLEX2, ClinicalPresentation)
	require.True(t, ok)
	assert.Len(t, cp.Categories, 12)
	assert.InDelta(t, 1.0, cp.WeightSum(), 1e-9)

	// The legacy discipline weights never summed to 1.0; the table is
	// flagged rather than rejected.
	d, ok := s.Table(ExamCOMLEX2, Discipline)
	require.True(t, ok)
	assert.Len(t, d.Categories, 7)
	assert.True(t, d.Unnormalized)
	assert.Greater(t, math.Abs(d.WeightSum()-1.0), 1e-6)
}

func TestLoad_Step2Tables(t *testing.T) {
	t.Parallel()

	s, err := Load()
	require.NoError(t, err)

	sys, ok := s.Table(ExamStep2, System)
	require.True(t, ok)
	assert.Len(t, sys.Categories, 14)
	assert.InDelta(t, 1.0, sys.WeightSum(), 1e-9)

	d, ok := s.Table(ExamStep2, Discipline)
	require.True(t, ok)
	assert.Len(t, d.Categories, 5)
	assert.InDelta(t, 1.0, d.WeightSum(), 1e-9)
}

func TestLoad_COMLEX2RecoveryOrder(t *testing.T) {
	t.Parallel()

	s, err := Load()
	require.NoError(t, err)

	// Declaration order is the unknown-bucket probe priority.
	assert.Equal(t,
		[]CategoryType{CompetencyDomain, ClinicalPresentation, Discipline},
		s.CategoryTypes(ExamCOMLEX2),
	)
}

func TestStore_Weight(t *testing.T) {
	t.Parallel()

	s, err := Load()
	require.NoError(t, err)

	w, ok := s.Weight(ExamCOMLEX2, ClinicalPresentation, "Patient Presentations Related to the Breasts")
	require.True(t, ok)
	assert.InDelta(t, 0.02, w, 1e-9)

	_, ok = s.Weight(ExamCOMLEX2, ClinicalPresentation, "No Such Category")
	assert.False(t, ok)

	_, ok = s.Weight(ExamStep2, CompetencyDomain, "Immune System")
	assert.False(t, ok, "step2 has no competency domain table")
}

func TestBuildTables_Validation(t *testing.T) {
	t.Parallel()

	t.Run("duplicate canonical name", func(t *testing.T) {
		t.Parallel()
		_, err := buildTables(ExamStep2, []tableDoc{{
			CategoryType: "system",
			Categories: []categoryDoc{
				{Name: "Immune System", Weight: 0.5},
				{Name: "Immune System", Weight: 0.5},
			},
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate canonical name")
	})

	t.Run("weights must sum to one", func(t *testing.T) {
		t.Parallel()
		_, err := buildTables(ExamStep2, []tableDoc{{
			CategoryType: "system",
			Categories: []categoryDoc{
				{Name: "Immune System", Weight: 0.5},
				{Name: "Endocrine System", Weight: 0.3},
			},
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weights sum")
	})

	t.Run("unnormalized table accepted", func(t *testing.T) {
		t.Parallel()
		tables, err := buildTables(ExamStep2, []tableDoc{{
			CategoryType: "system",
			Unnormalized: true,
			Categories: []categoryDoc{
				{Name: "Immune System", Weight: 0.5},
				{Name: "Endocrine System", Weight: 0.3},
			},
		}})
		require.NoError(t, err)
		require.Len(t, tables, 1)
		assert.True(t, tables[0].Unnormalized)
	})

	t.Run("bad pattern", func(t *testing.T) {
		t.Parallel()
		_, err := buildTables(ExamStep2, []tableDoc{{
			CategoryType: "system",
			Categories: []categoryDoc{
				{Name: "Immune System", Weight: 1.0, Patterns: []string{"("}},
			},
		}})
		require.Error(t, err)
	})

	t.Run("unknown category type", func(t *testing.T) {
		t.Parallel()
		_, err := buildTables(ExamStep2, []tableDoc{{
			CategoryType: "constellation",
			Categories:   []categoryDoc{{Name: "Immune System", Weight: 1.0}},
		}})
		require.Error(t, err)
	})
}

func TestParseExamType(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"comlex2", "COMLEX-2", " comlex level 2 "} {
		e, ok := ParseExamType(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, ExamCOMLEX2, e)
	}
	for _, raw := range []string{"step2", "STEP-2", "usmle step 2"} {
		e, ok := ParseExamType(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, ExamStep2, e)
	}

	_, ok := ParseExamType("step3")
	assert.False(t, ok)
}

func TestParseCategoryType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CompetencyDomain, ParseCategoryType("Competency Domain"))
	assert.Equal(t, ClinicalPresentation, ParseCategoryType("clinical-presentation"))
	assert.Equal(t, System, ParseCategoryType("  system "))

	got := ParseCategoryType("competency_domain_unknown1")
	assert.False(t, got.Known())
	assert.Equal(t, "competency_domain_unknown1", got.String())
}
