package taxonomy

import (
	"embed"
	"math"
	"regexp"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// weightSumTolerance is the allowed drift when validating that a table's
// blueprint weights sum to 1.0.
const weightSumTolerance = 1e-6

// Store is the process-wide, read-only taxonomy: every blueprint table
// for every supported exam. Construct once at startup via Load and inject
// where needed; it is safe for concurrent use.
type Store struct {
	exams map[ExamType][]*Table
}

type fileDoc struct {
	Exam   string     `yaml:"exam"`
	Tables []tableDoc `yaml:"tables"`
}

type tableDoc struct {
	CategoryType string        `yaml:"category_type"`
	Unnormalized bool          `yaml:"unnormalized"`
	Categories   []categoryDoc `yaml:"categories"`
}

type categoryDoc struct {
	Name          string              `yaml:"name"`
	Weight        float64             `yaml:"weight"`
	Aliases       []string            `yaml:"aliases"`
	SourceAliases map[string][]string `yaml:"source_aliases"`
	Patterns      []string            `yaml:"patterns"`
}

// Load parses and validates the embedded blueprint tables. Any invariant
// violation (weights not summing to 1.0, duplicate canonical names, bad
// regex) is a build-time defect and fails loudly here, before any request
// is served.
func Load() (*Store, error) {
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return nil, eris.Wrap(err, "taxonomy: read embedded data")
	}

	s := &Store{exams: make(map[ExamType][]*Table)}
	for _, e := range entries {
		raw, err := dataFS.ReadFile("data/" + e.Name())
		if err != nil {
			return nil, eris.Wrapf(err, "taxonomy: read %s", e.Name())
		}

		var doc fileDoc
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, eris.Wrapf(err, "taxonomy: parse %s", e.Name())
		}

		exam, ok := ParseExamType(doc.Exam)
		if !ok {
			return nil, eris.Errorf("taxonomy: %s: unknown exam type %q", e.Name(), doc.Exam)
		}
		if _, exists := s.exams[exam]; exists {
			return nil, eris.Errorf("taxonomy: duplicate tables for exam %q", exam)
		}

		tables, err := buildTables(exam, doc.Tables)
		if err != nil {
			return nil, eris.Wrapf(err, "taxonomy: %s", e.Name())
		}
		s.exams[exam] = tables
	}

	if len(s.exams) == 0 {
		return nil, eris.New("taxonomy: no blueprint tables found")
	}
	return s, nil
}

// NewStore builds a Store from in-memory tables. Intended for tests.
func NewStore(tables ...*Table) *Store {
	s := &Store{exams: make(map[ExamType][]*Table)}
	for _, t := range tables {
		s.exams[t.Exam] = append(s.exams[t.Exam], t)
	}
	return s
}

func buildTables(exam ExamType, docs []tableDoc) ([]*Table, error) {
	seen := make(map[string]bool)
	var tables []*Table
	for _, td := range docs {
		ct := ParseCategoryType(td.CategoryType)
		if !ct.Known() {
			return nil, eris.Errorf("unknown category type %q", td.CategoryType)
		}
		if seen[ct.String()] {
			return nil, eris.Errorf("duplicate table for category type %q", ct)
		}
		seen[ct.String()] = true

		t := &Table{Exam: exam, Type: ct, Unnormalized: td.Unnormalized}
		names := make(map[string]bool)
		for _, cd := range td.Categories {
			if cd.Name == "" {
				return nil, eris.Errorf("%s: category with empty name", ct)
			}
			if names[cd.Name] {
				return nil, eris.Errorf("%s: duplicate canonical name %q", ct, cd.Name)
			}
			names[cd.Name] = true
			if cd.Weight < 0 || cd.Weight > 1 {
				return nil, eris.Errorf("%s: %q: weight %v outside [0,1]", ct, cd.Name, cd.Weight)
			}

			cat := CanonicalCategory{
				Exam:          exam,
				Type:          ct,
				Name:          cd.Name,
				Weight:        cd.Weight,
				Aliases:       cd.Aliases,
				SourceAliases: cd.SourceAliases,
			}
			for _, p := range cd.Patterns {
				re, err := regexp.Compile("(?i)" + p)
				if err != nil {
					return nil, eris.Wrapf(err, "%s: %q: pattern %q", ct, cd.Name, p)
				}
				cat.Patterns = append(cat.Patterns, re)
			}
			t.Categories = append(t.Categories, cat)
		}

		if sum := t.WeightSum(); math.Abs(sum-1.0) > weightSumTolerance {
			if !t.Unnormalized {
				return nil, eris.Errorf("%s: weights sum to %v, want 1.0", ct, sum)
			}
			zap.L().Warn("taxonomy: unnormalized legacy weight table",
				zap.String("exam", string(exam)),
				zap.String("category_type", ct.String()),
				zap.Float64("weight_sum", sum),
			)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Exams lists the loaded exam types.
func (s *Store) Exams() []ExamType {
	out := make([]ExamType, 0, len(s.exams))
	for e := range s.exams {
		out = append(out, e)
	}
	return out
}

// Table returns the blueprint table for an (exam, categoryType) axis.
func (s *Store) Table(exam ExamType, ct CategoryType) (*Table, bool) {
	for _, t := range s.exams[exam] {
		if t.Type == ct {
			return t, true
		}
	}
	return nil, false
}

// CategoryTypes returns the category types defined for an exam, in
// declaration order. Category-type recovery relies on this order as its
// probe priority.
func (s *Store) CategoryTypes(exam ExamType) []CategoryType {
	tables := s.exams[exam]
	out := make([]CategoryType, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Type)
	}
	return out
}

// Weight returns the blueprint weight for a canonical name.
func (s *Store) Weight(exam ExamType, ct CategoryType, canonicalName string) (float64, bool) {
	t, ok := s.Table(exam, ct)
	if !ok {
		return 0, false
	}
	return t.Weight(canonicalName)
}
