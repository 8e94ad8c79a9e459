package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/acuityprep/blueprint-cli/internal/taxonomy"
)

var (
	canonExam    string
	canonCatType string
	canonSource  string
)

var canonicalizeCmd = &cobra.Command{
	Use:   "canonicalize <label>",
	Short: "Resolve a single category label against the blueprint",
	Long:  "Runs one label through the full match cascade (exact, alias, pattern, fuzzy) and prints the diagnostic result.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exam, ok := taxonomy.ParseExamType(canonExam)
		if !ok {
			return eris.Errorf("unknown exam %q (want comlex2 or step2)", canonExam)
		}

		eng, err := initEngine()
		if err != nil {
			return err
		}

		ct := taxonomy.ParseCategoryType(canonCatType)
		ct = eng.Matcher.RecoverCategoryType(exam, ct, args[0], canonSource)

		res := eng.Matcher.Canonicalize(exam, ct, args[0], canonSource)

		out := struct {
			Input        string  `json:"input"`
			CategoryType string  `json:"categoryType"`
			Matched      bool    `json:"matched"`
			Canonical    string  `json:"canonical,omitempty"`
			MatchType    string  `json:"matchType"`
			MatchScore   float64 `json:"matchScore"`
			Weight       float64 `json:"weight,omitempty"`
		}{
			Input:        args[0],
			CategoryType: ct.String(),
			Matched:      res.Matched(),
			Canonical:    res.Canonical,
			MatchType:    string(res.Type),
			MatchScore:   res.Score,
		}
		if res.Matched() {
			if w, ok := eng.Tax.Weight(exam, ct, res.Canonical); ok {
				out.Weight = w
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	canonicalizeCmd.Flags().StringVar(&canonExam, "exam", "", "exam blueprint: comlex2 or step2 (required)")
	canonicalizeCmd.Flags().StringVar(&canonCatType, "category-type", "", "category type of the label (required)")
	canonicalizeCmd.Flags().StringVar(&canonSource, "source", "", "report vendor for source-specific aliases")
	_ = canonicalizeCmd.MarkFlagRequired("exam")
	_ = canonicalizeCmd.MarkFlagRequired("category-type")
	rootCmd.AddCommand(canonicalizeCmd)
}
