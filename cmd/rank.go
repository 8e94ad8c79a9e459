package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/acuityprep/blueprint-cli/internal/ingest"
	"github.com/acuityprep/blueprint-cli/internal/model"
	"github.com/acuityprep/blueprint-cli/internal/pipeline"
	"github.com/acuityprep/blueprint-cli/internal/score"
	"github.com/acuityprep/blueprint-cli/internal/taxonomy"
)

var (
	rankInput   string
	rankSheet   string
	rankExam    string
	rankSource  string
	rankCatType string
	rankMode    string
	rankFormat  string
	rankSave    bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score a performance report and rank categories by study ROI",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		exam, ok := taxonomy.ParseExamType(rankExam)
		if !ok {
			return eris.Errorf("unknown exam %q (want comlex2 or step2)", rankExam)
		}

		rows, err := readInput(rankInput, rankSheet, ingest.Options{
			DefaultCategoryType: rankCatType,
		})
		if err != nil {
			return err
		}

		eng, err := initEngine()
		if err != nil {
			return err
		}

		out, err := eng.Pipeline.Process(ctx, pipeline.Input{
			Exam:   exam,
			Source: rankSource,
			Rows:   rows,
		})
		if err != nil {
			return eris.Wrap(err, "process batch")
		}

		mode := score.ParseMode(rankMode)
		score.SortRows(out.Rows, mode)

		if rankSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}

			sess, err := st.SaveSession(ctx, model.Envelope{
				Version:   model.EnvelopeVersion,
				Exam:      string(exam),
				Source:    rankSource,
				Mode:      string(mode),
				Rows:      out.Rows,
				Warnings:  out.Warnings,
				CreatedAt: time.Now().UTC(),
			})
			if err != nil {
				return eris.Wrap(err, "save session")
			}
			zap.L().Info("session saved", zap.String("id", sess.ID))
		}

		for _, w := range out.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}

		switch rankFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		case "table":
			formatRankTable(os.Stdout, out)
			return nil
		default:
			return eris.Errorf("unknown format %q (want table or json)", rankFormat)
		}
	},
}

func init() {
	rankCmd.Flags().StringVar(&rankInput, "input", "", "report file (.csv or .xlsx, required)")
	rankCmd.Flags().StringVar(&rankSheet, "sheet", "", "xlsx sheet name (default first sheet)")
	rankCmd.Flags().StringVar(&rankExam, "exam", "", "exam blueprint: comlex2 or step2 (required)")
	rankCmd.Flags().StringVar(&rankSource, "source", "", "report vendor (nbome, uworld, truelearn, combank, amboss)")
	rankCmd.Flags().StringVar(&rankCatType, "category-type", "", "category type when the file has no type column")
	rankCmd.Flags().StringVar(&rankMode, "mode", "", "ranking mode: roi (default) or weakness")
	rankCmd.Flags().StringVar(&rankFormat, "format", "table", "output format: table or json")
	rankCmd.Flags().BoolVar(&rankSave, "save", false, "persist the scored session to the store")
	_ = rankCmd.MarkFlagRequired("input")
	_ = rankCmd.MarkFlagRequired("exam")
	rootCmd.AddCommand(rankCmd)
}

// readInput dispatches on file extension.
func readInput(path, sheet string, opts ingest.Options) ([]model.RawCategoryRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ingest.ReadCSV(f, opts)
	case ".xlsx":
		return ingest.ReadXLSX(path, sheet, opts)
	default:
		return nil, eris.Errorf("unsupported input format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// formatRankTable writes the ranked rows to w.
func formatRankTable(out io.Writer, o *pipeline.Output) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tCATEGORY\tTYPE\tACC\tWEIGHT\tROI\tPROI\tMATCH")
	_, _ = fmt.Fprintln(w, "----\t--------\t----\t---\t------\t---\t----\t-----")

	for i, r := range o.Rows {
		name := r.Name
		if r.Unmapped {
			name = r.Name + " (unmapped)"
		}
		if len(name) > 48 {
			name = name[:45] + "..."
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.4f\t%.4f\t%s\n",
			i+1,
			name,
			r.CategoryType,
			fmtOptPercent(r.Accuracy),
			fmtOptFloat(r.Weight),
			r.ROI,
			r.PROI,
			r.MatchType,
		)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nconfidence: %.2f", o.Confidence)
	if o.AvgPercentCorrect != nil {
		fmt.Fprintf(out, "  avg correct: %.1f%%", *o.AvgPercentCorrect)
	}
	fmt.Fprintln(out)
}

func fmtOptPercent(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *f*100)
}

func fmtOptFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *f)
}
