package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/acuityprep/blueprint-cli/internal/audit"
)

var (
	auditProbes string
	auditFormat string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check alias coverage against a file of observed labels",
	Long:  "Resolves every probe label in a JSON file through the matcher and reports coverage, so new vendor label drift is caught before it reaches users.",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(auditProbes)
		if err != nil {
			return eris.Wrapf(err, "open %s", auditProbes)
		}
		defer f.Close() //nolint:errcheck

		var probes []audit.Probe
		if err := json.NewDecoder(f).Decode(&probes); err != nil {
			return eris.Wrap(err, "decode probes")
		}

		eng, err := initEngine()
		if err != nil {
			return err
		}

		report := audit.Run(eng.Matcher, probes)

		switch auditFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case "table":
			formatAuditReport(os.Stdout, report)
			return nil
		default:
			return eris.Errorf("unknown format %q (want table or json)", auditFormat)
		}
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditProbes, "probes", "", "JSON file of probe labels (required)")
	auditCmd.Flags().StringVar(&auditFormat, "format", "table", "output format: table or json")
	_ = auditCmd.MarkFlagRequired("probes")
	rootCmd.AddCommand(auditCmd)
}

func formatAuditReport(out io.Writer, r *audit.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LABEL\tEXAM\tTYPE\tMATCH\tSCORE\tCANONICAL")
	_, _ = fmt.Fprintln(w, "-----\t----\t----\t-----\t-----\t---------")

	for _, pr := range r.Results {
		label := pr.RawName
		if len(label) > 40 {
			label = label[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\n",
			label, pr.Exam, pr.CategoryType, pr.MatchType, pr.Score, pr.Canonical)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\ncoverage: %d/%d (%.1f%%)\n", r.Matched, r.Total, r.Coverage*100)
}
