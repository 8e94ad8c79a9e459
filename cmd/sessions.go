package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/acuityprep/blueprint-cli/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect saved scoring sessions",
	Long:  "Commands for listing, viewing, and deleting persisted scoring sessions.",
}

// -- sessions list --

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		exam, _ := cmd.Flags().GetString("exam")
		limit, _ := cmd.Flags().GetInt("limit")

		sessions, err := st.ListSessions(ctx, store.SessionFilter{Exam: exam, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "sessions list")
		}

		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "No sessions found.")
			return nil
		}

		formatSessionsList(os.Stdout, sessions)
		return nil
	},
}

// -- sessions show --

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a saved session with re-derived scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		sess, err := st.GetSession(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "sessions show")
		}

		// Old envelopes may carry stale computed fields; weights and
		// scores are always re-derived from the current blueprint.
		eng, err := initEngine()
		if err != nil {
			return err
		}
		if sess.Envelope.Stale() {
			zap.L().Info("rehydrating stale envelope",
				zap.String("id", sess.ID),
				zap.Int("version", sess.Envelope.Version),
			)
		}
		eng.Pipeline.Rehydrate(&sess.Envelope)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	},
}

// -- sessions delete --

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteSession(ctx, args[0]); err != nil {
			return eris.Wrap(err, "sessions delete")
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().String("exam", "", "filter by exam (comlex2, step2)")
	sessionsListCmd.Flags().Int("limit", 50, "max number of sessions to display")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// formatSessionsList writes a tabular list of sessions to w.
func formatSessionsList(out io.Writer, sessions []store.Session) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEXAM\tROWS\tWARNINGS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t--------\t-------")

	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			truncateID(s.ID),
			s.Exam,
			len(s.Envelope.Rows),
			len(s.Envelope.Warnings),
			s.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
