package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/database"
	"github.com/nao1215/webmirror/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [seed-url]",
		Short: "List recorded mirror sessions",
		Long: `History lists the mirror sessions recorded in the manifest database,
newest first. With a seed URL argument, only sessions of that seed are shown.

Examples:
  # List all recorded sessions
  webmirror history

  # List sessions of one seed
  webmirror history https://example.com/

  # Show the stored report of session 3 as JSON
  webmirror history --id 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("id", 0, "Show the stored report of the given session ID")
	cmd.Flags().Bool("assets", false, "With --id, list the session's asset manifest instead of the report")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no mirror history recorded yet: %w", err)
	}
	defer db.Close() //nolint:errcheck

	ctx := cmd.Context()

	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	if id > 0 {
		showAssets, err := cmd.Flags().GetBool("assets")
		if err != nil {
			return err
		}
		if showAssets {
			return printSessionAssets(cmd, db, id)
		}
		return printSessionReport(cmd, db, id)
	}

	var sessions []database.SessionRecord
	if len(args) == 1 {
		sessions, err = db.SessionHistory(ctx, args[0])
	} else {
		sessions, err = db.ListSessions(ctx)
	}
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEED\tSTARTED\tELAPSED\tDOWNLOADED\tFAILED\tSTATUS")
	for _, s := range sessions {
		status := "completed"
		switch {
		case s.Error != "":
			status = "error"
		case s.Cancelled:
			status = "cancelled"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
			s.ID,
			s.Seed,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			s.Elapsed.Round(timePrintRounding),
			s.Downloaded,
			s.Failed,
			status,
		)
	}
	return w.Flush()
}

// printSessionReport renders one stored session report as JSON.
func printSessionReport(cmd *cobra.Command, db *database.ManifestDB, id int64) error {
	rep, err := db.GetSessionReport(cmd.Context(), id)
	if err != nil {
		return err
	}
	if rep == nil {
		return fmt.Errorf("session %d not found", id)
	}

	_, err = report.NewJSONWriter(cmd.OutOrStdout()).Write(rep)
	return err
}

// printSessionAssets lists the asset manifest of one stored session.
func printSessionAssets(cmd *cobra.Command, db *database.ManifestDB, id int64) error {
	assets, err := db.SessionAssets(cmd.Context(), id)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		return fmt.Errorf("session %d has no recorded assets", id)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tKIND\tSIZE\tLOCAL PATH\tERROR")
	for _, a := range assets {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			a.URL, a.Kind, a.Size, a.LocalPath, a.Error)
	}
	return w.Flush()
}

// timePrintRounding keeps elapsed times readable in tables.
const timePrintRounding = 10 * time.Millisecond
