package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cocomerge/internal/merge"
	"github.com/roach88/cocomerge/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// HistoryResult is the JSON payload of a run listing.
type HistoryResult struct {
	Runs  []store.Run `json:"runs"`
	Total int         `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show merge runs recorded in the ledger",
		Long: `List the merge runs recorded in the run ledger, newest first, or show one
run with its category remap table.

The ledger is selected with --ledger (or the ledger setting).

Examples:
  cocomerge history --ledger cocomerge.db
  cocomerge history --ledger cocomerge.db --limit 5
  cocomerge history --ledger cocomerge.db 0190f6d4-5b1e-7c3a-9d2f-1a2b3c4d5e6f`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runHistory(opts, runID, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	settings, err := loadSettings(opts.RootOptions, cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err, nil)
	}
	if settings.Ledger == "" {
		return formatter.Fail(ExitCommandError, ErrCodeConfig,
			errors.New("no ledger configured: pass --ledger or set the ledger setting"), nil)
	}
	// Open would create a missing database.
	if _, err := os.Stat(settings.Ledger); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("ledger: %w", err), nil)
	}

	st, err := store.Open(settings.Ledger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, err, nil)
	}
	defer st.Close()

	ctx := cmd.Context()

	if runID != "" {
		run, err := st.GetRun(ctx, runID)
		if err != nil {
			exit, code := classify(err)
			if code == ErrCodeGeneric {
				code = ErrCodeLedger
			}
			return formatter.Fail(exit, code, err, nil)
		}
		if formatter.Format == "json" {
			return formatter.Success(run)
		}
		outputRunText(formatter.Writer, run)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeLedger, err, nil)
	}
	if formatter.Format == "json" {
		return formatter.Success(HistoryResult{Runs: runs, Total: len(runs)})
	}
	outputRunsText(formatter.Writer, runs)
	return nil
}

func statusMark(status store.RunStatus) string {
	switch status {
	case store.StatusOK:
		return "✓"
	case store.StatusDryRun:
		return "○"
	default:
		return "✗"
	}
}

func outputRunsText(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s %s  %s  %-7s  +%d images, +%d categories, +%d annotations\n",
			statusMark(r.Status), r.ID, r.StartedAt.UTC().Format("2006-01-02 15:04:05"), r.Status,
			r.ImagesAdded, r.CategoriesAdded, r.AnnotationsAdded)
		if r.Status == store.StatusFailed {
			fmt.Fprintf(w, "    %s: [%s] %s\n", r.Stage, r.ErrorCode, r.Error)
		}
	}
	fmt.Fprintf(w, "\n%d run(s)\n", len(runs))
}

func outputRunText(w io.Writer, r *store.Run) {
	fmt.Fprintf(w, "%s Run %s (%s)\n", statusMark(r.Status), r.ID, r.Status)
	fmt.Fprintf(w, "  Started:     %s\n", r.StartedAt.UTC().Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(w, "  Finished:    %s\n", r.FinishedAt.UTC().Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(w, "  Base:        %s, %s\n", r.BaseJSON, r.BaseImagePath)
	fmt.Fprintf(w, "  Add:         %s, %s\n", r.AddJSON, r.AddImagePath)
	fmt.Fprintf(w, "  Unified:     %s, %s\n", r.UnifiedJSON, r.UnifiedImagePath)
	fmt.Fprintf(w, "  Remap:       %s\n", r.RemapPolicy)
	if r.Status == store.StatusFailed {
		fmt.Fprintf(w, "  Failed at:   %s [%s]\n", r.Stage, r.ErrorCode)
		fmt.Fprintf(w, "  Error:       %s\n", r.Error)
	}
	fmt.Fprintf(w, "  Images:      %d added, %d skipped\n", r.ImagesAdded, r.ImagesSkipped)
	fmt.Fprintf(w, "  Categories:  %d added\n", r.CategoriesAdded)
	fmt.Fprintf(w, "  Annotations: %d added\n", r.AnnotationsAdded)
	fmt.Fprintf(w, "  Files:       %d copied, %d overwritten\n", r.FilesCopied, r.FilesOverwritten)

	if len(r.Remaps) > 0 {
		fmt.Fprintln(w)
		entries := make([]merge.RemapEntry, len(r.Remaps))
		for i, m := range r.Remaps {
			entries[i] = merge.RemapEntry{AddID: m.AddID, UnifiedID: m.UnifiedID, Name: m.Name, New: m.New}
		}
		writeRemapTable(w, entries)
	}
}
