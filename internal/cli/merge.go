package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/cocomerge/internal/config"
	"github.com/roach88/cocomerge/internal/pipeline"
	"github.com/roach88/cocomerge/internal/store"
)

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the add dataset into the base dataset",
		Long: `Merge the add COCO dataset into the base dataset and consolidate images.

Steps:
  1. Load both annotation documents (optionally checking them against the
     COCO schema with --schema-check)
  2. Check that every image the add document declares exists in the add
     image directory
  3. Merge images, categories and annotations
  4. Save the unified document and copy base then add images into the
     unified image directory

Nothing is written if any step before saving fails. With --dry-run the
merge stops after step 3.

Flag names also accept underscores (--base_json).

Exit codes:
  0 - Merge succeeded
  1 - Merge failed (missing images, unresolved category, invalid document)
  2 - Command error (invalid paths, flags or configuration)

Examples:
  cocomerge merge
  cocomerge merge --base-json base/ann.json --base-image-path base/images \
    --add-json add/ann.json --add-image-path add/images \
    --unified-json-path out/ann.json --unified-image-path out/images
  cocomerge merge --remap all --ledger cocomerge.db
  cocomerge merge --dry-run --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(rootOpts, cmd)
		},
	}

	addPathFlags(cmd)
	cmd.Flags().String(config.FlagName(config.KeyRemap), config.Default(config.KeyRemap).(string),
		"category remap policy: new (only categories new to base) or all (also map overlapping names to base ids)")
	cmd.Flags().Bool(config.FlagName(config.KeySchemaCheck), false, "validate both documents against the COCO schema first")
	cmd.Flags().Bool(config.FlagName(config.KeyDryRun), false, "merge in memory only, write nothing")

	return cmd
}

// addPathFlags defines the six dataset path flags.
func addPathFlags(cmd *cobra.Command) {
	flags := []struct {
		key, usage string
	}{
		{config.KeyBaseJSON, "base annotation document"},
		{config.KeyBaseImagePath, "base image directory"},
		{config.KeyAddJSON, "add annotation document"},
		{config.KeyAddImagePath, "add image directory"},
		{config.KeyUnifiedJSONPath, "unified annotation document to write"},
		{config.KeyUnifiedImagePath, "unified image directory to fill"},
	}
	for _, f := range flags {
		cmd.Flags().String(config.FlagName(f.key), config.Default(f.key).(string), f.usage)
	}
}

func pathsFrom(s *config.Settings) pipeline.Paths {
	return pipeline.Paths{
		BaseJSON:      s.BaseJSON,
		BaseImages:    s.BaseImagePath,
		AddJSON:       s.AddJSON,
		AddImages:     s.AddImagePath,
		UnifiedJSON:   s.UnifiedJSONPath,
		UnifiedImages: s.UnifiedImagePath,
	}
}

func runMerge(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	settings, err := loadSettings(opts, cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err, nil)
	}

	logger, closer, err := newLogger(cmd, settings)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err, nil)
	}
	defer closer.Close()

	runnerOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if settings.Ledger != "" {
		st, err := store.Open(settings.Ledger)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeLedger, err, nil)
		}
		defer closeLedger(st, logger)
		runnerOpts = append(runnerOpts, pipeline.WithLedger(st))
	}

	report, err := pipeline.NewRunner(runnerOpts...).Run(cmd.Context(), pathsFrom(settings), pipeline.Options{
		Policy:      settings.Policy(),
		SchemaCheck: settings.SchemaCheck,
		DryRun:      settings.DryRun,
	})
	if err != nil {
		exit, code := classify(err)
		return formatter.Fail(exit, code, err, failureDetails(report))
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}
	outputMergeText(formatter.Writer, report, opts.Verbose)
	return nil
}

func closeLedger(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing ledger", "error", err)
	}
}

// failureDetails is the JSON error detail of a failed run.
func failureDetails(r *pipeline.Report) map[string]any {
	return map[string]any{
		"run_id": r.RunID,
		"stage":  r.Stage,
	}
}

func outputMergeText(w io.Writer, r *pipeline.Report, verbose bool) {
	if r.Status == store.StatusDryRun {
		fmt.Fprintf(w, "✓ Dry run: %s + %s (nothing written)\n", r.Paths.BaseJSON, r.Paths.AddJSON)
	} else {
		fmt.Fprintf(w, "✓ Merged %s into %s\n", r.Paths.AddJSON, r.Paths.BaseJSON)
	}
	fmt.Fprintf(w, "  Run:         %s\n", r.RunID)
	fmt.Fprintf(w, "  Images:      %d added, %d skipped\n", r.Stats.ImagesAdded, r.Stats.ImagesSkipped)
	fmt.Fprintf(w, "  Categories:  %d added\n", r.Stats.CategoriesAdded)
	fmt.Fprintf(w, "  Annotations: %d added\n", r.Stats.AnnotationsAdded)
	if r.Status != store.StatusDryRun {
		fmt.Fprintf(w, "  Files:       %d copied, %d overwritten\n", r.Files.Copied, r.Files.Overwritten)
		fmt.Fprintf(w, "  Output:      %s, %s\n", r.Paths.UnifiedJSON, r.Paths.UnifiedImages)
	}

	if verbose && len(r.Remap) > 0 {
		fmt.Fprintln(w)
		writeRemapTable(w, r.Remap)
	}
}
