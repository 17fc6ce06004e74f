package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cocomerge/internal/coco"
	"github.com/roach88/cocomerge/internal/config"
	"github.com/roach88/cocomerge/internal/imagedir"
	"github.com/roach88/cocomerge/internal/merge"
	"github.com/roach88/cocomerge/internal/schema"
)

// ValidationIssue is one failed check.
type ValidationIssue struct {
	Check   string `json:"check"`
	Source  string `json:"source,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of the validate command.
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Issues []ValidationIssue  `json:"issues,omitempty"`
	Stats  *merge.Stats       `json:"stats,omitempty"`
	Remap  []merge.RemapEntry `json:"remap,omitempty"`
}

func (r *ValidationResult) add(check, source string, err error) {
	_, code := classify(err)
	r.Issues = append(r.Issues, ValidationIssue{
		Check:   check,
		Source:  source,
		Code:    code,
		Message: err.Error(),
	})
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that two datasets can be merged, without writing anything",
		Long: `Run every check a merge would run and report all problems at once.

Checks:
  - both annotation documents load and match the COCO schema
  - category ids are unique and annotations reference existing categories
  - every image the add document declares exists in the add image directory
  - the base image directory is readable (a missing one counts as empty)
  - the in-memory merge succeeds under the selected remap policy

On success the planned category remap is reported. No file is written.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - Command error (invalid flags or configuration)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	addPathFlags(cmd)
	cmd.Flags().String(config.FlagName(config.KeyRemap), config.Default(config.KeyRemap).(string),
		"category remap policy: new or all")

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
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

	validator, err := schema.New()
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err, nil)
	}

	result := &ValidationResult{}
	base := validateDocument(result, validator, settings.BaseJSON, formatter)
	add := validateDocument(result, validator, settings.AddJSON, formatter)

	if add != nil {
		formatter.VerboseLog("Checking %d add image(s) in %s", len(add.Images), settings.AddImagePath)
		if err := merge.CheckImageDir(add, settings.AddImagePath); err != nil {
			result.add("images", settings.AddImagePath, err)
		}
	}
	if _, err := imagedir.List(settings.BaseImagePath); err != nil {
		result.add("images", settings.BaseImagePath, err)
	}

	if base != nil && add != nil {
		merged, err := merge.Merge(base, add, merge.Options{Policy: settings.Policy()})
		if err != nil {
			result.add("merge", "", err)
		} else {
			result.Stats = &merged.Stats
			result.Remap = merged.Entries
		}
	}

	if len(result.Issues) > 0 {
		return outputValidationIssues(formatter, result)
	}
	result.Valid = true
	return outputValidateSuccess(formatter, result)
}

// validateDocument loads path and runs the schema and reference checks on
// it. It returns nil if the document could not be loaded.
func validateDocument(result *ValidationResult, validator *schema.Validator, path string, formatter *OutputFormatter) *coco.Document {
	formatter.VerboseLog("Validating %s", path)

	doc, err := coco.Load(path)
	if err != nil {
		result.add("load", path, err)
		return nil
	}
	if err := validator.ValidateFile(path); err != nil {
		result.add("schema", path, err)
	}
	if err := merge.CheckReferences(doc); err != nil {
		result.add("references", path, err)
	}
	return doc
}

func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✓ All checks passed")
	fmt.Fprintf(w, "  Images:      %d to add, %d duplicate(s)\n", result.Stats.ImagesAdded, result.Stats.ImagesSkipped)
	fmt.Fprintf(w, "  Categories:  %d new\n", result.Stats.CategoriesAdded)
	fmt.Fprintf(w, "  Annotations: %d to add\n", result.Stats.AnnotationsAdded)
	if len(result.Remap) > 0 {
		fmt.Fprintln(w)
		writeRemapTable(w, result.Remap)
	}
	return nil
}

func outputValidationIssues(formatter *OutputFormatter, result *ValidationResult) error {
	first := result.Issues[0]
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues)))
	exitErr.Reported = true

	if formatter.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Message,
			},
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range result.Issues {
		fmt.Fprintf(formatter.Writer, "  %s [%s]: %s\n", issue.Code, issue.Check, issue.Message)
	}
	return exitErr
}
