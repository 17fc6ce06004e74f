package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/cocomerge/internal/coco"
	"github.com/roach88/cocomerge/internal/imagedir"
	"github.com/roach88/cocomerge/internal/merge"
	"github.com/roach88/cocomerge/internal/pipeline"
	"github.com/roach88/cocomerge/internal/store"
	"github.com/roach88/cocomerge/internal/testutil"
)

// Harness executes scenarios with a deterministic clock and run ids.
type Harness struct {
	store  *store.Store
	runner *pipeline.Runner
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh temporary directory with a fresh in-memory
// run ledger. A failing merge is not an error: it is compared against the
// scenario's expectation like any other outcome. Errors are returned only
// when the scenario cannot be executed.
//
// Execution flow:
// 1. Materialize base and add datasets on disk
// 2. Run the merge pipeline
// 3. Check the outcome and the recorded ledger row against expect
// 4. Evaluate assertions
// 5. Build the golden snapshot
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "cocomerge-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenarios
	h := &Harness{
		store: st,
		runner: pipeline.NewRunner(
			pipeline.WithLogger(logger),
			pipeline.WithLedger(st),
			pipeline.WithClock(testutil.NewStepClock(time.Second).Now),
			pipeline.WithIDGenerator(testutil.NewSequentialIDs(scenario.Name)),
		),
		logger: logger,
	}
	return h.run(context.Background(), scenario, dir)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario, dir string) (*Result, error) {
	paths, err := materialize(scenario, dir)
	if err != nil {
		return nil, err
	}

	policy, err := merge.ParseRemapPolicy(scenario.Remap)
	if err != nil {
		return nil, err
	}

	rep, runErr := h.runner.Run(ctx, paths, pipeline.Options{
		Policy:      policy,
		SchemaCheck: scenario.SchemaCheck,
		DryRun:      scenario.DryRun,
	})
	h.logger.Info("scenario executed", "scenario", scenario.Name, "status", rep.Status, "error", runErr)

	result := NewResult()
	result.Report = rep

	checkOutcome(result, scenario.Expect, rep, runErr)
	if err := h.checkLedger(ctx, result, rep); err != nil {
		return nil, err
	}

	actx := &AssertionContext{Report: rep, Paths: paths}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	snap, err := buildSnapshot(scenario.Name, rep, runErr, paths)
	if err != nil {
		return nil, err
	}
	result.Snapshot = snap

	return result, nil
}

// materialize writes the scenario datasets below dir.
func materialize(scenario *Scenario, dir string) (pipeline.Paths, error) {
	paths := pipeline.Paths{
		BaseJSON:      filepath.Join(dir, "base", "annotations", "base.json"),
		BaseImages:    filepath.Join(dir, "base", "images"),
		AddJSON:       filepath.Join(dir, "add", "annotations", "add.json"),
		AddImages:     filepath.Join(dir, "add", "images"),
		UnifiedJSON:   filepath.Join(dir, "merged", "annotations", "merged.json"),
		UnifiedImages: filepath.Join(dir, "merged", "images"),
	}

	datasets := []struct {
		label   string
		ds      Dataset
		docPath string
		imgDir  string
	}{
		{"base", scenario.Base, paths.BaseJSON, paths.BaseImages},
		{"add", scenario.Add, paths.AddJSON, paths.AddImages},
	}
	for _, d := range datasets {
		data, err := json.Marshal(d.ds.Document)
		if err != nil {
			return paths, fmt.Errorf("%s.document: %w", d.label, err)
		}
		if err := writeFile(d.docPath, data); err != nil {
			return paths, err
		}
		if err := os.MkdirAll(d.imgDir, 0o755); err != nil {
			return paths, fmt.Errorf("failed to create image directory: %w", err)
		}
		for _, name := range d.ds.Files {
			if err := writeFile(filepath.Join(d.imgDir, name), []byte(fileContent(d.label, name))); err != nil {
				return paths, err
			}
		}
	}
	return paths, nil
}

func fileContent(label, name string) string {
	return label + ":" + name
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// checkOutcome compares the run outcome with the scenario expectation.
func checkOutcome(result *Result, want Expectation, rep *pipeline.Report, runErr error) {
	if got := string(rep.Status); got != want.Status {
		msg := fmt.Sprintf("expect.status: expected %q, got %q", want.Status, got)
		if runErr != nil {
			msg += fmt.Sprintf(" (error: %v)", runErr)
		}
		result.AddError(msg)
		return
	}
	if runErr == nil {
		return
	}

	if got := string(rep.Stage); got != want.Stage {
		result.AddError(fmt.Sprintf("expect.stage: expected %q, got %q", want.Stage, got))
	}
	if want.ErrorCode != "" {
		if got := pipeline.ErrorCode(runErr); got != want.ErrorCode {
			result.AddError(fmt.Sprintf("expect.error_code: expected %q, got %q", want.ErrorCode, got))
		}
	}
	if want.ErrorContains != "" && !bytes.Contains([]byte(runErr.Error()), []byte(want.ErrorContains)) {
		result.AddError(fmt.Sprintf("expect.error_contains: %q not found in %q", want.ErrorContains, runErr.Error()))
	}
}

// checkLedger verifies the run was recorded with the reported status.
func (h *Harness) checkLedger(ctx context.Context, result *Result, rep *pipeline.Report) error {
	run, err := h.store.GetRun(ctx, rep.RunID)
	if err != nil {
		result.AddError(fmt.Sprintf("ledger: %v", err))
		return nil
	}
	if run.Status != rep.Status {
		result.AddError(fmt.Sprintf("ledger: expected status %q, got %q", rep.Status, run.Status))
	}
	if len(run.Remaps) != len(rep.Remap) {
		result.AddError(fmt.Sprintf("ledger: expected %d remap rows, got %d", len(rep.Remap), len(run.Remaps)))
	}
	return nil
}

// buildSnapshot captures the path-free outcome of a run.
func buildSnapshot(name string, rep *pipeline.Report, runErr error, paths pipeline.Paths) (Snapshot, error) {
	snap := Snapshot{
		ScenarioName: name,
		Status:       string(rep.Status),
		FailedStage:  string(rep.Stage),
		ErrorCode:    pipeline.ErrorCode(runErr),
		Stats:        rep.Stats,
		Remap:        rep.Remap,
		Files:        []string{},
	}
	if snap.Remap == nil {
		snap.Remap = []merge.RemapEntry{}
	}

	if files, err := imagedir.List(paths.UnifiedImages); err == nil {
		snap.Files = files
	}

	if rep.Unified != nil {
		var buf bytes.Buffer
		if err := coco.Encode(&buf, rep.Unified); err != nil {
			return snap, fmt.Errorf("failed to encode unified document: %w", err)
		}
		snap.Unified = json.RawMessage(bytes.TrimSpace(buf.Bytes()))
	}
	return snap, nil
}
