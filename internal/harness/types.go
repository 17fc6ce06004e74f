package harness

import (
	"encoding/json"

	"github.com/roach88/cocomerge/internal/merge"
	"github.com/roach88/cocomerge/internal/pipeline"
)

// Snapshot is the deterministic, path-free view of a run compared against
// golden files.
type Snapshot struct {
	ScenarioName string             `json:"scenario_name"`
	Status       string             `json:"status"`
	FailedStage  string             `json:"failed_stage,omitempty"`
	ErrorCode    string             `json:"error_code,omitempty"`
	Stats        merge.Stats        `json:"stats"`
	Remap        []merge.RemapEntry `json:"remap"`
	Files        []string           `json:"files"`             // unified image directory listing
	Unified      json.RawMessage    `json:"unified,omitempty"` // absent unless annotation_merge completed
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if the outcome matches expect and all assertions hold.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Report is the pipeline report of the run.
	Report *pipeline.Report `json:"report"`

	// Snapshot is the golden-comparable view of the run.
	Snapshot Snapshot `json:"snapshot"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
