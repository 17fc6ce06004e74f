package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines an end-to-end merge scenario.
// A scenario lays out a base and an add dataset, runs the merge pipeline over
// them and checks the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Base is the dataset being extended.
	Base Dataset `yaml:"base"`

	// Add is the dataset merged into base.
	Add Dataset `yaml:"add"`

	// Remap selects the category remap policy ("new" or "all").
	// Empty uses the default policy.
	Remap string `yaml:"remap,omitempty"`

	// SchemaCheck validates both documents against the COCO schema first.
	SchemaCheck bool `yaml:"schema_check,omitempty"`

	// DryRun stops after the in-memory merge.
	DryRun bool `yaml:"dry_run,omitempty"`

	// Expect describes the run outcome.
	Expect Expectation `yaml:"expect"`

	// Assertions validate the unified output.
	// Supported types: category, annotation_category, remap, count, image_file, no_output
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Dataset is one annotation document plus the image files in its directory.
type Dataset struct {
	// Document is the annotation document. It is written as JSON; YAML maps
	// are serialized with sorted keys.
	Document map[string]any `yaml:"document"`

	// Files names the image files to create. Each file's content is its
	// dataset label followed by the name, so overwrites are observable.
	Files []string `yaml:"files,omitempty"`
}

// Expectation describes the expected run outcome.
type Expectation struct {
	// Status is "ok", "failed" or "dry_run".
	Status string `yaml:"status"`

	// Stage is the failing stage (failed runs only).
	Stage string `yaml:"stage,omitempty"`

	// ErrorCode is the ledger error code (failed runs only).
	ErrorCode string `yaml:"error_code,omitempty"`

	// ErrorContains is a substring of the error message.
	ErrorContains string `yaml:"error_contains,omitempty"`
}

// Assertion validates the unified output.
type Assertion struct {
	// Type specifies the assertion type:
	// - "category": unified has a category Name with id ID
	// - "annotation_category": annotation AnnotationID references CategoryID
	// - "remap": add category AddID maps to UnifiedID
	// - "count": Container holds exactly Count records
	// - "image_file": File exists in the unified image directory, with
	//   content from Source ("base" or "add") when given
	// - "no_output": nothing was written
	Type string `yaml:"type"`

	Name         string `yaml:"name,omitempty"`
	ID           *int64 `yaml:"id,omitempty"`
	AnnotationID *int64 `yaml:"annotation_id,omitempty"`
	CategoryID   *int64 `yaml:"category_id,omitempty"`
	AddID        *int64 `yaml:"add_id,omitempty"`
	UnifiedID    *int64 `yaml:"unified_id,omitempty"`
	Container    string `yaml:"container,omitempty"`
	Count        int    `yaml:"count,omitempty"`
	File         string `yaml:"file,omitempty"`
	Source       string `yaml:"source,omitempty"`
}

// Assertion type constants.
const (
	AssertCategory           = "category"
	AssertAnnotationCategory = "annotation_category"
	AssertRemap              = "remap"
	AssertCount              = "count"
	AssertImageFile          = "image_file"
	AssertNoOutput           = "no_output"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Base.Document == nil {
		return fmt.Errorf("base.document is required")
	}

	if s.Add.Document == nil {
		return fmt.Errorf("add.document is required")
	}

	switch s.Remap {
	case "", "new", "all":
	default:
		return fmt.Errorf("remap must be \"new\" or \"all\", got %q", s.Remap)
	}

	switch s.Expect.Status {
	case "ok", "dry_run":
		if s.Expect.Stage != "" || s.Expect.ErrorCode != "" {
			return fmt.Errorf("expect: stage and error_code apply to failed runs only")
		}
	case "failed":
		if s.Expect.Stage == "" {
			return fmt.Errorf("expect.stage is required for failed runs")
		}
	case "":
		return fmt.Errorf("expect.status is required")
	default:
		return fmt.Errorf("expect.status must be ok, failed or dry_run, got %q", s.Expect.Status)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCategory:
		if a.Name == "" || a.ID == nil {
			return fmt.Errorf("assertions[%d]: name and id are required for category", index)
		}
	case AssertAnnotationCategory:
		if a.AnnotationID == nil || a.CategoryID == nil {
			return fmt.Errorf("assertions[%d]: annotation_id and category_id are required for annotation_category", index)
		}
	case AssertRemap:
		if a.AddID == nil || a.UnifiedID == nil {
			return fmt.Errorf("assertions[%d]: add_id and unified_id are required for remap", index)
		}
	case AssertCount:
		switch a.Container {
		case "images", "categories", "annotations":
		default:
			return fmt.Errorf("assertions[%d]: container must be images, categories or annotations for count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for count", index)
		}
	case AssertImageFile:
		if a.File == "" {
			return fmt.Errorf("assertions[%d]: file is required for image_file", index)
		}
		switch a.Source {
		case "", "base", "add":
		default:
			return fmt.Errorf("assertions[%d]: source must be base or add for image_file", index)
		}
	case AssertNoOutput:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
