package harness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/cocomerge/internal/coco"
	"github.com/roach88/cocomerge/internal/pipeline"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// errNoUnified is returned by assertions on the unified document when the
// run never produced one.
var errNoUnified = errors.New("no unified document (run failed before annotation_merge)")

// assertCategory checks that the unified document has a category with the
// given name and id.
func assertCategory(doc *coco.Document, a Assertion) error {
	var ids []int64
	for _, c := range doc.Categories {
		if c.Name != a.Name {
			continue
		}
		if c.ID == *a.ID {
			return nil
		}
		ids = append(ids, c.ID)
	}

	actual := "no category with that name"
	if len(ids) > 0 {
		actual = fmt.Sprintf("ids %v", ids)
	}
	return &AssertionError{
		Type:     AssertCategory,
		Expected: fmt.Sprintf("category %q with id %d", a.Name, *a.ID),
		Actual:   actual,
	}
}

// assertAnnotationCategory checks the category reference of the first
// unified annotation with the given id.
func assertAnnotationCategory(doc *coco.Document, a Assertion) error {
	for _, ann := range doc.Annotations {
		id, ok := ann.ID()
		if !ok || id != *a.AnnotationID {
			continue
		}
		if ann.CategoryID == *a.CategoryID {
			return nil
		}
		return &AssertionError{
			Type:     AssertAnnotationCategory,
			Expected: fmt.Sprintf("annotation %d references category %d", *a.AnnotationID, *a.CategoryID),
			Actual:   fmt.Sprintf("category %d", ann.CategoryID),
		}
	}
	return &AssertionError{
		Type:     AssertAnnotationCategory,
		Expected: fmt.Sprintf("annotation %d references category %d", *a.AnnotationID, *a.CategoryID),
		Actual:   "annotation not found",
	}
}

// assertRemap checks one row of the remap table.
func assertRemap(rep *pipeline.Report, a Assertion) error {
	for _, e := range rep.Remap {
		if e.AddID != *a.AddID {
			continue
		}
		if e.UnifiedID == *a.UnifiedID {
			return nil
		}
		return &AssertionError{
			Type:     AssertRemap,
			Expected: fmt.Sprintf("add category %d -> %d", *a.AddID, *a.UnifiedID),
			Actual:   fmt.Sprintf("-> %d", e.UnifiedID),
		}
	}
	return &AssertionError{
		Type:     AssertRemap,
		Expected: fmt.Sprintf("add category %d -> %d", *a.AddID, *a.UnifiedID),
		Actual:   "no remap entry",
	}
}

// assertCount checks the number of records in one container.
func assertCount(doc *coco.Document, a Assertion) error {
	var n int
	switch a.Container {
	case coco.KeyImages:
		n = len(doc.Images)
	case coco.KeyCategories:
		n = len(doc.Categories)
	case coco.KeyAnnotations:
		n = len(doc.Annotations)
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCount,
		Expected: fmt.Sprintf("%d %s", a.Count, a.Container),
		Actual:   fmt.Sprintf("%d %s", n, a.Container),
	}
}

// assertImageFile checks a file of the unified image directory and, when a
// source is given, which dataset its content came from.
func assertImageFile(dir string, a Assertion) error {
	data, err := os.ReadFile(filepath.Join(dir, a.File))
	if err != nil {
		return &AssertionError{
			Type:     AssertImageFile,
			Expected: fmt.Sprintf("file %s in unified image directory", a.File),
			Actual:   err.Error(),
		}
	}
	if a.Source == "" {
		return nil
	}
	if want := fileContent(a.Source, a.File); string(data) != want {
		return &AssertionError{
			Type:     AssertImageFile,
			Expected: fmt.Sprintf("file %s copied from %s", a.File, a.Source),
			Actual:   fmt.Sprintf("content %q", data),
		}
	}
	return nil
}

// assertNoOutput checks that neither output path exists.
func assertNoOutput(paths pipeline.Paths) error {
	for _, p := range []string{paths.UnifiedJSON, paths.UnifiedImages} {
		if _, err := os.Stat(p); err == nil {
			return &AssertionError{
				Type:     AssertNoOutput,
				Expected: "no output written",
				Actual:   fmt.Sprintf("%s exists", filepath.Base(p)),
			}
		}
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Report *pipeline.Report
	Paths  pipeline.Paths
}

// EvaluateAssertions evaluates all assertions against a finished run.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error
		unified := actx.Report.Unified

		switch assertion.Type {
		case AssertCategory, AssertAnnotationCategory, AssertCount:
			if unified == nil {
				err = errNoUnified
				break
			}
			switch assertion.Type {
			case AssertCategory:
				err = assertCategory(unified, assertion)
			case AssertAnnotationCategory:
				err = assertAnnotationCategory(unified, assertion)
			default:
				err = assertCount(unified, assertion)
			}
		case AssertRemap:
			err = assertRemap(actx.Report, assertion)
		case AssertImageFile:
			err = assertImageFile(actx.Paths.UnifiedImages, assertion)
		case AssertNoOutput:
			err = assertNoOutput(actx.Paths)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}

		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return errs
}
