package merge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes merge errors.
type ErrorCode string

const (
	// ErrCodeDataIntegrity indicates the add document references image files
	// missing from its image directory.
	ErrCodeDataIntegrity ErrorCode = "DATA_INTEGRITY"

	// ErrCodeCategoryLookup indicates an add annotation's category has no
	// entry in the remap table.
	ErrCodeCategoryLookup ErrorCode = "CATEGORY_LOOKUP"

	// ErrCodeBrokenReference indicates a document violates its own
	// referential invariants (dangling category reference, duplicate id).
	ErrCodeBrokenReference ErrorCode = "BROKEN_REFERENCE"

	// ErrCodeCategoryIDOverflow indicates the fresh category ids would not
	// fit in an int64.
	ErrCodeCategoryIDOverflow ErrorCode = "CATEGORY_ID_OVERFLOW"
)

// maxListed bounds how many names an error message spells out.
const maxListed = 5

// DataIntegrityError reports image files declared by a document but absent
// from its image directory.
type DataIntegrityError struct {
	Dir     string
	Missing []string
}

func (e *DataIntegrityError) Code() ErrorCode { return ErrCodeDataIntegrity }

func (e *DataIntegrityError) Error() string {
	where := "the image directory"
	if e.Dir != "" {
		where = e.Dir
	}
	return fmt.Sprintf("%s: %d image(s) recorded in the annotation file are missing from %s: %s",
		ErrCodeDataIntegrity, len(e.Missing), where, listNames(e.Missing))
}

// CategoryLookupError reports an add annotation whose category reference
// cannot be resolved through the remap table.
type CategoryLookupError struct {
	// AnnotationIndex is the position in the add document's annotations.
	AnnotationIndex int
	// AnnotationID is set when the annotation carries an id.
	AnnotationID    int64
	HasAnnotationID bool
	CategoryID      int64
	// Name is the add category's name, empty if the id is unknown to the add document.
	Name string
	// InBase is true when Name already exists in the base document, the case
	// RemapNew leaves unmapped.
	InBase bool
}

func (e *CategoryLookupError) Code() ErrorCode { return ErrCodeCategoryLookup }

func (e *CategoryLookupError) Error() string {
	ann := fmt.Sprintf("annotations[%d]", e.AnnotationIndex)
	if e.HasAnnotationID {
		ann = fmt.Sprintf("%s (id=%d)", ann, e.AnnotationID)
	}
	switch {
	case e.Name == "":
		return fmt.Sprintf("%s: %s references category_id %d, which is not defined in the add document",
			ErrCodeCategoryLookup, ann, e.CategoryID)
	case e.InBase:
		return fmt.Sprintf("%s: %s references category_id %d (%q), a name already present in base; "+
			"only new categories are remapped (use remap policy %q to map overlapping names)",
			ErrCodeCategoryLookup, ann, e.CategoryID, e.Name, RemapAll)
	default:
		return fmt.Sprintf("%s: %s references category_id %d (%q), which has no remap entry",
			ErrCodeCategoryLookup, ann, e.CategoryID, e.Name)
	}
}

// CategoryIDOverflowError reports new category names that cannot be numbered
// above the largest base id.
type CategoryIDOverflowError struct {
	MaxBaseID int64
	NewNames  []string
}

func (e *CategoryIDOverflowError) Code() ErrorCode { return ErrCodeCategoryIDOverflow }

func (e *CategoryIDOverflowError) Error() string {
	return fmt.Sprintf("%s: cannot number %d new categor(ies) above base id %d: %s",
		ErrCodeCategoryIDOverflow, len(e.NewNames), e.MaxBaseID, listNames(e.NewNames))
}

// DanglingReference is an annotation whose category_id resolves to nothing.
type DanglingReference struct {
	AnnotationIndex int   `json:"annotation_index"`
	CategoryID      int64 `json:"category_id"`
}

// ReferenceError reports referential problems inside one document.
type ReferenceError struct {
	DuplicateCategoryIDs []int64
	Dangling             []DanglingReference
}

func (e *ReferenceError) Code() ErrorCode { return ErrCodeBrokenReference }

func (e *ReferenceError) Error() string {
	var parts []string
	if len(e.DuplicateCategoryIDs) > 0 {
		parts = append(parts, fmt.Sprintf("duplicate category ids %v", e.DuplicateCategoryIDs))
	}
	if len(e.Dangling) > 0 {
		first := e.Dangling[0]
		parts = append(parts, fmt.Sprintf("%d annotation(s) reference undefined categories (first: annotations[%d] -> %d)",
			len(e.Dangling), first.AnnotationIndex, first.CategoryID))
	}
	return fmt.Sprintf("%s: %s", ErrCodeBrokenReference, strings.Join(parts, "; "))
}

// CodeOf returns the merge error code carried by err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var coded interface{ Code() ErrorCode }
	if errors.As(err, &coded) {
		return coded.Code(), true
	}
	return "", false
}

// IsDataIntegrityError returns true if err is or wraps a DataIntegrityError.
func IsDataIntegrityError(err error) bool {
	var e *DataIntegrityError
	return errors.As(err, &e)
}

// IsCategoryLookupError returns true if err is or wraps a CategoryLookupError.
func IsCategoryLookupError(err error) bool {
	var e *CategoryLookupError
	return errors.As(err, &e)
}

func listNames(names []string) string {
	if len(names) <= maxListed {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(names[:maxListed], ", "), len(names)-maxListed)
}
