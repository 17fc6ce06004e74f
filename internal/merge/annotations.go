package merge

import (
	"github.com/roach88/cocomerge/internal/coco"
)

// MergeAnnotations appends a copy of every add annotation to unified with its
// category reference rewritten through remap. It fails on the first
// annotation whose reference has no remap entry; unified is left unchanged
// in that case.
func MergeAnnotations(unified, add *coco.Document, remap Remap) (int, error) {
	merged := make([]coco.Annotation, 0, len(add.Annotations))
	for i, a := range add.Annotations {
		target, ok := remap[a.CategoryID]
		if !ok {
			return 0, lookupError(unified, add, i, a)
		}
		out := a.Clone()
		out.CategoryID = target
		merged = append(merged, out)
	}
	unified.Annotations = append(unified.Annotations, merged...)
	return len(merged), nil
}

func lookupError(unified, add *coco.Document, index int, a coco.Annotation) *CategoryLookupError {
	e := &CategoryLookupError{AnnotationIndex: index, CategoryID: a.CategoryID}
	e.AnnotationID, e.HasAnnotationID = a.ID()
	for _, c := range add.Categories {
		if c.ID == a.CategoryID {
			e.Name = c.Name
			break
		}
	}
	if e.Name != "" {
		_, e.InBase = unified.CategoryNames()[e.Name]
	}
	return e
}
