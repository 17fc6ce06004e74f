package merge

import (
	"fmt"

	"github.com/roach88/cocomerge/internal/coco"
)

// Options configures Merge.
type Options struct {
	Policy RemapPolicy
}

// Stats summarises a merge.
type Stats struct {
	ImagesAdded      int `json:"images_added"`
	ImagesSkipped    int `json:"images_skipped"`
	CategoriesAdded  int `json:"categories_added"`
	AnnotationsAdded int `json:"annotations_added"`
}

// Result is the outcome of Merge.
type Result struct {
	Unified *coco.Document
	Remap   Remap
	Entries []RemapEntry
	Stats   Stats
}

// Merge runs image, category and annotation merging in order and returns
// the unified document. base and add are not modified.
//
// The image directory consistency check is not part of Merge; callers run
// CheckImageDir first.
func Merge(base, add *coco.Document, opts Options) (*Result, error) {
	unified := base.Clone()

	images, err := MergeImages(unified, add)
	if err != nil {
		return nil, fmt.Errorf("merge images: %w", err)
	}

	categories, err := MergeCategories(unified, base, add, opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("merge categories: %w", err)
	}

	annotations, err := MergeAnnotations(unified, add, categories.Remap)
	if err != nil {
		return nil, fmt.Errorf("merge annotations: %w", err)
	}

	return &Result{
		Unified: unified,
		Remap:   categories.Remap,
		Entries: categories.Entries,
		Stats: Stats{
			ImagesAdded:      images.Added,
			ImagesSkipped:    images.Skipped,
			CategoriesAdded:  categories.Added,
			AnnotationsAdded: annotations,
		},
	}, nil
}
