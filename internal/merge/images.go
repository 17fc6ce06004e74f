package merge

import (
	"fmt"

	"github.com/roach88/cocomerge/internal/coco"
)

// ImageStats counts the outcome of MergeImages.
type ImageStats struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// MergeImages appends every add image that is not structurally identical to
// an image already in unified. Ids are not renumbered and id collisions
// between distinct records are not detected.
func MergeImages(unified, add *coco.Document) (ImageStats, error) {
	var stats ImageStats

	present := make(map[string]struct{}, len(unified.Images)+len(add.Images))
	for i, im := range unified.Images {
		key, err := im.Key()
		if err != nil {
			return stats, fmt.Errorf("unified images[%d]: %w", i, err)
		}
		present[key] = struct{}{}
	}

	for i, im := range add.Images {
		key, err := im.Key()
		if err != nil {
			return stats, fmt.Errorf("add images[%d]: %w", i, err)
		}
		if _, ok := present[key]; ok {
			stats.Skipped++
			continue
		}
		present[key] = struct{}{}
		unified.Images = append(unified.Images, im.Clone())
		stats.Added++
	}
	return stats, nil
}
