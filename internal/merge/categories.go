package merge

import (
	"fmt"
	"math"
	"sort"

	"github.com/roach88/cocomerge/internal/coco"
)

// RemapPolicy selects which add categories enter the remap table.
type RemapPolicy string

const (
	// RemapNew maps only categories whose name is absent from base.
	RemapNew RemapPolicy = "new"

	// RemapAll additionally maps names present in base to the base id.
	RemapAll RemapPolicy = "all"
)

// ParseRemapPolicy validates a policy name. The empty string means RemapNew.
func ParseRemapPolicy(s string) (RemapPolicy, error) {
	switch RemapPolicy(s) {
	case "", RemapNew:
		return RemapNew, nil
	case RemapAll:
		return RemapAll, nil
	}
	return "", fmt.Errorf("invalid remap policy %q: must be %q or %q", s, RemapNew, RemapAll)
}

// Remap maps add-document category ids to unified category ids.
type Remap map[int64]int64

// RemapEntry describes one row of the remap table.
type RemapEntry struct {
	AddID     int64  `json:"add_id"`
	UnifiedID int64  `json:"unified_id"`
	Name      string `json:"name"`
	New       bool   `json:"new"`
}

// CategoryResult is the outcome of MergeCategories.
type CategoryResult struct {
	Remap   Remap
	Entries []RemapEntry // ordered by AddID
	Added   int
}

// MergeCategories appends a category to unified for every name present in
// add but absent from base. New names are sorted and numbered from
// max(base ids)+1. The appended record is the first add category with that
// name, renumbered; pass-through members such as supercategory are kept.
//
// Every add id carrying a new name maps to that name's new id. Under
// RemapAll, add ids whose name exists in base map to the first base category
// with that name. A CategoryIDOverflowError is returned, and unified left
// untouched, when the new ids would exceed math.MaxInt64.
func MergeCategories(unified, base, add *coco.Document, policy RemapPolicy) (*CategoryResult, error) {
	if _, err := ParseRemapPolicy(string(policy)); err != nil {
		return nil, err
	}

	baseIDs := make(map[string]int64, len(base.Categories))
	for _, c := range base.Categories {
		if _, ok := baseIDs[c.Name]; !ok {
			baseIDs[c.Name] = c.ID
		}
	}

	firstByName := make(map[string]coco.Category)
	var newNames []string
	for _, c := range add.Categories {
		if _, inBase := baseIDs[c.Name]; inBase {
			continue
		}
		if _, ok := firstByName[c.Name]; ok {
			continue
		}
		firstByName[c.Name] = c
		newNames = append(newNames, c.Name)
	}
	sort.Strings(newNames)

	start := base.MaxCategoryID()
	if len(newNames) > 0 && start > math.MaxInt64-int64(len(newNames)) {
		return nil, &CategoryIDOverflowError{MaxBaseID: start, NewNames: newNames}
	}
	newIDs := make(map[string]int64, len(newNames))
	for i, name := range newNames {
		id := start + int64(i) + 1
		newIDs[name] = id

		cat := firstByName[name].Clone()
		cat.ID = id
		unified.Categories = append(unified.Categories, cat)
	}

	result := &CategoryResult{Remap: make(Remap), Added: len(newNames)}
	for _, c := range add.Categories {
		if id, ok := newIDs[c.Name]; ok {
			result.Remap[c.ID] = id
			continue
		}
		if policy == RemapAll {
			result.Remap[c.ID] = baseIDs[c.Name]
		}
	}

	names := make(map[int64]string, len(add.Categories))
	for _, c := range add.Categories {
		names[c.ID] = c.Name
	}
	for addID, unifiedID := range result.Remap {
		_, isNew := newIDs[names[addID]]
		result.Entries = append(result.Entries, RemapEntry{
			AddID:     addID,
			UnifiedID: unifiedID,
			Name:      names[addID],
			New:       isNew,
		})
	}
	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].AddID < result.Entries[j].AddID
	})

	return result, nil
}
