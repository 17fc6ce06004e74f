package merge

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cocomerge/internal/coco"
	"github.com/roach88/cocomerge/internal/imagedir"
)

// CheckImageFiles verifies declared ⊆ present. Unreferenced files in present
// are allowed. Names are compared in Unicode NFC so decomposed names returned
// by some filesystems match composed names in JSON.
func CheckImageFiles(declared, present []string) error {
	have := make(map[string]struct{}, len(present))
	for _, name := range present {
		have[norm.NFC.String(name)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var missing []string
	for _, name := range declared {
		if _, ok := have[norm.NFC.String(name)]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &DataIntegrityError{Missing: missing}
}

// CheckImageDir checks doc's image file names against the contents of dir.
func CheckImageDir(doc *coco.Document, dir string) error {
	present, err := imagedir.List(dir)
	if err != nil {
		return err
	}
	if err := CheckImageFiles(doc.FileNames(), present); err != nil {
		if die, ok := err.(*DataIntegrityError); ok {
			die.Dir = dir
		}
		return err
	}
	return nil
}

// CheckReferences verifies that category ids are unique and that every
// annotation's category reference resolves inside doc.
func CheckReferences(doc *coco.Document) error {
	ids := make(map[int64]int, len(doc.Categories))
	var dups []int64
	for _, c := range doc.Categories {
		ids[c.ID]++
		if ids[c.ID] == 2 {
			dups = append(dups, c.ID)
		}
	}

	var dangling []DanglingReference
	for i, a := range doc.Annotations {
		if _, ok := ids[a.CategoryID]; !ok {
			dangling = append(dangling, DanglingReference{AnnotationIndex: i, CategoryID: a.CategoryID})
		}
	}

	if len(dups) == 0 && len(dangling) == 0 {
		return nil
	}
	return &ReferenceError{DuplicateCategoryIDs: dups, Dangling: dangling}
}
