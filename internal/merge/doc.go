// Package merge combines two COCO documents into one.
//
// Each stage is a function over an explicit accumulator, the unified
// document, which starts as a deep copy of the base document:
//
//	CheckImageFiles   add file names ⊆ add image directory
//	MergeImages       append add images not structurally present already
//	MergeCategories   give add-only category names fresh ids, build the remap table
//	MergeAnnotations  rewrite add category references through the remap table
//
// Merge runs the in-memory stages in order. The add document is never
// mutated.
//
// # Category remapping
//
// New category names are sorted before ids are assigned, so the output is
// reproducible; the first new name receives max(base ids)+1. Under RemapNew
// only newly introduced names enter the remap table, and an add annotation
// whose category name already exists in base fails with a
// CategoryLookupError. RemapAll also maps overlapping names to the base id
// carrying that name.
package merge
