// Package coco provides the COCO annotation document model used by cocomerge.
//
// A Document holds three ordered containers (images, categories and
// annotations) plus every other top-level member of the source file. Records
// are typed views over an order-preserving JSON object (Fields): the members
// the merge needs (ids, file names, category references) are decoded into Go
// fields and every other member passes through byte-for-byte, in its original
// position.
//
// Record equality (Image.Equal) is structural: two records are equal when
// their canonical JSON encodings match. Canonical encoding sorts object keys by
// UTF-16 code units and prints numerically equal numbers identically, so
// {"id":1,"w":640} and {"w":640.0,"id":1} compare equal.
package coco
