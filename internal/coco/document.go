package coco

import (
	"encoding/json"
)

// Container member names of a COCO document.
const (
	KeyImages      = "images"
	KeyCategories  = "categories"
	KeyAnnotations = "annotations"
)

// Document is a COCO annotation document.
//
// Members other than the three containers (info, licenses, ...) are kept in
// source order and written back unchanged.
type Document struct {
	Images      []Image
	Categories  []Category
	Annotations []Annotation
	fields      Fields
}

// Get returns a top-level member other than the three containers.
func (d *Document) Get(key string) (json.RawMessage, bool) {
	switch key {
	case KeyImages, KeyCategories, KeyAnnotations:
		return nil, false
	}
	return d.fields.Get(key)
}

// Set stores a top-level pass-through member.
func (d *Document) Set(key string, v any) error {
	return d.fields.SetValue(key, v)
}

// Clone returns a deep copy. The unified document of a merge starts as a
// clone of the base document.
func (d *Document) Clone() *Document {
	out := &Document{
		Images:      make([]Image, len(d.Images)),
		Categories:  make([]Category, len(d.Categories)),
		Annotations: make([]Annotation, len(d.Annotations)),
		fields:      d.fields.Clone(),
	}
	for i, im := range d.Images {
		out.Images[i] = im.Clone()
	}
	for i, c := range d.Categories {
		out.Categories[i] = c.Clone()
	}
	for i, a := range d.Annotations {
		out.Annotations[i] = a.Clone()
	}
	return out
}

// FileNames returns the file_name of every image, in document order.
func (d *Document) FileNames() []string {
	names := make([]string, len(d.Images))
	for i, im := range d.Images {
		names[i] = im.FileName
	}
	return names
}

// MaxCategoryID returns the largest category id, or 0 for an empty container.
func (d *Document) MaxCategoryID() int64 {
	var maxID int64
	for i, c := range d.Categories {
		if i == 0 || c.ID > maxID {
			maxID = c.ID
		}
	}
	if maxID < 0 {
		return 0
	}
	return maxID
}

// CategoryNames returns the set of category names.
func (d *Document) CategoryNames() map[string]struct{} {
	names := make(map[string]struct{}, len(d.Categories))
	for _, c := range d.Categories {
		names[c.Name] = struct{}{}
	}
	return names
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return &DecodeError{Index: -1, Err: err}
	}

	images, err := decodeContainer[Image](f, KeyImages)
	if err != nil {
		return err
	}
	categories, err := decodeContainer[Category](f, KeyCategories)
	if err != nil {
		return err
	}
	annotations, err := decodeContainer[Annotation](f, KeyAnnotations)
	if err != nil {
		return err
	}

	// The containers are re-encoded from the typed slices on marshal; keep
	// only their position.
	for _, key := range []string{KeyImages, KeyCategories, KeyAnnotations} {
		f.Set(key, json.RawMessage("[]"))
	}

	*d = Document{
		Images:      images,
		Categories:  categories,
		Annotations: annotations,
		fields:      f,
	}
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	f := d.fields.Clone()
	for _, c := range []struct {
		key  string
		list any
	}{
		{KeyImages, nonNil(d.Images)},
		{KeyCategories, nonNil(d.Categories)},
		{KeyAnnotations, nonNil(d.Annotations)},
	} {
		raw, err := json.Marshal(c.list)
		if err != nil {
			return nil, err
		}
		f.Set(c.key, raw)
	}
	return f.MarshalJSON()
}

func decodeContainer[T any](f Fields, key string) ([]T, error) {
	raw, ok := f.Get(key)
	if !ok {
		return nil, &DecodeError{Container: key, Index: -1, Err: &MemberError{Member: key, Reason: "missing"}}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &DecodeError{Container: key, Index: -1, Err: err}
	}
	out := make([]T, len(elems))
	for i, elem := range elems {
		if err := json.Unmarshal(elem, &out[i]); err != nil {
			return nil, &DecodeError{Container: key, Index: i, Err: err}
		}
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
