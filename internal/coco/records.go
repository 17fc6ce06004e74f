package coco

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Image is an entry of the images container.
type Image struct {
	ID       int64
	FileName string
	fields   Fields
}

// NewImage builds an image record with only id and file_name set.
func NewImage(id int64, fileName string) Image {
	return Image{ID: id, FileName: fileName}
}

// Get returns the raw value of any member, including pass-through ones.
func (im Image) Get(key string) (json.RawMessage, bool) {
	switch key {
	case "id":
		return intRaw(im.fields, "id", im.ID), true
	case "file_name":
		return stringRaw(im.fields, "file_name", im.FileName), true
	}
	return im.fields.Get(key)
}

// Set stores a pass-through member.
func (im *Image) Set(key string, v any) error {
	return im.fields.SetValue(key, v)
}

// Clone returns a deep copy.
func (im Image) Clone() Image {
	im.fields = im.fields.Clone()
	return im
}

// Equal reports whether both records are structurally identical.
func (im Image) Equal(other Image) bool {
	a, err := im.Key()
	if err != nil {
		return false
	}
	b, err := other.Key()
	if err != nil {
		return false
	}
	return a == b
}

// Key returns the canonical JSON encoding of the full record.
func (im Image) Key() (string, error) {
	raw, err := im.MarshalJSON()
	if err != nil {
		return "", err
	}
	c, err := Canonical(raw)
	if err != nil {
		return "", err
	}
	return string(c), nil
}

func (im *Image) UnmarshalJSON(data []byte) error {
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	id, err := intMember(f, "id")
	if err != nil {
		return err
	}
	name, err := stringMember(f, "file_name")
	if err != nil {
		return err
	}
	*im = Image{ID: id, FileName: name, fields: f}
	return nil
}

func (im Image) MarshalJSON() ([]byte, error) {
	f := im.fields.Clone()
	f.Set("id", intRaw(im.fields, "id", im.ID))
	f.Set("file_name", stringRaw(im.fields, "file_name", im.FileName))
	return f.MarshalJSON()
}

// Category is an entry of the categories container.
type Category struct {
	ID     int64
	Name   string
	fields Fields
}

// NewCategory builds a category record with only id and name set.
func NewCategory(id int64, name string) Category {
	return Category{ID: id, Name: name}
}

// Get returns the raw value of any member, including pass-through ones.
func (c Category) Get(key string) (json.RawMessage, bool) {
	switch key {
	case "id":
		return intRaw(c.fields, "id", c.ID), true
	case "name":
		return stringRaw(c.fields, "name", c.Name), true
	}
	return c.fields.Get(key)
}

// Set stores a pass-through member.
func (c *Category) Set(key string, v any) error {
	return c.fields.SetValue(key, v)
}

// Clone returns a deep copy.
func (c Category) Clone() Category {
	c.fields = c.fields.Clone()
	return c
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	id, err := intMember(f, "id")
	if err != nil {
		return err
	}
	name, err := stringMember(f, "name")
	if err != nil {
		return err
	}
	*c = Category{ID: id, Name: name, fields: f}
	return nil
}

func (c Category) MarshalJSON() ([]byte, error) {
	f := c.fields.Clone()
	f.Set("id", intRaw(c.fields, "id", c.ID))
	f.Set("name", stringRaw(c.fields, "name", c.Name))
	return f.MarshalJSON()
}

// Annotation is an entry of the annotations container. Only the category
// reference is interpreted; bbox, segmentation, area and the rest pass through.
type Annotation struct {
	CategoryID int64
	fields     Fields
}

// NewAnnotation builds an annotation with id, image_id and category_id set.
func NewAnnotation(id, imageID, categoryID int64) Annotation {
	a := Annotation{CategoryID: categoryID}
	a.fields.Set("id", mustMarshal(id))
	a.fields.Set("image_id", mustMarshal(imageID))
	return a
}

// ID returns the annotation id when present.
func (a Annotation) ID() (int64, bool) {
	id, err := intMember(a.fields, "id")
	return id, err == nil
}

// ImageID returns the image reference when present.
func (a Annotation) ImageID() (int64, bool) {
	id, err := intMember(a.fields, "image_id")
	return id, err == nil
}

// Get returns the raw value of any member, including pass-through ones.
func (a Annotation) Get(key string) (json.RawMessage, bool) {
	if key == "category_id" {
		return intRaw(a.fields, "category_id", a.CategoryID), true
	}
	return a.fields.Get(key)
}

// Set stores a pass-through member.
func (a *Annotation) Set(key string, v any) error {
	return a.fields.SetValue(key, v)
}

// Clone returns a deep copy.
func (a Annotation) Clone() Annotation {
	a.fields = a.fields.Clone()
	return a
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	cat, err := intMember(f, "category_id")
	if err != nil {
		return err
	}
	*a = Annotation{CategoryID: cat, fields: f}
	return nil
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	f := a.fields.Clone()
	f.Set("category_id", intRaw(a.fields, "category_id", a.CategoryID))
	return f.MarshalJSON()
}

func intMember(f Fields, key string) (int64, error) {
	raw, ok := f.Get(key)
	if !ok {
		return 0, &MemberError{Member: key, Reason: "missing"}
	}
	// json.Number also accepts a quoted numeral.
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		return 0, &MemberError{Member: key, Reason: fmt.Sprintf("not a number: %s", raw)}
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, &MemberError{Member: key, Reason: fmt.Sprintf("not a number: %s", raw)}
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return i, nil
	}
	fl, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || fl != math.Trunc(fl) || math.Abs(fl) >= 1<<63 {
		return 0, &MemberError{Member: key, Reason: fmt.Sprintf("not an integer: %s", n)}
	}
	return int64(fl), nil
}

func stringMember(f Fields, key string) (string, error) {
	raw, ok := f.Get(key)
	if !ok {
		return "", &MemberError{Member: key, Reason: "missing"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &MemberError{Member: key, Reason: fmt.Sprintf("not a string: %s", raw)}
	}
	return s, nil
}

// intRaw returns the stored text of key while it still decodes to v, so an id
// written as 1.0 or 1e2 is emitted as read. A changed value is re-encoded.
func intRaw(f Fields, key string, v int64) json.RawMessage {
	if raw, ok := f.Get(key); ok {
		if cur, err := intMember(f, key); err == nil && cur == v {
			return raw
		}
	}
	return mustMarshal(v)
}

func stringRaw(f Fields, key, v string) json.RawMessage {
	if raw, ok := f.Get(key); ok {
		if cur, err := stringMember(f, key); err == nil && cur == v {
			return raw
		}
	}
	return mustMarshal(v)
}

// mustMarshal encodes values that cannot fail to marshal (ints, strings).
func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("coco: marshal %T: %v", v, err))
	}
	return raw
}
