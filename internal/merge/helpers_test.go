package merge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cocomerge/internal/coco"
)

func decodeDoc(t *testing.T, s string) *coco.Document {
	t.Helper()
	doc, err := coco.Decode(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func baseDoc(t *testing.T) *coco.Document {
	return decodeDoc(t, `{
		"info": {"version": "1.0"},
		"images": [{"id": 1, "file_name": "a.jpg"}],
		"categories": [{"id": 1, "name": "cat"}],
		"annotations": [{"id": 1, "image_id": 1, "category_id": 1, "bbox": [1, 2, 3, 4]}]
	}`)
}

func addDoc(t *testing.T) *coco.Document {
	return decodeDoc(t, `{
		"images": [{"id": 10, "file_name": "b.jpg"}],
		"categories": [{"id": 5, "name": "dog"}],
		"annotations": [{"id": 10, "image_id": 10, "category_id": 5, "bbox": [5, 6, 7, 8]}]
	}`)
}

func categoryName(doc *coco.Document, id int64) (string, bool) {
	for _, c := range doc.Categories {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}
