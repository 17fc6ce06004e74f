package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore opens a fresh file-backed ledger in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun builds a successful run with fixed timestamps.
func createTestRun(id string, started time.Time) Run {
	return Run{
		ID:               id,
		StartedAt:        started,
		FinishedAt:       started.Add(1500 * time.Millisecond),
		Status:           StatusOK,
		BaseJSON:         "base/annotations.json",
		BaseImagePath:    "base/images",
		AddJSON:          "add/annotations.json",
		AddImagePath:     "add/images",
		UnifiedJSON:      "merged/annotations.json",
		UnifiedImagePath: "merged/images",
		RemapPolicy:      "new",
		ImagesAdded:      1,
		CategoriesAdded:  1,
		AnnotationsAdded: 1,
		FilesCopied:      2,
	}
}
