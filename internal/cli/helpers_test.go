package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testBaseJSON = `{
	"info": {"version": "1.0"},
	"images": [{"id": 1, "file_name": "a.jpg"}],
	"categories": [{"id": 1, "name": "cat"}],
	"annotations": [{"id": 1, "image_id": 1, "category_id": 1}]
}`

const testAddJSON = `{
	"images": [{"id": 10, "file_name": "b.jpg"}],
	"categories": [{"id": 5, "name": "dog"}],
	"annotations": [{"id": 10, "image_id": 10, "category_id": 5}]
}`

// dataset is an on-disk base/add pair.
type dataset struct {
	dir                        string
	baseJSON, baseImages       string
	addJSON, addImages         string
	unifiedJSON, unifiedImages string
}

func (d dataset) args() []string {
	return []string{
		"--base_json", d.baseJSON,
		"--base_image_path", d.baseImages,
		"--add_json", d.addJSON,
		"--add_image_path", d.addImages,
		"--unified_json_path", d.unifiedJSON,
		"--unified_image_path", d.unifiedImages,
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newDataset writes base and add documents plus their image files.
func newDataset(t *testing.T, base, add string, baseFiles, addFiles []string) dataset {
	t.Helper()
	dir := t.TempDir()
	d := dataset{
		dir:           dir,
		baseJSON:      filepath.Join(dir, "base", "annotations", "base.json"),
		baseImages:    filepath.Join(dir, "base", "images"),
		addJSON:       filepath.Join(dir, "add", "annotations", "add.json"),
		addImages:     filepath.Join(dir, "add", "images"),
		unifiedJSON:   filepath.Join(dir, "merged", "annotations", "merged.json"),
		unifiedImages: filepath.Join(dir, "merged", "images"),
	}
	writeTestFile(t, d.baseJSON, base)
	writeTestFile(t, d.addJSON, add)
	require.NoError(t, os.MkdirAll(d.baseImages, 0o755))
	require.NoError(t, os.MkdirAll(d.addImages, 0o755))
	for _, name := range baseFiles {
		writeTestFile(t, filepath.Join(d.baseImages, name), "base:"+name)
	}
	for _, name := range addFiles {
		writeTestFile(t, filepath.Join(d.addImages, name), "add:"+name)
	}
	return d
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
