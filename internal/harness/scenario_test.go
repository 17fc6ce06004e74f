package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalScenario = `
name: minimal
description: "smallest valid scenario"
base:
  document: {images: [], categories: [], annotations: []}
add:
  document: {images: [], categories: [], annotations: []}
expect:
  status: ok
`

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "ok", s.Expect.Status)
	assert.Empty(t, s.Remap)
	assert.Contains(t, s.Base.Document, "images")
}

func TestLoadScenario_TestdataScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		s, err := LoadScenario(f)
		require.NoError(t, err, f)
		assert.Equal(t, s.Name+".yaml", filepath.Base(f), "scenario name must match its file name")
	}
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, minimalScenario+"assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nbase: {document: {}}\nadd: {document: {}}\nexpect: {status: ok}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nbase: {document: {}}\nadd: {document: {}}\nexpect: {status: ok}\n",
			wantErr: "description is required",
		},
		{
			name:    "missing add document",
			yaml:    "name: n\ndescription: d\nbase: {document: {}}\nexpect: {status: ok}\n",
			wantErr: "add.document is required",
		},
		{
			name:    "bad remap",
			yaml:    "name: n\ndescription: d\nremap: some\nbase: {document: {}}\nadd: {document: {}}\nexpect: {status: ok}\n",
			wantErr: "remap must be",
		},
		{
			name:    "missing status",
			yaml:    "name: n\ndescription: d\nbase: {document: {}}\nadd: {document: {}}\n",
			wantErr: "expect.status is required",
		},
		{
			name:    "failed without stage",
			yaml:    "name: n\ndescription: d\nbase: {document: {}}\nadd: {document: {}}\nexpect: {status: failed}\n",
			wantErr: "expect.stage is required",
		},
		{
			name:    "stage on success",
			yaml:    "name: n\ndescription: d\nbase: {document: {}}\nadd: {document: {}}\nexpect: {status: ok, stage: check}\n",
			wantErr: "failed runs only",
		},
		{
			name:    "category without id",
			yaml:    minimalScenario + "assertions:\n  - {type: category, name: cat}\n",
			wantErr: "assertions[0]: name and id are required",
		},
		{
			name:    "count bad container",
			yaml:    minimalScenario + "assertions:\n  - {type: count, container: info, count: 1}\n",
			wantErr: "assertions[0]: container must be",
		},
		{
			name:    "unknown assertion",
			yaml:    minimalScenario + "assertions:\n  - {type: trace_order}\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "image_file bad source",
			yaml:    minimalScenario + "assertions:\n  - {type: image_file, file: a.jpg, source: other}\n",
			wantErr: "source must be base or add",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_case.yaml", "a_case.yml", "notes.txt", "sub/c_case.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	files, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_case.yml"),
		filepath.Join(dir, "b_case.yaml"),
		filepath.Join(dir, "sub", "c_case.yaml"),
	}, files)

	files, err = FindScenarios(dir, "b_*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b_case.yaml")}, files)

	_, err = FindScenarios(dir, "zzz*")
	var nse *NoScenariosError
	require.ErrorAs(t, err, &nse)
	assert.Equal(t, "zzz*", nse.Filter)

	_, err = FindScenarios(dir, "[")
	assert.ErrorContains(t, err, "invalid filter pattern")

	_, err = FindScenarios(filepath.Join(dir, "absent"), "")
	assert.Error(t, err)
}
