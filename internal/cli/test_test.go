package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

func TestTestCommandMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	stdout, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeNotFound)
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeNoScenarios)
}

func TestTestCommandRunsCheckedInScenarios(t *testing.T) {
	stdout, _, err := execute(t, "test", harnessScenarios)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "✓ round_trip")
	assert.Contains(t, stdout, "✓ missing_image")
	assert.Contains(t, stdout, "0 failed")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommandFilterJSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "test", harnessScenarios, "--filter", "overlapping_*")
	require.NoError(t, err, stdout)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	for _, s := range resp.Data.Scenarios {
		assert.True(t, s.Pass, s.Name)
	}
}

func TestTestCommandUpdateWritesGoldenFiles(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden")

	stdout, _, err := execute(t, "test", harnessScenarios, "--filter", "round_trip", "--golden", golden, "--update")
	require.NoError(t, err, stdout)

	written, err := os.ReadFile(filepath.Join(golden, "round_trip.golden"))
	require.NoError(t, err)
	checkedIn, err := os.ReadFile("../harness/testdata/golden/round_trip.golden")
	require.NoError(t, err)
	assert.Equal(t, string(checkedIn), string(written))
}

func TestTestCommandMissingGoldenFails(t *testing.T) {
	golden := t.TempDir()

	stdout, _, err := execute(t, "test", harnessScenarios, "--filter", "round_trip", "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ round_trip")
	assert.Contains(t, stdout, "does not exist")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenarios := filepath.Join(dir, "scenarios")
	writeTestFile(t, filepath.Join(scenarios, "wrong_expectation.yaml"), `name: wrong_expectation
description: "Expects failure from a merge that succeeds"
base:
  document:
    images: []
    categories: []
    annotations: []
add:
  document:
    images: []
    categories: []
    annotations: []
expect:
  status: failed
  stage: check
`)

	stdout, _, err := execute(t, "--format", "json", "test", scenarios, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenarioFail, resp.Error.Code)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandInvalidScenarioFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "broken.yaml"), "name: broken\nunknown_field: 1\n")

	stdout, _, err := execute(t, "test", dir, "--golden", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken.yaml")
}
