package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSnapshot_OmitsUnifiedOnFailure(t *testing.T) {
	data, err := MarshalSnapshot(Snapshot{ScenarioName: "x", Status: "failed", FailedStage: "check"})
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"failed_stage": "check"`)
	assert.NotContains(t, s, `"unified"`)
	assert.True(t, s[len(s)-1] == '\n')
}

func TestCompareGolden(t *testing.T) {
	result, err := Run(loadTestScenario(t, "round_trip"))
	require.NoError(t, err)

	dir := t.TempDir()

	msg, err := CompareGolden(dir, "round_trip", result, false)
	require.NoError(t, err)
	assert.Contains(t, msg, "does not exist")

	msg, err = CompareGolden(dir, "round_trip", result, true)
	require.NoError(t, err)
	assert.Empty(t, msg)

	msg, err = CompareGolden(dir, "round_trip", result, false)
	require.NoError(t, err)
	assert.Empty(t, msg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "round_trip.golden"), []byte("{}\n"), 0o644))
	msg, err = CompareGolden(dir, "round_trip", result, false)
	require.NoError(t, err)
	assert.Contains(t, msg, "differs")
}

func TestCompareGolden_MatchesCheckedInFiles(t *testing.T) {
	result, err := Run(loadTestScenario(t, "missing_image"))
	require.NoError(t, err)

	msg, err := CompareGolden("testdata/golden", "missing_image", result, false)
	require.NoError(t, err)
	assert.Empty(t, msg)
}
