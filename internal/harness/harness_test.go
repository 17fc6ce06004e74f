package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cocomerge/internal/store"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
	require.NoError(t, err)
	return s
}

// TestScenarios runs every scenario under testdata/scenarios and compares
// its snapshot with testdata/golden.
func TestScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)

	for _, f := range files {
		scenario, err := LoadScenario(f)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_RoundTripReport(t *testing.T) {
	result, err := Run(loadTestScenario(t, "round_trip"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	rep := result.Report
	assert.Equal(t, "round_trip-0001", rep.RunID)
	assert.Equal(t, store.StatusOK, rep.Status)
	assert.Equal(t, 2, rep.Files.Copied)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, result.Snapshot.Files)
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadTestScenario(t, "dedup_and_collision")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalSnapshot(first.Snapshot)
	require.NoError(t, err)
	b, err := MarshalSnapshot(second.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, []string{"a.jpg"}, first.Report.Files.Collisions)
}

func TestRun_ReportsUnexpectedOutcome(t *testing.T) {
	scenario := loadTestScenario(t, "missing_image")
	scenario.Expect = Expectation{Status: "ok"}

	result, err := Run(scenario)
	require.NoError(t, err, "a failing merge is a result, not an error")
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], `expect.status: expected "ok", got "failed"`)
}

func TestRun_ReportsWrongStageAndCode(t *testing.T) {
	scenario := loadTestScenario(t, "overlapping_category_new")
	scenario.Expect.Stage = "check"
	scenario.Expect.ErrorCode = "DATA_INTEGRITY"
	scenario.Expect.ErrorContains = "nowhere"

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 3)
}

func TestRun_FailingAssertions(t *testing.T) {
	scenario := loadTestScenario(t, "round_trip")
	id := int64(99)
	scenario.Assertions = []Assertion{
		{Type: AssertCategory, Name: "dog", ID: &id},
		{Type: AssertCount, Container: "annotations", Count: 5},
		{Type: AssertImageFile, File: "a.jpg", Source: "add"},
		{Type: AssertNoOutput},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 4)
}
