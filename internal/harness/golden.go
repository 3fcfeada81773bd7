package harness

import (
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// Snapshot renders the result's views and live count as canonical JSON
// for golden comparison.
func Snapshot(result *Result) ([]byte, error) {
	return canonicalValue(map[string]any{
		"count":      result.Count,
		"live":       viewValue(result.Live),
		"historical": viewValue(result.Historical),
	})
}

// RunWithGolden executes the scenario against a log in a fresh temp
// directory and compares the snapshot against
// testdata/golden/{scenario.Name}.golden.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	path := filepath.Join(t.TempDir(), scenario.Name+".json")
	result, err := Run(scenario, path)
	require.NoError(t, err)

	snapshot, err := Snapshot(result)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return result
}
