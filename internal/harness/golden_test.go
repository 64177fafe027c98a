package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_OutcomeLifecycle(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "outcome_lifecycle.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 14)
}

func TestGolden_RepeatedRunsMatch(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "personalization_refresh.yaml"))
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	snapshot, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)

	dir := t.TempDir()
	g := goldie.New(t, goldie.WithFixtureDir(dir), goldie.WithNameSuffix(".golden"))
	require.NoError(t, g.Update(t, scenario.Name, snapshot))

	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, dir, scenario.Name, second))
}

func TestSnapshot_Canonical(t *testing.T) {
	result := NewResult()
	result.AddInvocationTrace("reading", map[string]any{"profile_id": "ada", "date": "2024-03-10"}, 1)
	result.AddCompletionTrace("reading", CaseNotFound, map[string]any{"kind": CaseNotFound}, 2)

	data, err := Snapshot("tiny", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"tiny","trace":[`+
			`{"action":"reading","args":{"date":"2024-03-10","profile_id":"ada"},"seq":1,"type":"invocation"},`+
			`{"action":"reading","case":"not_found","result":{"kind":"not_found"},"seq":2,"type":"completion"}]}`,
		string(data))
}
