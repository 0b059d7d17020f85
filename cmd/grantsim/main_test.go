package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioDir = filepath.Join("..", "..", "support", "scenario", "testdata")

func execute(t *testing.T, args ...string) (string, error) {
	cmd, err := newRootCommand()
	require.NoError(t, err)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd, err := newRootCommand()
	require.NoError(t, err)
	for _, name := range []string{"run", "check"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
	assert.Equal(t, "100", cmd.PersistentFlags().Lookup("supply").DefValue)
}

func TestEnvironmentDefaults(t *testing.T) {
	t.Setenv("GRANTSIM_FORMAT", "json")
	t.Setenv("GRANTSIM_INITIAL_SUPPLY", "5000")
	t.Setenv("GRANTSIM_LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "5000", cfg.InitialSupply)
	assert.Equal(t, "debug", cfg.LogLevel)

	cmd, err := newRootCommand()
	require.NoError(t, err)
	assert.Equal(t, "json", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestRunPassingScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	out, err := execute(t, append([]string{"run"}, paths...)...)
	require.NoError(t, err)
	assert.Equal(t, exitSuccess, exitCode(err))
	assert.Contains(t, out, "PASS revocable grant")
	assert.Contains(t, out, "PASS burnable grant")
	assert.NotContains(t, out, "FAIL")
}

func TestRunJSON(t *testing.T) {
	out, err := execute(t, "run", "--format", "json", filepath.Join(scenarioDir, "burnable_grant.yaml"))
	require.NoError(t, err)

	var results []struct {
		Name     string        `json:"name"`
		Steps    int           `json:"steps"`
		Failures []interface{} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "burnable grant", results[0].Name)
	assert.Equal(t, 4, results[0].Steps)
	assert.Empty(t, results[0].Failures)
}

func TestRunFailingScenario(t *testing.T) {
	path := writeScenario(t, `
name: wrong expectation
accounts: [granter, holder]
steps:
  - transfer: {from: granter, to: holder, value: 10}
    expect:
      balance: {holder: 9}
`)
	out, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err))
	assert.Contains(t, out, "FAIL wrong expectation")
	assert.Contains(t, out, "balance of holder: expected 9, got 10")
}

func TestSupplyFlag(t *testing.T) {
	path := writeScenario(t, `
name: supply
accounts: [granter]
steps:
  - expect: {balance: {granter: 7}}
`)
	_, err := execute(t, "run", "--supply", "7", path)
	require.NoError(t, err)

	_, err = execute(t, "run", "--supply", "seven", path)
	assert.Equal(t, exitCommandError, exitCode(err))
}

func TestCommandErrors(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, exitCommandError, exitCode(err))

	_, err = execute(t, "check", writeScenario(t, "name: broken\n"))
	assert.Equal(t, exitCommandError, exitCode(err))

	_, err = execute(t, "run", "--format", "xml", filepath.Join(scenarioDir, "burnable_grant.yaml"))
	assert.Equal(t, exitCommandError, exitCode(err))

	_, err = execute(t, "run", "--log-level", "loud", filepath.Join(scenarioDir, "burnable_grant.yaml"))
	assert.Equal(t, exitCommandError, exitCode(err))

	_, err = execute(t, "run")
	assert.Equal(t, exitCommandError, exitCode(err))
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", filepath.Join(scenarioDir, "non_revocable_grant.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, `"non-revocable grant", 3 steps`)
}

func writeScenario(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
