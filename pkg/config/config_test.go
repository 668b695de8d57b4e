package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"input": {"jobs_csv": "jobs.csv"},
		"strategies": ["lpt", "round-robin"],
		"rounds": {"cron": "@every 30s", "continue_load": true},
		"metrics": {"addr": ":2112"}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "jobs.csv", cfg.Input.JobsCSV)
	assert.Equal(t, []string{"lpt", "round-robin"}, cfg.Strategies)
	assert.True(t, cfg.Rounds.ContinueLoad)
	assert.Equal(t, ":2112", cfg.Metrics.Addr)
	// untouched sections keep their defaults
	assert.Equal(t, 2, cfg.Generate.Resources)
	assert.Equal(t, "results", cfg.Output.ResultsDir)
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":    `{"nope": 1}`,
		"unknown strategy": `{"strategies": ["min-min"]}`,
		"no strategies":    `{"strategies": []}`,
		"bad cron":         `{"rounds": {"cron": "every tuesday"}}`,
		"no resources":     `{"generate": {"resources": 0, "max_length": 10}}`,
		"bucket only":      `{"input": {"gcs_bucket": "b"}}`,
		"not json":         `{`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
