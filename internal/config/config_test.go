package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  name: stratlab-test
model:
  seed: 7
  num_trees: 50
split:
  train_fraction: 0.8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "stratlab-test", cfg.App.Name)
	assert.Equal(t, int64(7), cfg.Model.Seed)
	assert.Equal(t, 50, cfg.Model.NumTrees)
	assert.Equal(t, 0.8, cfg.Split.TrainFraction)
	// untouched defaults survive
	assert.Equal(t, 30, cfg.Labeler.MinSamples)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("STRATLAB_ENV", "staging")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "app:\n  env: ${STRATLAB_ENV}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.App.Env)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"train_fraction_one", func(c *Config) { c.Split.TrainFraction = 1.0 }},
		{"zero_trees", func(c *Config) { c.Model.NumTrees = 0 }},
		{"negative_equity", func(c *Config) { c.Sim.InitialEquity = -1 }},
		{"learning_rate_above_one", func(c *Config) { c.Model.LearningRate = 1.5 }},
		{"zero_gap_tolerance", func(c *Config) { c.Data.MaxGapIntervals = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
