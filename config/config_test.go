package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
ai:
  model: some/other-model
  request_timeout: 30s
pipeline:
  acceptance_threshold: 0.8
  max_retries: 5
  backoff_base: 250ms
output_dir: /tmp/sessions
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "some/other-model", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.RequestTimeout)
	assert.Equal(t, 0.8, cfg.Pipeline.AcceptanceThreshold)
	assert.Equal(t, 5, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.BackoffBase)
	// Untouched fields keep their defaults.
	assert.Equal(t, Default().Pipeline.BackoffCap, cfg.Pipeline.BackoffCap)
	assert.Equal(t, "/tmp/sessions", cfg.OutputDir)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("INKFORGE_API_KEY", "sk-env")
	t.Setenv("INKFORGE_MODEL", "env/model")
	t.Setenv("INKFORGE_ACCEPTANCE_THRESHOLD", "0.75")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.AI.APIKey)
	assert.Equal(t, "env/model", cfg.AI.Model)
	assert.Equal(t, 0.75, cfg.Pipeline.AcceptanceThreshold)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.Pipeline.AcceptanceThreshold = 1.5 }},
		{"negative retries", func(c *Config) { c.Pipeline.MaxRetries = -1 }},
		{"negative transient limit", func(c *Config) { c.Pipeline.TransientFailLimit = -1 }},
		{"zero backoff base", func(c *Config) { c.Pipeline.BackoffBase = 0 }},
		{"cap below base", func(c *Config) { c.Pipeline.BackoffCap = time.Millisecond }},
		{"empty model", func(c *Config) { c.AI.Model = "" }},
		{"temperature out of range", func(c *Config) { c.AI.Temperature = 2.5 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
