package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailward/mailward"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Validation.TimeoutSeconds)
	assert.True(t, cfg.Validation.CheckSMTP)
	assert.False(t, cfg.Validation.AcceptCatchAll)
	assert.Equal(t, "strict", cfg.Validation.Mode)
	assert.Equal(t, 1, cfg.Batch.Concurrency)
	assert.Equal(t, 1000, cfg.Batch.CheckpointEvery)
	assert.Equal(t, "results.csv", cfg.Batch.OutputFile)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
validation:
  timeout_seconds: 5
  check_smtp: false
  mode: lenient
batch:
  max_emails: 100
  concurrency: 4
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Validation.TimeoutSeconds)
	assert.False(t, cfg.Validation.CheckSMTP)
	assert.Equal(t, "lenient", cfg.Validation.Mode)
	assert.Equal(t, 100, cfg.Batch.MaxEmails)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestOptionsConversion(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	opts := cfg.Options()
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.Equal(t, mailward.ModeStrict, opts.Mode)
	assert.False(t, opts.DisableSMTP)
	assert.Equal(t, 1, opts.Concurrency)
}
