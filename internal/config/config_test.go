package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FRICKD_DATA_DIR", "")
	t.Setenv("FRICKD_SPOOL_DIR", "")
	t.Setenv("FRICKD_TAG_PHRASE", "")
	t.Setenv("FRICKD_ENFORCE_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "spool"), cfg.SpoolDir)
	assert.Empty(t, cfg.TagPhrase)
	assert.Equal(t, 30*time.Second, cfg.EnforceInterval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FRICKD_DATA_DIR", "/tmp/frickd-test")
	t.Setenv("FRICKD_SPOOL_DIR", "/tmp/frickd-spool")
	t.Setenv("FRICKD_TAG_PHRASE", "SECRET")
	t.Setenv("FRICKD_ENFORCE_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/frickd-test", cfg.DataDir)
	assert.Equal(t, "/tmp/frickd-spool", cfg.SpoolDir)
	assert.Equal(t, "SECRET", cfg.TagPhrase)
	assert.Equal(t, 5*time.Second, cfg.EnforceInterval)
}
