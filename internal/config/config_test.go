package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 3, cfg.ResearchWorkers)
	assert.Equal(t, 2, cfg.StageMaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.StageCallTimeout)
	assert.Equal(t, 30*time.Minute, cfg.RunTTL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RESEARCH_WORKERS", "5")
	t.Setenv("STAGE_MAX_RETRIES", "1")
	t.Setenv("RUN_TTL_MINUTES", "10")
	t.Setenv("DATABASE_URL", "postgres://localhost/roadmaps")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5, cfg.ResearchWorkers)
	assert.Equal(t, 1, cfg.StageMaxRetries)
	assert.Equal(t, 10*time.Minute, cfg.RunTTL)
	assert.Equal(t, "postgres://localhost/roadmaps", cfg.DatabaseURL)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
}

func TestLoadFileThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 7000, "research_workers": 4}`), 0644))

	t.Setenv("PORT", "7001")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Port, "env should override file")
	assert.Equal(t, 4, cfg.ResearchWorkers, "file should override defaults")
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())

	bad := Defaults()
	bad.Port = 0
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.ResearchWorkers = 0
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.StageMaxRetries = -1
	assert.Error(t, bad.Validate())
}
