package config

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradebook/internal/modules/settings"
)

const testSchema = `
CREATE TABLE settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    description TEXT,
    updated_at INTEGER NOT NULL
);
`

func setupSettingsRepo(t *testing.T) *settings.Repository {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return settings.NewRepository(db, zerolog.Nop())
}

func TestConfig_UpdateFromSettings_StoredValuesTakePrecedence(t *testing.T) {
	repo := setupSettingsRepo(t)
	require.NoError(t, repo.Set("log_level", "debug", nil))
	require.NoError(t, repo.Set("port", "9100", nil))

	cfg := &Config{LogLevel: "info", Port: 8001}
	require.NoError(t, cfg.UpdateFromSettings(repo))

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9100, cfg.Port)
}

func TestConfig_UpdateFromSettings_MissingKeysKeepLoadedValues(t *testing.T) {
	repo := setupSettingsRepo(t)

	cfg := &Config{LogLevel: "warn", Port: 8001}
	require.NoError(t, cfg.UpdateFromSettings(repo))

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 8001, cfg.Port)
}

func TestConfig_UpdateFromSettings_EmptyLogLevelIgnored(t *testing.T) {
	repo := setupSettingsRepo(t)
	require.NoError(t, repo.Set("log_level", "", nil))

	cfg := &Config{LogLevel: "info", Port: 8001}
	require.NoError(t, cfg.UpdateFromSettings(repo))

	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConfig_UpdateFromSettings_NonNumericPortIgnored(t *testing.T) {
	repo := setupSettingsRepo(t)
	require.NoError(t, repo.Set("port", "not-a-port", nil))

	cfg := &Config{LogLevel: "info", Port: 8001}
	require.NoError(t, cfg.UpdateFromSettings(repo))

	assert.Equal(t, 8001, cfg.Port)
}

func TestConfig_UpdateFromSettings_OutOfRangePortIgnored(t *testing.T) {
	repo := setupSettingsRepo(t)
	require.NoError(t, repo.Set("port", "70000", nil))

	cfg := &Config{LogLevel: "info", Port: 8001}
	require.NoError(t, cfg.UpdateFromSettings(repo))

	assert.Equal(t, 8001, cfg.Port)
}
