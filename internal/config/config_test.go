package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "roomscout"
  environment: "test"
backend:
  base_url: "http://localhost:8000"
  legacy_paths: true
telegram:
  bot_token: "test_token"
managers:
  - 100
blacklist:
  - 200
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "roomscout", cfg.App.Name)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.True(t, cfg.Backend.LegacyPaths)
	assert.Equal(t, "test_token", cfg.Telegram.BotToken)

	// Значения по умолчанию
	assert.Equal(t, 10, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, 1800, cfg.Backend.CacheTTL)
	assert.Equal(t, "exports", cfg.Exports.Path)
	assert.Equal(t, "data/history.db", cfg.History.Path)
	assert.Equal(t, 5, cfg.Bot.PaginationSize)
	assert.Equal(t, 20, cfg.Bot.RateLimitMessages)

	assert.True(t, cfg.IsManager(100))
	assert.False(t, cfg.IsManager(101))
	assert.True(t, cfg.IsBlacklisted(200))
	assert.False(t, cfg.IsBlacklisted(100))
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_BACKEND_URL", "http://backend:9000")
	t.Setenv("TEST_BOT_TOKEN", "secret")

	path := writeConfig(t, `
backend:
  base_url: "${TEST_BACKEND_URL}"
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
	assert.Equal(t, "secret", cfg.Telegram.BotToken)
}

func TestValidateRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "test_token"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestValidateRejectsInvalidBaseURL(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: "not a url"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := `
presets:
  - name: "Выходные у моря"
    view: "Sea"
    nights: 2
    max_price: 300
  - name: "Командировка"
    capacity: 1
    hotel_category: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "Выходные у моря", presets[0].Name)
	assert.Equal(t, "Sea", presets[0].View)
	assert.Equal(t, 2, presets[0].Nights)
	assert.Equal(t, 3, presets[1].HotelCategory)
}

func TestLoadPresetsMissingFile(t *testing.T) {
	presets, err := LoadPresets(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Nil(t, presets)
}

func TestLoadPresetsRejectsNameless(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  - capacity: 2\n"), 0o644))

	_, err := LoadPresets(path)
	assert.Error(t, err)
}
