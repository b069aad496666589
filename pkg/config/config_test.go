package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unowned-ai/diary/pkg/utils"
)

// isolate points the data directory at a temp dir so a real user config is
// never picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	return dir
}

func noEnvFiles() Options { return Options{EnvFiles: []string{}} }

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(New(), noEnvFiles())
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DBPath)
	assert.True(t, cfg.WAL)
	assert.Equal(t, "NORMAL", cfg.Sync)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "No text", cfg.PlaceholderText)
	assert.Equal(t, "Add location", cfg.PlaceholderLocation)
	assert.Equal(t, 320, cfg.DisplayWidth)
	assert.Equal(t, 25.0, cfg.GazetteerRadiusKm)
}

func TestLoad_ConfigFileThenEnvThenFlags(t *testing.T) {
	dir := isolate(t)

	cfgFile := filepath.Join(dir, "diary.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"db: /from/file.db\nsync: full\nlog_level: debug\ndisplay_width: 200\n"), 0o644))

	t.Setenv("DIARY_LOG_LEVEL", "warn")
	t.Setenv("DIARY_DISPLAY_WIDTH", "480")

	v := New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int(KeyDisplayWidth, 0, "")
	require.NoError(t, v.BindPFlag(KeyDisplayWidth, flags.Lookup(KeyDisplayWidth)))
	require.NoError(t, flags.Parse([]string{"--display_width=640"}))

	cfg, err := Load(v, Options{ConfigFile: cfgFile, EnvFiles: []string{}})
	require.NoError(t, err)

	assert.Equal(t, "/from/file.db", cfg.DBPath)
	assert.Equal(t, "FULL", cfg.Sync)
	assert.Equal(t, "warn", cfg.LogLevel, "environment beats config file")
	assert.Equal(t, 640, cfg.DisplayWidth, "flag beats environment")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DIARY_PLACEHOLDER_LOCATION=Somewhere\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("DIARY_PLACEHOLDER_LOCATION") })

	cfg, err := Load(New(), Options{EnvFiles: []string{envFile, filepath.Join(dir, "missing.env")}})
	require.NoError(t, err)
	assert.Equal(t, "Somewhere", cfg.PlaceholderLocation)
}

func TestLoad_ConfigInDataDir(t *testing.T) {
	isolate(t)

	dataDir := utils.DataDir()
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.json"), []byte(`{"log_format": "json"}`), 0o644))

	cfg, err := Load(New(), noEnvFiles())
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(New(), Options{ConfigFile: filepath.Join(dir, "nope.yaml"), EnvFiles: []string{}})
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]struct{ key, value string }{
		"sync":          {"DIARY_SYNC", "SOMETIMES"},
		"log level":     {"DIARY_LOG_LEVEL", "loud"},
		"log format":    {"DIARY_LOG_FORMAT", "xml"},
		"display width": {"DIARY_DISPLAY_WIDTH", "0"},
		"radius":        {"DIARY_GAZETTEER_RADIUS_KM", "-1"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load(New(), noEnvFiles())
			assert.Error(t, err)
		})
	}
}
