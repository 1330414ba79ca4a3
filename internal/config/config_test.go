package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contractgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDSN, EnvLogLevel, EnvBrowserBin, EnvTemplateDir, EnvTheme} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
}

func TestLoad_OverlaysFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
locale: de-DE
currency_symbol: "€"
export:
  default_format: pdf
  timeout: 5s
  landscape: true
pdf:
  browser_bin: /usr/bin/chromium
theme:
  name: contractgen
  variant: print
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "€", cfg.CurrencySymbol)
	assert.Equal(t, "pdf", cfg.Export.DefaultFormat)
	assert.True(t, cfg.Export.HighlightUnresolved, "unset keys keep defaults")
	assert.True(t, cfg.PDF.Headless)
	assert.Equal(t, "/usr/bin/chromium", cfg.PDF.BrowserBin)

	timeout, err := cfg.ExportTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	assert.True(t, cfg.RenderOptions().Landscape)
	assert.Equal(t, ThemeConf{Name: "contractgen", Variant: "print"}, cfg.Theme)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDSN, "postgres://localhost/contracts")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvTemplateDir, "/srv/templates")
	t.Setenv(EnvTheme, "acme")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/contracts", cfg.Storage.DSN)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/srv/templates", cfg.Templates.Dir)
	assert.Equal(t, "acme", cfg.Theme.Name)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"bad yaml":        "locale: [",
		"bad locale":      "locale: not_a_locale!!",
		"bad timeout":     "export:\n  timeout: soon",
		"bad level":       "logging:\n  level: loud",
		"bad marker":      "unresolved_marker: MISSING",
		"unknown driver":  "storage:\n  driver: sqlite",
		"postgres no dsn": "storage:\n  driver: postgres",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestConfig_Marker(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "[[UNRESOLVED:client.name]]", cfg.Marker()("client.name"))

	cfg.UnresolvedMarker = "<<%s>>"
	assert.Equal(t, "<<client.name>>", cfg.Marker()("client.name"))

	cfg.UnresolvedMarker = ""
	assert.Nil(t, cfg.Marker())
}

func TestConfig_Formatter(t *testing.T) {
	formatter, err := Default().Formatter()
	require.NoError(t, err)
	assert.Equal(t, "$1,200.00", formatter.Currency(1200))
}
