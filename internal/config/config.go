// Package config loads contractgen CLI settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/render"
)

// Environment variables that take precedence over the file.
const (
	EnvDSN         = "CONTRACTGEN_DSN"
	EnvLogLevel    = "CONTRACTGEN_LOG_LEVEL"
	EnvBrowserBin  = "CONTRACTGEN_BROWSER_BIN"
	EnvTemplateDir = "CONTRACTGEN_TEMPLATE_DIR"
	EnvTheme       = "CONTRACTGEN_THEME"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is the root settings document.
type Config struct {
	Locale           string        `yaml:"locale"`
	CurrencySymbol   string        `yaml:"currency_symbol"`
	DateLayout       string        `yaml:"date_layout"`
	UnresolvedMarker string        `yaml:"unresolved_marker"`
	Templates        TemplatesConf `yaml:"templates"`
	Export           ExportConf    `yaml:"export"`
	Theme            ThemeConf     `yaml:"theme"`
	PDF              PDFConf       `yaml:"pdf"`
	Storage          StorageConf   `yaml:"storage"`
	Logging          LoggingConf   `yaml:"logging"`
}

// TemplatesConf controls which templates are seeded at startup.
type TemplatesConf struct {
	SeedBuiltins bool   `yaml:"seed_builtins"`
	Dir          string `yaml:"dir"`
}

// ExportConf holds export defaults.
type ExportConf struct {
	DefaultFormat       string `yaml:"default_format"`
	Timeout             string `yaml:"timeout"`
	HighlightUnresolved bool   `yaml:"highlight_unresolved"`
	Author              string `yaml:"author"`
	Landscape           bool   `yaml:"landscape"`
	Stylesheet          string `yaml:"stylesheet"`
}

// ThemeConf selects the theme applied to html and pdf exports. Dir points at
// a directory of theme manifests, one subdirectory per theme; when empty the
// embedded themes are used.
type ThemeConf struct {
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"`
	Dir     string `yaml:"dir"`
}

// PDFConf configures the headless browser used for PDF output.
type PDFConf struct {
	Enabled    bool   `yaml:"enabled"`
	BrowserBin string `yaml:"browser_bin"`
	ControlURL string `yaml:"control_url"`
	Headless   bool   `yaml:"headless"`
}

// StorageConf selects the persistence backend.
type StorageConf struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoggingConf configures the zap logger.
type LoggingConf struct {
	Level string `yaml:"level"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Locale:           "en-US",
		CurrencySymbol:   "$",
		DateLayout:       document.DefaultDateLayout,
		UnresolvedMarker: "[[UNRESOLVED:%s]]",
		Templates: TemplatesConf{
			SeedBuiltins: true,
		},
		Export: ExportConf{
			DefaultFormat:       "html",
			Timeout:             "30s",
			HighlightUnresolved: true,
		},
		PDF: PDFConf{
			Enabled:  true,
			Headless: true,
		},
		Storage: StorageConf{
			Driver: StorageMemory,
		},
		Logging: LoggingConf{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv(EnvDSN); dsn != "" {
		c.Storage.DSN = dsn
		c.Storage.Driver = StoragePostgres
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
	if bin := os.Getenv(EnvBrowserBin); bin != "" {
		c.PDF.BrowserBin = bin
	}
	if dir := os.Getenv(EnvTemplateDir); dir != "" {
		c.Templates.Dir = dir
	}
	if name := os.Getenv(EnvTheme); name != "" {
		c.Theme.Name = name
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := c.Language(); err != nil {
		return err
	}
	if _, err := c.ExportTimeout(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.UnresolvedMarker != "" && strings.Count(c.UnresolvedMarker, "%s") != 1 {
		return fmt.Errorf("config: unresolved_marker must contain exactly one %%s, got %q", c.UnresolvedMarker)
	}
	switch c.Storage.Driver {
	case StorageMemory, "":
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage driver %q requires a dsn", StoragePostgres)
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// Language parses the configured locale.
func (c *Config) Language() (language.Tag, error) {
	if c.Locale == "" {
		return language.AmericanEnglish, nil
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("config: invalid locale %q: %w", c.Locale, err)
	}
	return tag, nil
}

// ExportTimeout returns the per-export timeout. Zero disables it.
func (c *Config) ExportTimeout() (time.Duration, error) {
	if c.Export.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Export.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: invalid export timeout %q: %w", c.Export.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: export timeout must not be negative")
	}
	return d, nil
}

// LogLevel parses the configured zap level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	if c.Logging.Level == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("config: %w", err)
	}
	return level, nil
}

// Formatter builds the document formatter for the configured locale.
func (c *Config) Formatter() (*document.LocaleFormatter, error) {
	tag, err := c.Language()
	if err != nil {
		return nil, err
	}
	return document.NewLocaleFormatter(tag, c.CurrencySymbol, c.DateLayout), nil
}

// Marker returns the unresolved placeholder marker function, or nil to keep
// the generator default.
func (c *Config) Marker() func(fieldID string) string {
	if c.UnresolvedMarker == "" {
		return nil
	}
	format := c.UnresolvedMarker
	return func(fieldID string) string {
		return fmt.Sprintf(format, fieldID)
	}
}

// RenderOptions maps export settings onto renderer options.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Stylesheet:          c.Export.Stylesheet,
		HighlightUnresolved: c.Export.HighlightUnresolved,
		Author:              c.Export.Author,
		Landscape:           c.Export.Landscape,
	}
}
