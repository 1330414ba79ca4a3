package html

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

//go:embed themes
var embeddedThemes embed.FS

const (
	// DefaultThemeName is the embedded theme selected when none is named.
	DefaultThemeName = "contractgen"
	// PagePartial is the theme template key that replaces the page template.
	PagePartial = "document.page"
)

// ThemesFS exposes the embedded theme manifests, one directory per theme.
func ThemesFS() fs.FS {
	sub, err := fs.Sub(embeddedThemes, "themes")
	if err != nil {
		return embeddedThemes
	}
	return sub
}

// LoadThemes registers the manifest of every top-level directory of fsys.
func LoadThemes(fsys fs.FS) (*theme.MemoryRegistry, error) {
	if fsys == nil {
		return nil, fmt.Errorf("html: themes fs is nil")
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("html: read themes: %w", err)
	}
	registry := theme.NewRegistry()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := theme.LoadDir(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("html: load theme %q: %w", entry.Name(), err)
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("html: register theme %q: %w", manifest.Name, err)
		}
	}
	if len(registry.List()) == 0 {
		return nil, fmt.Errorf("html: no theme manifests found")
	}
	return registry, nil
}

// DefaultThemeSelector returns a selector over the embedded themes.
func DefaultThemeSelector() (theme.Selector, error) {
	registry, err := LoadThemes(ThemesFS())
	if err != nil {
		return theme.Selector{}, err
	}
	return theme.Selector{Registry: registry, DefaultTheme: DefaultThemeName}, nil
}

// ResolveTheme selects name and variant through selector and returns the
// renderer configuration. A variant the theme does not define is an error.
func ResolveTheme(selector theme.ThemeSelector, name, variant string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, fmt.Errorf("html: theme selector is nil")
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("html: select theme: %w", err)
	}
	if selection.Variant != "" && selection.Manifest != nil {
		if _, ok := selection.Manifest.Variants[selection.Variant]; !ok {
			return nil, fmt.Errorf("html: theme %q has no variant %q", selection.Theme, selection.Variant)
		}
	}
	cfg := selection.RendererTheme(map[string]string{PagePartial: DocumentTemplate})
	return &cfg, nil
}

var cssVarName = regexp.MustCompile(`^--[A-Za-z0-9_-]+$`)

// cssVariables renders theme variables as declarations for a :root rule,
// sorted by name. Entries that could escape the rule are dropped.
func cssVariables(cfg *theme.RendererConfig) string {
	if cfg == nil || len(cfg.CSSVars) == 0 {
		return ""
	}
	names := make([]string, 0, len(cfg.CSSVars))
	for name, value := range cfg.CSSVars {
		if !cssVarName.MatchString(name) || strings.ContainsAny(value, "<>{};") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(cfg.CSSVars[name]))
		b.WriteString("; ")
	}
	return strings.TrimSpace(b.String())
}

func themeAsset(cfg *theme.RendererConfig, key string) string {
	if cfg == nil || cfg.AssetURL == nil {
		return ""
	}
	return cfg.AssetURL(key)
}
