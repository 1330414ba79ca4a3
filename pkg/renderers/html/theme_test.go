package html

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-contractgen/pkg/render"
)

func TestResolveTheme_Embedded(t *testing.T) {
	selector, err := DefaultThemeSelector()
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	cfg, err := ResolveTheme(selector, "", "print")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Theme != DefaultThemeName || cfg.Variant != "print" {
		t.Fatalf("unexpected selection %q/%q", cfg.Theme, cfg.Variant)
	}
	want := map[string]string{
		"--font-body":     `Georgia, "Times New Roman", serif`,
		"--font-size":     "12pt",
		"--ink":           "#000000",
		"--rule":          "#999999",
		"--unresolved":    "#000000",
		"--unresolved-bg": "#e6e6e6",
	}
	if diff := cmp.Diff(want, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if cfg.Partials[PagePartial] != DocumentTemplate {
		t.Fatalf("expected page partial fallback, got %q", cfg.Partials[PagePartial])
	}
}

func TestResolveTheme_Errors(t *testing.T) {
	selector, err := DefaultThemeSelector()
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	if _, err := ResolveTheme(selector, "", "neon"); err == nil || !strings.Contains(err.Error(), `no variant "neon"`) {
		t.Fatalf("expected unknown variant error, got %v", err)
	}
	empty := theme.Selector{Registry: theme.NewRegistry()}
	if _, err := ResolveTheme(empty, "missing", ""); err == nil {
		t.Fatalf("expected missing theme error")
	}
}

func TestLoadThemes(t *testing.T) {
	files := fstest.MapFS{
		"acme/theme.yaml": &fstest.MapFile{Data: []byte("name: acme\nversion: 2.0.0\ntokens:\n  ink: navy\n")},
		"README.md":       &fstest.MapFile{Data: []byte("not a theme")},
	}
	registry, err := LoadThemes(files)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	refs := registry.List()
	if len(refs) != 1 || refs[0].Name != "acme" || refs[0].Version != "2.0.0" {
		t.Fatalf("unexpected themes %+v", refs)
	}

	if _, err := LoadThemes(fstest.MapFS{}); err == nil {
		t.Fatalf("expected an error for an empty themes fs")
	}
	broken := fstest.MapFS{"bad/theme.yaml": &fstest.MapFile{Data: []byte("name: bad\n")}}
	if _, err := LoadThemes(broken); err == nil || !strings.Contains(err.Error(), "version is required") {
		t.Fatalf("expected manifest validation error, got %v", err)
	}
}

func TestRenderer_Theme(t *testing.T) {
	selector, err := DefaultThemeSelector()
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	cfg, err := ResolveTheme(selector, DefaultThemeName, "print")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	r, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := r.Render(context.Background(), sampleDocument(), render.Options{Theme: cfg})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(out)
	for _, want := range []string{
		`:root { --font-body: Georgia, "Times New Roman", serif; --font-size: 12pt; --ink: #000000;`,
		`data-theme="contractgen"`,
		`data-variant="print"`,
		"color: var(--ink, #1a1a1a);",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("expected output to contain %q\n%s", want, page)
		}
	}
}

func TestRenderer_ThemePartialAndAssets(t *testing.T) {
	files := fstest.MapFS{
		"templates/document.html": &fstest.MapFile{Data: []byte("default")},
		"alt.html":                &fstest.MapFile{Data: []byte("{{ logo }}|{{ theme_vars|safe }}")},
	}
	r, err := New(WithTemplatesFS(files))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cfg := &theme.RendererConfig{
		Theme:    "acme",
		Partials: map[string]string{PagePartial: "alt.html"},
		CSSVars: map[string]string{
			"--ink":    "red",
			"--escape": "x;}</style>",
			"bad name": "blue",
		},
		AssetURL: func(key string) string {
			if key == "logo" {
				return "https://cdn.acme.test/logo.png"
			}
			return ""
		},
	}
	out, err := r.Render(context.Background(), sampleDocument(), render.Options{Theme: cfg})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got, want := string(out), "https://cdn.acme.test/logo.png|--ink: red;"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	plain, err := r.Render(context.Background(), sampleDocument(), render.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(plain) != "default" {
		t.Fatalf("expected default page without a theme, got %q", plain)
	}
}
