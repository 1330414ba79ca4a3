package render

import theme "github.com/goliatone/go-theme"

// Options describe per-export presentation settings that renderers may honour.
type Options struct {
	// Stylesheet replaces the default CSS of markup-based formats.
	Stylesheet string
	// HighlightUnresolved marks unresolved placeholders visually in formats
	// that support styling.
	HighlightUnresolved bool
	// Author is written into document metadata where the format has a slot
	// for it.
	Author string
	// Landscape switches paged formats to landscape orientation.
	Landscape bool
	// Theme carries the resolved go-theme selection: tokens exposed as CSS
	// variables, partial overrides and the asset resolver.
	Theme *theme.RendererConfig
}
