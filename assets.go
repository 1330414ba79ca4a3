package contractgen

import (
	"io/fs"

	"github.com/goliatone/go-contractgen/pkg/renderers/html"
)

// StylesheetAssetsFS exposes the default document stylesheet so HTML output
// can be restyled or served alongside previews.
//
// Typical mount:
//
//	mux.Handle("/contractgen/",
//	  http.StripPrefix("/contractgen/",
//	    http.FileServerFS(contractgen.StylesheetAssetsFS()),
//	  ),
//	)
func StylesheetAssetsFS() fs.FS {
	return html.AssetsFS()
}
