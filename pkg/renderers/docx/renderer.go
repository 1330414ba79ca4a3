// Package docx writes generated contracts as minimal WordprocessingML
// packages.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/render"
)

// packageTime stamps every zip entry so identical documents produce
// identical archives.
var packageTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
		`</Types>`

	rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
		`</Relationships>`
)

type Renderer struct{}

var _ render.Renderer = (*Renderer)(nil)

func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Name() string {
	return "docx"
}

func (r *Renderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (r *Renderer) Extension() string {
	return "docx"
}

// Render packages doc as a .docx archive.
func (r *Renderer) Render(ctx context.Context, doc document.Document, options render.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parts := []struct {
		name string
		body string
	}{
		{name: "[Content_Types].xml", body: contentTypesXML},
		{name: "_rels/.rels", body: rootRelsXML},
		{name: "docProps/core.xml", body: coreProperties(doc, options)},
		{name: "word/document.xml", body: documentXML(doc, options)},
	}

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	for _, part := range parts {
		w, err := archive.CreateHeader(&zip.FileHeader{
			Name:     part.name,
			Method:   zip.Deflate,
			Modified: packageTime,
		})
		if err != nil {
			return nil, fmt.Errorf("docx renderer: create %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("docx renderer: write %s: %w", part.name, err)
		}
	}
	if err := archive.Close(); err != nil {
		return nil, fmt.Errorf("docx renderer: finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func coreProperties(doc document.Document, options render.Options) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	b.WriteString("<dc:title>" + escape(doc.Title) + "</dc:title>")
	if options.Author != "" {
		b.WriteString("<dc:creator>" + escape(options.Author) + "</dc:creator>")
	}
	b.WriteString("<dc:identifier>" + escape(doc.ContractID) + "</dc:identifier>")
	b.WriteString("<cp:contentStatus>" + escape(string(doc.Status)) + "</cp:contentStatus>")
	b.WriteString(`</cp:coreProperties>`)
	return b.String()
}

func documentXML(doc document.Document, options render.Options) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	if doc.Title != "" {
		b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>`)
		b.WriteString(run(doc.Title, `<w:b/><w:sz w:val="32"/>`))
		b.WriteString(`</w:p>`)
	}
	for _, party := range doc.Parties {
		line := party.Name
		if party.Company != "" {
			line += ", " + party.Company
		}
		b.WriteString(`<w:p>`)
		b.WriteString(run(cases.Title(language.English).String(party.Role)+": ", `<w:b/>`))
		b.WriteString(run(line, ""))
		b.WriteString(`</w:p>`)
	}

	for _, paragraph := range paragraphs(doc.Segments) {
		b.WriteString(`<w:p>`)
		for _, segment := range paragraph {
			props := ""
			if segment.Kind == document.SegmentUnresolved && options.HighlightUnresolved {
				props = `<w:highlight w:val="yellow"/>`
			}
			b.WriteString(run(segment.Text, props))
		}
		b.WriteString(`</w:p>`)
	}

	if len(doc.Clauses) > 0 {
		b.WriteString(`<w:p>`)
		b.WriteString(run("Terms and Conditions", `<w:b/>`))
		b.WriteString(`</w:p>`)
		for _, clause := range doc.Clauses {
			b.WriteString(`<w:p><w:pPr><w:jc w:val="both"/></w:pPr>`)
			b.WriteString(run(strings.TrimSpace(clause), ""))
			b.WriteString(`</w:p>`)
		}
	}

	if options.Landscape {
		b.WriteString(`<w:sectPr><w:pgSz w:w="15840" w:h="12240" w:orient="landscape"/></w:sectPr>`)
	} else {
		b.WriteString(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

// paragraphs groups segments into paragraphs, splitting template text on
// blank lines.
func paragraphs(segments []document.Segment) [][]document.Segment {
	var (
		out     [][]document.Segment
		current []document.Segment
	)
	flush := func() {
		if len(current) > 0 && strings.TrimSpace(joinText(current)) != "" {
			out = append(out, current)
		}
		current = nil
	}
	for _, segment := range segments {
		text := strings.ReplaceAll(segment.Text, "\r\n", "\n")
		if segment.Kind != document.SegmentLiteral {
			segment.Text = text
			current = append(current, segment)
			continue
		}
		for idx, part := range paragraphBreak.Split(text, -1) {
			if idx > 0 {
				flush()
			}
			if part != "" {
				current = append(current, document.Segment{Kind: document.SegmentLiteral, Text: part})
			}
		}
	}
	flush()
	return out
}

func joinText(segments []document.Segment) string {
	var b strings.Builder
	for _, segment := range segments {
		b.WriteString(segment.Text)
	}
	return b.String()
}

// run writes text as a single run; newlines become line breaks.
func run(text, props string) string {
	var b strings.Builder
	b.WriteString(`<w:r>`)
	if props != "" {
		b.WriteString(`<w:rPr>` + props + `</w:rPr>`)
	}
	for idx, line := range strings.Split(text, "\n") {
		if idx > 0 {
			b.WriteString(`<w:br/>`)
		}
		if line == "" {
			continue
		}
		b.WriteString(`<w:t xml:space="preserve">` + escape(line) + `</w:t>`)
	}
	b.WriteString(`</w:r>`)
	return b.String()
}

func escape(text string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(text))
	return b.String()
}
