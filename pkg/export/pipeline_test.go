package export

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/render"
	"github.com/goliatone/go-contractgen/pkg/renderers/docx"
	"github.com/goliatone/go-contractgen/pkg/renderers/html"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubRenderer struct {
	name   string
	render func(ctx context.Context, doc document.Document) ([]byte, error)
	calls  atomic.Int32
}

func (s *stubRenderer) Name() string        { return s.name }
func (s *stubRenderer) ContentType() string { return "application/x-" + s.name }
func (s *stubRenderer) Extension() string   { return s.name }

func (s *stubRenderer) Render(ctx context.Context, doc document.Document, _ render.Options) ([]byte, error) {
	s.calls.Add(1)
	return s.render(ctx, doc)
}

func sampleDocument() document.Document {
	return document.Document{
		ContractID: "c-42",
		Title:      "Paving Agreement",
		Status:     model.StatusDraft,
		Segments: []document.Segment{
			{Kind: document.SegmentLiteral, Text: "Client: "},
			{Kind: document.SegmentValue, FieldID: "client.name", Text: "Acme"},
		},
	}
}

func newPipeline(t *testing.T, renderers ...render.Renderer) *Pipeline {
	t.Helper()
	registry, err := render.NewRegistry(renderers...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return NewPipeline(WithRegistry(registry))
}

func TestPipeline_ExportHTML(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("html renderer: %v", err)
	}
	pipeline := newPipeline(t, renderer, docx.New())

	artifact, err := pipeline.Export(context.Background(), sampleDocument(), "HTML")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if artifact.Filename != "c-42.html" || artifact.Format != "html" || artifact.ContractID != "c-42" {
		t.Fatalf("unexpected metadata %+v", artifact)
	}
	if !bytes.Contains(artifact.Data, []byte("Acme")) {
		t.Fatalf("expected rendered body in artifact")
	}

	again, err := pipeline.Export(context.Background(), sampleDocument(), "html")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Equal(artifact.Data, again.Data) {
		t.Fatalf("expected byte-identical html across exports")
	}
}

func TestPipeline_UnsupportedFormat(t *testing.T) {
	pipeline := newPipeline(t, docx.New())

	_, err := pipeline.Export(context.Background(), sampleDocument(), "odt")
	var exportErr *model.ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("expected ExportError, got %v", err)
	}
	if exportErr.Format != "odt" || !errors.Is(err, model.ErrUnsupportedFormat) {
		t.Fatalf("unexpected export error %+v", exportErr)
	}
}

func TestPipeline_RendererFailure(t *testing.T) {
	cause := errors.New("engine down")
	stub := &stubRenderer{name: "pdf", render: func(context.Context, document.Document) ([]byte, error) {
		return nil, cause
	}}
	core, logs := observer.New(zap.WarnLevel)
	registry, _ := render.NewRegistry(stub)
	pipeline := NewPipeline(WithRegistry(registry), WithLogger(zap.New(core)))

	_, err := pipeline.Export(context.Background(), sampleDocument(), "pdf")
	var exportErr *model.ExportError
	if !errors.As(err, &exportErr) || exportErr.Format != "pdf" || !errors.Is(err, cause) {
		t.Fatalf("expected ExportError wrapping cause, got %v", err)
	}
	if logs.FilterMessage("export failed").Len() != 1 {
		t.Fatalf("expected failure to be logged, got %v", logs.All())
	}
}

func TestPipeline_Cancellation(t *testing.T) {
	started := make(chan struct{})
	stub := &stubRenderer{name: "pdf", render: func(ctx context.Context, _ document.Document) ([]byte, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	pipeline := newPipeline(t, stub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := pipeline.Export(ctx, sampleDocument(), "pdf")
		done <- err
	}()
	<-started
	cancel()

	err := <-done
	var exportErr *model.ExportError
	if !errors.As(err, &exportErr) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled ExportError, got %v", err)
	}
}

func TestPipeline_Timeout(t *testing.T) {
	stub := &stubRenderer{name: "pdf", render: func(ctx context.Context, _ document.Document) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	registry, _ := render.NewRegistry(stub)
	pipeline := NewPipeline(WithRegistry(registry), WithTimeout(10*time.Millisecond))

	if _, err := pipeline.Export(context.Background(), sampleDocument(), "pdf"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPipeline_ExportAll(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("html renderer: %v", err)
	}
	pipeline := newPipeline(t, renderer, docx.New())

	artifacts, err := pipeline.ExportAll(context.Background(), sampleDocument(), "docx", "html")
	if err != nil {
		t.Fatalf("export all: %v", err)
	}
	var names []string
	for _, artifact := range artifacts {
		names = append(names, artifact.Filename)
	}
	if diff := cmp.Diff([]string{"c-42.docx", "c-42.html"}, names); diff != "" {
		t.Fatalf("artifact order mismatch (-want +got):\n%s", diff)
	}

	all, err := pipeline.ExportAll(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("export all formats: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected every registered format, got %d", len(all))
	}
}

func TestPipeline_ExportAllStopsOnFailure(t *testing.T) {
	failing := &stubRenderer{name: "pdf", render: func(context.Context, document.Document) ([]byte, error) {
		return nil, errors.New("boom")
	}}
	pipeline := newPipeline(t, failing, docx.New())

	artifacts, err := pipeline.ExportAll(context.Background(), sampleDocument(), "pdf", "docx")
	var exportErr *model.ExportError
	if !errors.As(err, &exportErr) || exportErr.Format != "pdf" {
		t.Fatalf("expected pdf ExportError, got %v", err)
	}
	if artifacts != nil {
		t.Fatalf("expected no artifacts on failure")
	}
}

func TestPipeline_DoesNotMutateDocument(t *testing.T) {
	stub := &stubRenderer{name: "txt", render: func(_ context.Context, doc document.Document) ([]byte, error) {
		return []byte(doc.Text()), nil
	}}
	pipeline := newPipeline(t, stub)
	doc := sampleDocument()
	before := sampleDocument()

	if _, err := pipeline.Export(context.Background(), doc, "txt"); err != nil {
		t.Fatalf("export: %v", err)
	}
	if diff := cmp.Diff(before, doc); diff != "" {
		t.Fatalf("document mutated (-want +got):\n%s", diff)
	}
}

func TestFilename(t *testing.T) {
	tests := map[string][2]string{
		"c-1.html":     {"c-1", "html"},
		"c-1.pdf":      {"c-1", ".pdf"},
		"document.txt": {"", "txt"},
		"a_b.docx":     {"a/b", "docx"},
		"c-1":          {"c-1", ""},
	}
	for want, input := range tests {
		if got := Filename(input[0], input[1]); got != want {
			t.Fatalf("Filename(%q, %q) = %q, want %q", input[0], input[1], got, want)
		}
	}
}
