package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-contractgen/pkg/events"
	"github.com/goliatone/go-contractgen/pkg/export"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/registry"
	"github.com/goliatone/go-contractgen/pkg/render"
	"github.com/goliatone/go-contractgen/pkg/renderers/docx"
	"github.com/goliatone/go-contractgen/pkg/renderers/html"
)

type fixture struct {
	registry *registry.Registry
	manager  *Manager
	bus      *events.Bus
	events   []events.Kind
}

func newFixture(t *testing.T, options ...Option) *fixture {
	t.Helper()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Minute)
		return now
	}

	f := &fixture{bus: events.NewBus()}
	f.bus.Subscribe(func(evt events.Event) { f.events = append(f.events, evt.Kind) })
	f.registry = registry.New(registry.WithClock(clock), registry.WithPublisher(f.bus))

	htmlRenderer, err := html.New()
	if err != nil {
		t.Fatalf("html renderer: %v", err)
	}
	renderers, err := render.NewRegistry(htmlRenderer, docx.New())
	if err != nil {
		t.Fatalf("render registry: %v", err)
	}

	seq := 0
	base := []Option{
		WithClock(clock),
		WithPublisher(f.bus),
		WithPipeline(export.NewPipeline(export.WithRegistry(renderers))),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("c-%d", seq)
		}),
	}
	f.manager, err = New(f.registry, append(base, options...)...)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return f
}

func (f *fixture) upload(t *testing.T, draft model.TemplateDraft) model.Template {
	t.Helper()
	tpl, err := f.registry.Upload(context.Background(), draft)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return tpl
}

func simpleDraft() model.TemplateDraft {
	return model.TemplateDraft{
		Name:    "Simple",
		Content: "Client: {{client.name}}, Total: {{payment.total}}",
		RequiredFields: []model.FieldDescriptor{
			{FieldID: "payment.total", Type: model.FieldTypeCurrency, Required: true},
		},
	}
}

func TestManager_CreateAndGenerate(t *testing.T) {
	f := newFixture(t)
	tpl := f.upload(t, simpleDraft())

	c, err := f.manager.Create(context.Background(), tpl.ID, Input{
		FieldValues: map[string]model.Value{
			"client.name":   model.TextValue("Acme"),
			"payment.total": model.NumberValue(1200),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != model.StatusDraft || c.Version != 1 || c.Title != "Simple" {
		t.Fatalf("unexpected contract %+v", c)
	}
	if len(c.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", c.Violations)
	}
	if kind := c.FieldValues["payment.total"].Kind(); kind != model.FieldTypeCurrency {
		t.Fatalf("expected value re-tagged as currency, got %q", kind)
	}

	doc, err := f.manager.Generate(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got, want := doc.Text(), "Client: Acme, Total: $1,200.00"; got != want {
		t.Fatalf("document text = %q, want %q", got, want)
	}
	if !doc.Complete() {
		t.Fatalf("expected no unresolved placeholders, got %v", doc.Unresolved)
	}

	if diff := cmp.Diff([]events.Kind{events.TemplateUploaded, events.ContractCreated}, f.events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_CreateMissingTemplate(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Create(context.Background(), "missing-template-id", Input{})
	var notFound *model.NotFoundError
	if !errors.As(err, &notFound) || notFound.ID != "missing-template-id" || notFound.Kind != "template" {
		t.Fatalf("expected template NotFoundError, got %v", err)
	}
	if list, _ := f.manager.List(context.Background()); len(list) != 0 {
		t.Fatalf("no contract should be stored, got %d", len(list))
	}
}

func TestManager_CreateInactiveTemplate(t *testing.T) {
	f := newFixture(t)
	tpl := f.upload(t, simpleDraft())
	if _, err := f.registry.Deactivate(context.Background(), tpl.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.manager.Create(context.Background(), tpl.ID, Input{}); !model.IsNotFound(err) {
		t.Fatalf("expected NotFoundError for inactive template, got %v", err)
	}
}

func TestManager_CreateRecordsEveryViolation(t *testing.T) {
	f := newFixture(t)
	tpl := f.upload(t, model.TemplateDraft{
		Name:    "Project",
		Content: "{{project.name}} for {{client.name}} at {{site.address}}",
	})

	c, err := f.manager.Create(context.Background(), tpl.ID, Input{
		FieldValues: map[string]model.Value{"unrelated.key": model.TextValue("x")},
	})
	if err != nil {
		t.Fatalf("create must not reject drafts: %v", err)
	}

	var fields []string
	count := 0
	for _, violation := range c.Violations {
		fields = append(fields, violation.FieldID)
		if violation.FieldID == "project.name" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one project.name violation, got %d", count)
	}
	if diff := cmp.Diff([]string{"project.name", "client.name", "site.address"}, fields); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_Update(t *testing.T) {
	f := newFixture(t)
	tpl := f.upload(t, simpleDraft())
	ctx := context.Background()

	c, err := f.manager.Create(ctx, tpl.ID, Input{FieldValues: map[string]model.Value{"client.name": model.TextValue("Acme")}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(c.Violations) != 1 {
		t.Fatalf("expected payment.total violation, got %+v", c.Violations)
	}

	parties := []model.Party{{Role: "client", Name: "Jane"}}
	updated, err := f.manager.Update(ctx, c.ID, Update{
		FieldValues: map[string]model.Value{
			"client.name":   model.TextValue("Acme"),
			"payment.total": model.TextValue("950.5"),
		},
		Parties:         parties,
		ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 || updated.Status != model.StatusDraft || len(updated.Violations) != 0 {
		t.Fatalf("unexpected updated contract %+v", updated)
	}
	if n, _ := updated.FieldValues["payment.total"].Number(); n != 950.5 {
		t.Fatalf("expected coerced total, got %v", updated.FieldValues["payment.total"])
	}
	if diff := cmp.Diff(parties, updated.Parties); diff != "" {
		t.Fatalf("parties mismatch (-want +got):\n%s", diff)
	}

	// nil maps keep the stored values
	title := "Renamed"
	renamed, err := f.manager.Update(ctx, c.ID, Update{Title: &title})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Title != "Renamed" || len(renamed.FieldValues) != 2 || len(renamed.Parties) != 1 {
		t.Fatalf("unexpected renamed contract %+v", renamed)
	}

	_, err = f.manager.Update(ctx, c.ID, Update{ExpectedVersion: 1})
	var conflict *model.ConflictError
	if !errors.As(err, &conflict) || conflict.Actual != 3 {
		t.Fatalf("expected version conflict, got %v", err)
	}

	if _, err := f.manager.Update(ctx, "nope", Update{}); !model.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	want := []events.Kind{events.TemplateUploaded, events.ContractCreated, events.ContractUpdated, events.ContractUpdated}
	if diff := cmp.Diff(want, f.events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_Transition(t *testing.T) {
	f := newFixture(t)
	tpl := f.upload(t, simpleDraft())
	ctx := context.Background()

	c, err := f.manager.Create(ctx, tpl.ID, Input{FieldValues: map[string]model.Value{"client.name": model.TextValue("Acme")}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	review, err := f.manager.Transition(ctx, c.ID, model.StatusPendingSignature)
	if err != nil {
		t.Fatalf("skip to pending_signature: %v", err)
	}
	if review.Status != model.StatusPendingSignature || review.Version != 2 {
		t.Fatalf("unexpected contract %+v", review)
	}

	if _, err := f.manager.Transition(ctx, c.ID, model.StatusDraft); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected invalid backward transition, got %v", err)
	}
	if _, err := f.manager.Transition(ctx, c.ID, "archived"); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected invalid unknown status, got %v", err)
	}

	_, err = f.manager.Transition(ctx, c.ID, model.StatusSigned)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError when signing incomplete contract, got %v", err)
	}
	if diff := cmp.Diff([]string{"payment.total"}, verr.Fields()); diff != "" {
		t.Fatalf("violation fields mismatch (-want +got):\n%s", diff)
	}

	if _, err := f.manager.Update(ctx, c.ID, Update{FieldValues: map[string]model.Value{
		"client.name":   model.TextValue("Acme"),
		"payment.total": model.CurrencyValue(10),
	}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	signed, err := f.manager.Transition(ctx, c.ID, model.StatusSigned)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if signed.Status != model.StatusSigned {
		t.Fatalf("expected signed, got %q", signed.Status)
	}

	same, err := f.manager.Transition(ctx, c.ID, model.StatusSigned)
	if err != nil || same.Version != signed.Version {
		t.Fatalf("repeating the current status should be a no-op, got %+v %v", same, err)
	}
}

func TestManager_GenerateMissing(t *testing.T) {
	f := newFixture(t)
	if _, err := f.manager.Generate(context.Background(), "missing"); !model.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestManager_GenerateAfterDeactivation(t *testing.T) {
	f := newFixture(t)
	tpl := f.upload(t, simpleDraft())
	ctx := context.Background()

	c, err := f.manager.Create(ctx, tpl.ID, Input{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.registry.Deactivate(ctx, tpl.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	doc, err := f.manager.Generate(ctx, c.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if diff := cmp.Diff([]string{"client.name", "payment.total"}, doc.Unresolved); diff != "" {
		t.Fatalf("unresolved mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_Export(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newFixture(t, WithLogger(zap.New(core)))
	tpl := f.upload(t, simpleDraft())
	ctx := context.Background()

	c, err := f.manager.Create(ctx, tpl.ID, Input{FieldValues: map[string]model.Value{
		"client.name":   model.TextValue("<Acme>"),
		"payment.total": model.NumberValue(1200),
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.manager.Export(ctx, c.ID, "html")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	second, err := f.manager.Export(ctx, c.ID, "html")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Fatalf("expected byte-identical html exports")
	}
	if first.Filename != c.ID+".html" {
		t.Fatalf("unexpected filename %q", first.Filename)
	}
	if bytes.Contains(first.Data, []byte("<Acme>")) {
		t.Fatalf("field values must be escaped in html output")
	}

	_, err = f.manager.Export(ctx, c.ID, "pdf")
	var exportErr *model.ExportError
	if !errors.As(err, &exportErr) || exportErr.Format != "pdf" {
		t.Fatalf("expected ExportError for unregistered format, got %v", err)
	}

	if _, err := f.manager.Export(ctx, "missing", "html"); !model.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	stored, _, err := f.manager.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(c, stored); diff != "" {
		t.Fatalf("export must not mutate the contract (-want +got):\n%s", diff)
	}

	artifacts, err := f.manager.ExportAll(ctx, c.ID)
	if err != nil {
		t.Fatalf("export all: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected docx and html artifacts, got %d", len(artifacts))
	}
	if diff := cmp.Diff([]string{"docx", "html"}, f.manager.Formats()); diff != "" {
		t.Fatalf("formats mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("contract created").Len() != 1 {
		t.Fatalf("expected creation to be logged")
	}
}

func TestManager_Validate(t *testing.T) {
	f := newFixture(t)
	tpl := f.upload(t, simpleDraft())

	violations, err := f.manager.Validate(context.Background(), tpl.ID, map[string]model.Value{
		"client.name":   model.TextValue("Acme"),
		"payment.total": model.TextValue("12"),
		"extra":         model.TextValue("ignored"),
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %+v", violations)
	}
	if _, err := f.manager.Validate(context.Background(), "missing", nil); !model.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestNew_RequiresTemplates(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error without template source")
	}
}

func TestManager_Preview(t *testing.T) {
	f := newFixture(t)
	tpl := f.upload(t, simpleDraft())

	doc, violations, err := f.manager.Preview(context.Background(), tpl.ID, Input{
		FieldValues: map[string]model.Value{"client.name": model.TextValue("Acme")},
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if got, want := doc.Text(), "Client: Acme, Total: [[UNRESOLVED:payment.total]]"; got != want {
		t.Fatalf("preview text = %q, want %q", got, want)
	}
	if len(violations) != 1 || violations[0].FieldID != "payment.total" {
		t.Fatalf("unexpected violations %+v", violations)
	}
	if list, _ := f.manager.List(context.Background()); len(list) != 0 {
		t.Fatalf("preview must not store a contract")
	}
}
