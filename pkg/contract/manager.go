// Package contract manages the contract lifecycle: creation against an
// active template, value updates with re-validation, status transitions,
// document generation and export.
package contract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/events"
	"github.com/goliatone/go-contractgen/pkg/export"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/store"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

// Templates resolves the templates contracts are bound to. *registry.Registry
// satisfies it.
type Templates interface {
	Get(ctx context.Context, id string) (model.Template, bool, error)
	Active(ctx context.Context, id string) (model.Template, error)
}

// Input carries the initial state of a contract.
type Input struct {
	Title       string
	FieldValues map[string]model.Value
	Parties     []model.Party
}

// Update describes a change to an existing contract. Nil maps and slices
// leave the stored values untouched; non-nil ones replace them. A zero
// ExpectedVersion means last writer wins.
type Update struct {
	Title           *string
	FieldValues     map[string]model.Value
	Parties         []model.Party
	ExpectedVersion int
}

// Manager owns contract state.
type Manager struct {
	mu        sync.Mutex
	templates Templates
	store     store.ContractStore
	generator *document.Generator
	pipeline  *export.Pipeline
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// New constructs a Manager bound to templates.
func New(templates Templates, options ...Option) (*Manager, error) {
	if templates == nil {
		return nil, fmt.Errorf("contract: template source is required")
	}
	m := &Manager{templates: templates}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	m.applyDefaults()
	return m, nil
}

// Create stores a new draft contract for an active template. Validation
// problems do not block creation; they are recorded on the contract.
func (m *Manager) Create(ctx context.Context, templateID string, input Input) (model.Contract, error) {
	c, err := m.create(ctx, templateID, input)
	if err != nil {
		return model.Contract{}, err
	}
	m.publisher.Publish(events.Event{
		Kind:       events.ContractCreated,
		ContractID: c.ID,
		TemplateID: c.TemplateID,
		Status:     string(c.Status),
		At:         c.Created,
	})
	return c, nil
}

// Events are published by the exported methods once m.mu is released, so
// subscribers may call back into the manager.

func (m *Manager) create(ctx context.Context, templateID string, input Input) (model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tpl, err := m.templates.Active(ctx, templateID)
	if err != nil {
		return model.Contract{}, err
	}

	values := normalizeValues(tpl, input.FieldValues)
	now := m.now()
	c := model.Contract{
		ID:           m.newID(),
		TemplateID:   tpl.ID,
		Title:        strings.TrimSpace(input.Title),
		Parties:      append([]model.Party(nil), input.Parties...),
		FieldValues:  values,
		Status:       model.StatusDraft,
		Version:      1,
		Violations:   validation.Validate(tpl.RequiredFields, values),
		Created:      now,
		LastModified: now,
	}
	if c.Title == "" {
		c.Title = tpl.Name
	}

	if err := m.store.PutContract(ctx, c); err != nil {
		return model.Contract{}, fmt.Errorf("contract: store %q: %w", c.ID, err)
	}
	m.logger.Info("contract created",
		zap.String("contract_id", c.ID),
		zap.String("template_id", c.TemplateID),
		zap.Int("violations", len(c.Violations)),
	)
	return c, nil
}

// Get returns the contract stored under id. A missing contract is reported
// through the boolean.
func (m *Manager) Get(ctx context.Context, id string) (model.Contract, bool, error) {
	c, ok, err := m.store.GetContract(ctx, id)
	if err != nil {
		return model.Contract{}, false, fmt.Errorf("contract: get %q: %w", id, err)
	}
	return c, ok, nil
}

// List returns every contract in insertion order.
func (m *Manager) List(ctx context.Context) ([]model.Contract, error) {
	list, err := m.store.ListContracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("contract: list: %w", err)
	}
	return list, nil
}

// Update applies update, re-validates the values and bumps the version. The
// status is never changed here.
func (m *Manager) Update(ctx context.Context, id string, update Update) (model.Contract, error) {
	c, err := m.update(ctx, id, update)
	if err != nil {
		return model.Contract{}, err
	}
	m.publishUpdated(c)
	return c, nil
}

func (m *Manager) update(ctx context.Context, id string, update Update) (model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.lookup(ctx, id)
	if err != nil {
		return model.Contract{}, err
	}
	if update.ExpectedVersion != 0 && update.ExpectedVersion != c.Version {
		return model.Contract{}, &model.ConflictError{ContractID: id, Expected: update.ExpectedVersion, Actual: c.Version}
	}
	tpl, err := m.template(ctx, c.TemplateID)
	if err != nil {
		return model.Contract{}, err
	}

	if update.Title != nil {
		c.Title = strings.TrimSpace(*update.Title)
		if c.Title == "" {
			c.Title = tpl.Name
		}
	}
	if update.FieldValues != nil {
		c.FieldValues = normalizeValues(tpl, update.FieldValues)
	}
	if update.Parties != nil {
		c.Parties = append([]model.Party(nil), update.Parties...)
	}
	c.Violations = validation.Validate(tpl.RequiredFields, c.FieldValues)

	if err := m.commit(ctx, &c); err != nil {
		return model.Contract{}, err
	}
	m.logger.Info("contract updated",
		zap.String("contract_id", c.ID),
		zap.Int("version", c.Version),
		zap.Int("violations", len(c.Violations)),
	)
	return c, nil
}

// Transition moves a contract to status. Moving backwards or to an unknown
// status fails with model.ErrInvalidTransition; states may be skipped.
// Signing requires the current values to pass validation.
func (m *Manager) Transition(ctx context.Context, id string, status model.Status) (model.Contract, error) {
	c, changed, err := m.transition(ctx, id, status)
	if err != nil {
		return model.Contract{}, err
	}
	if changed {
		m.publishUpdated(c)
	}
	return c, nil
}

func (m *Manager) transition(ctx context.Context, id string, status model.Status) (model.Contract, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.lookup(ctx, id)
	if err != nil {
		return model.Contract{}, false, err
	}
	if !status.Valid() {
		return model.Contract{}, false, fmt.Errorf("%w: unknown status %q", model.ErrInvalidTransition, status)
	}
	if status.Rank() < c.Status.Rank() {
		return model.Contract{}, false, fmt.Errorf("%w: %s to %s", model.ErrInvalidTransition, c.Status, status)
	}
	if status == c.Status {
		return c, false, nil
	}

	if status == model.StatusSigned {
		tpl, err := m.template(ctx, c.TemplateID)
		if err != nil {
			return model.Contract{}, false, err
		}
		if violations := validation.Validate(tpl.RequiredFields, c.FieldValues); len(violations) > 0 {
			return model.Contract{}, false, validation.Error(violations)
		}
	}

	from := c.Status
	c.Status = status
	if err := m.commit(ctx, &c); err != nil {
		return model.Contract{}, false, err
	}
	m.logger.Info("contract transitioned",
		zap.String("contract_id", c.ID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	return c, true, nil
}

// Validate checks values against the schema of templateID without storing
// anything.
func (m *Manager) Validate(ctx context.Context, templateID string, values map[string]model.Value) ([]model.Violation, error) {
	tpl, err := m.template(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return validation.Validate(tpl.RequiredFields, normalizeValues(tpl, values)), nil
}

// Generate merges the contract into its template.
func (m *Manager) Generate(ctx context.Context, id string) (document.Document, error) {
	c, err := m.lookup(ctx, id)
	if err != nil {
		return document.Document{}, err
	}
	tpl, err := m.template(ctx, c.TemplateID)
	if err != nil {
		return document.Document{}, err
	}
	return m.generator.Generate(tpl, c), nil
}

// Preview merges input into an active template without storing a contract.
// The returned document has no contract id.
func (m *Manager) Preview(ctx context.Context, templateID string, input Input) (document.Document, []model.Violation, error) {
	tpl, err := m.templates.Active(ctx, templateID)
	if err != nil {
		return document.Document{}, nil, err
	}
	values := normalizeValues(tpl, input.FieldValues)
	c := model.Contract{
		TemplateID:  tpl.ID,
		Title:       strings.TrimSpace(input.Title),
		Parties:     input.Parties,
		FieldValues: values,
		Status:      model.StatusDraft,
	}
	return m.generator.Generate(tpl, c), validation.Validate(tpl.RequiredFields, values), nil
}

// Export generates the contract document and renders it in format.
// Failures after lookup are returned as *model.ExportError.
func (m *Manager) Export(ctx context.Context, id, format string) (export.Artifact, error) {
	doc, err := m.Generate(ctx, id)
	if err != nil {
		return export.Artifact{}, err
	}
	return m.pipeline.Export(ctx, doc, format)
}

// ExportAll renders the contract in several formats at once. With no formats
// every registered format is rendered.
func (m *Manager) ExportAll(ctx context.Context, id string, formats ...string) ([]export.Artifact, error) {
	doc, err := m.Generate(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.pipeline.ExportAll(ctx, doc, formats...)
}

// Formats lists the export formats available.
func (m *Manager) Formats() []string {
	return m.pipeline.Formats()
}

func (m *Manager) commit(ctx context.Context, c *model.Contract) error {
	c.Version++
	c.LastModified = m.now()
	if err := m.store.PutContract(ctx, *c); err != nil {
		return fmt.Errorf("contract: store %q: %w", c.ID, err)
	}
	return nil
}

func (m *Manager) publishUpdated(c model.Contract) {
	m.publisher.Publish(events.Event{
		Kind:       events.ContractUpdated,
		ContractID: c.ID,
		TemplateID: c.TemplateID,
		Status:     string(c.Status),
		At:         c.LastModified,
	})
}

func (m *Manager) lookup(ctx context.Context, id string) (model.Contract, error) {
	c, ok, err := m.Get(ctx, id)
	if err != nil {
		return model.Contract{}, err
	}
	if !ok {
		return model.Contract{}, &model.NotFoundError{Kind: "contract", ID: id}
	}
	return c, nil
}

// template resolves a template regardless of its active flag; contracts
// outlive the deactivation of their template.
func (m *Manager) template(ctx context.Context, id string) (model.Template, error) {
	tpl, ok, err := m.templates.Get(ctx, id)
	if err != nil {
		return model.Template{}, err
	}
	if !ok {
		return model.Template{}, &model.NotFoundError{Kind: "template", ID: id}
	}
	return tpl, nil
}
