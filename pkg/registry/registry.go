// Package registry owns the canonical set of templates. Uploads derive the
// field schema from the template content; templates are never deleted, only
// deactivated.
package registry

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/events"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/schema"
	"github.com/goliatone/go-contractgen/pkg/store"
)

const initialVersion = "1.0"

// Registry stores templates and derives their schemas.
type Registry struct {
	mu        sync.Mutex
	store     store.TemplateStore
	builder   schema.Builder
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// New constructs a Registry.
func New(options ...Option) *Registry {
	r := &Registry{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	r.applyDefaults()
	return r
}

// Upload validates draft, derives its field schema and stores the resulting
// template. A draft whose id matches an existing template replaces it and
// bumps the version.
func (r *Registry) Upload(ctx context.Context, draft model.TemplateDraft) (model.Template, error) {
	tpl, err := r.upload(ctx, draft)
	if err != nil {
		return model.Template{}, err
	}
	r.publisher.Publish(events.Event{Kind: events.TemplateUploaded, TemplateID: tpl.ID, At: tpl.LastModified})
	return tpl, nil
}

// Edit replaces the template stored under id with draft.
func (r *Registry) Edit(ctx context.Context, id string, draft model.TemplateDraft) (model.Template, error) {
	tpl, err := r.edit(ctx, id, draft)
	if err != nil {
		return model.Template{}, err
	}
	r.publisher.Publish(events.Event{Kind: events.TemplateUploaded, TemplateID: tpl.ID, At: tpl.LastModified})
	return tpl, nil
}

// Deactivate marks a template inactive. Built-in templates are read-only.
func (r *Registry) Deactivate(ctx context.Context, id string) (model.Template, error) {
	tpl, changed, err := r.deactivate(ctx, id)
	if err != nil {
		return model.Template{}, err
	}
	if changed {
		r.publisher.Publish(events.Event{Kind: events.TemplateDeactivated, TemplateID: id, At: tpl.LastModified})
	}
	return tpl, nil
}

// Events are published by the exported methods once r.mu is released, so
// subscribers may call back into the registry.

func (r *Registry) upload(ctx context.Context, draft model.TemplateDraft) (model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tpl, err := r.save(ctx, draft, false)
	if err != nil {
		return model.Template{}, err
	}
	r.logger.Info("template uploaded",
		zap.String("template_id", tpl.ID),
		zap.String("version", tpl.Version),
		zap.Int("fields", len(tpl.RequiredFields)),
	)
	return tpl, nil
}

func (r *Registry) edit(ctx context.Context, id string, draft model.TemplateDraft) (model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup(ctx, id); err != nil {
		return model.Template{}, err
	}
	draft.ID = id
	tpl, err := r.save(ctx, draft, false)
	if err != nil {
		return model.Template{}, err
	}
	r.logger.Info("template edited", zap.String("template_id", tpl.ID), zap.String("version", tpl.Version))
	return tpl, nil
}

func (r *Registry) deactivate(ctx context.Context, id string) (model.Template, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tpl, err := r.lookup(ctx, id)
	if err != nil {
		return model.Template{}, false, err
	}
	if tpl.Builtin {
		return model.Template{}, false, fmt.Errorf("%w: %s", model.ErrBuiltinTemplate, id)
	}
	if !tpl.IsActive {
		return tpl, false, nil
	}
	tpl.IsActive = false
	tpl.LastModified = r.now()
	if err := r.store.PutTemplate(ctx, tpl); err != nil {
		return model.Template{}, false, fmt.Errorf("registry: store template %q: %w", id, err)
	}
	r.logger.Info("template deactivated", zap.String("template_id", id))
	return tpl, true, nil
}

// Seed stores built-in templates. Templates already present are left
// untouched, so seeding more than once is harmless.
func (r *Registry) Seed(ctx context.Context, drafts []model.TemplateDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, draft := range drafts {
		if strings.TrimSpace(draft.ID) == "" {
			return fmt.Errorf("registry: built-in template %q has no id", draft.Name)
		}
		if _, ok, err := r.store.GetTemplate(ctx, draft.ID); err != nil {
			return fmt.Errorf("registry: seed %q: %w", draft.ID, err)
		} else if ok {
			continue
		}
		tpl, err := r.save(ctx, draft, true)
		if err != nil {
			return fmt.Errorf("registry: seed %q: %w", draft.ID, err)
		}
		r.logger.Info("template seeded", zap.String("template_id", tpl.ID), zap.String("type", string(tpl.Type)))
	}
	return nil
}

// Get returns the template stored under id. A missing template is reported
// through the boolean, not as an error.
func (r *Registry) Get(ctx context.Context, id string) (model.Template, bool, error) {
	tpl, ok, err := r.store.GetTemplate(ctx, id)
	if err != nil {
		return model.Template{}, false, fmt.Errorf("registry: get template %q: %w", id, err)
	}
	return tpl, ok, nil
}

// Active returns the template stored under id when it exists and is active.
func (r *Registry) Active(ctx context.Context, id string) (model.Template, error) {
	tpl, ok, err := r.Get(ctx, id)
	if err != nil {
		return model.Template{}, err
	}
	if !ok || !tpl.IsActive {
		return model.Template{}, &model.NotFoundError{Kind: "template", ID: id}
	}
	return tpl, nil
}

// List returns every template in insertion order.
func (r *Registry) List(ctx context.Context) ([]model.Template, error) {
	list, err := r.store.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: list templates: %w", err)
	}
	return list, nil
}

// ActiveTemplateFor returns the template to use for a category: the most
// recently modified active custom template of that type, falling back to an
// active built-in.
func (r *Registry) ActiveTemplateFor(ctx context.Context, kind model.TemplateType) (model.Template, bool, error) {
	list, err := r.List(ctx)
	if err != nil {
		return model.Template{}, false, err
	}
	var (
		custom  *model.Template
		builtin *model.Template
	)
	for i := range list {
		tpl := &list[i]
		if !tpl.IsActive || tpl.Type != kind {
			continue
		}
		if tpl.Builtin {
			if builtin == nil {
				builtin = tpl
			}
			continue
		}
		if custom == nil || !tpl.LastModified.Before(custom.LastModified) {
			custom = tpl
		}
	}
	switch {
	case custom != nil:
		return *custom, true, nil
	case builtin != nil:
		return *builtin, true, nil
	default:
		return model.Template{}, false, nil
	}
}

func (r *Registry) lookup(ctx context.Context, id string) (model.Template, error) {
	tpl, ok, err := r.Get(ctx, id)
	if err != nil {
		return model.Template{}, err
	}
	if !ok {
		return model.Template{}, &model.NotFoundError{Kind: "template", ID: id}
	}
	return tpl, nil
}

func (r *Registry) save(ctx context.Context, draft model.TemplateDraft, builtin bool) (model.Template, error) {
	if err := checkDraft(draft); err != nil {
		return model.Template{}, err
	}

	fields, err := r.builder.Build(draft)
	if err != nil {
		return model.Template{}, &model.ValidationError{Violations: []model.Violation{{
			FieldID: "requiredFields",
			Rule:    "schema",
			Message: err.Error(),
		}}}
	}

	now := r.now()
	tpl := model.Template{
		ID:                strings.TrimSpace(draft.ID),
		Name:              strings.TrimSpace(draft.Name),
		Type:              model.NormalizeTemplateType(draft.Type),
		Description:       draft.Description,
		VirginiaCompliant: draft.VirginiaCompliant,
		Content:           draft.Content,
		RequiredFields:    fields,
		CalculatedFields:  r.builder.Calculated(draft.CalculatedFields),
		LegalClauses:      append([]string(nil), draft.LegalClauses...),
		Version:           strings.TrimSpace(draft.Version),
		IsActive:          true,
		Builtin:           builtin,
		Created:           now,
		LastModified:      now,
	}

	if tpl.ID != "" {
		existing, ok, err := r.store.GetTemplate(ctx, tpl.ID)
		if err != nil {
			return model.Template{}, fmt.Errorf("registry: get template %q: %w", tpl.ID, err)
		}
		if ok {
			if existing.Builtin {
				return model.Template{}, fmt.Errorf("%w: %s", model.ErrBuiltinTemplate, tpl.ID)
			}
			tpl.Created = existing.Created
			if tpl.Version == "" || tpl.Version == existing.Version {
				tpl.Version = bumpMinor(existing.Version)
			}
		}
	} else {
		tpl.ID = r.newID()
	}
	if tpl.Version == "" {
		tpl.Version = initialVersion
	}

	if err := r.store.PutTemplate(ctx, tpl); err != nil {
		return model.Template{}, fmt.Errorf("registry: store template %q: %w", tpl.ID, err)
	}
	return tpl, nil
}

func checkDraft(draft model.TemplateDraft) error {
	var violations []model.Violation
	if strings.TrimSpace(draft.Name) == "" {
		violations = append(violations, model.NewMissingFieldError("name").Violations...)
	}
	if strings.TrimSpace(draft.Content) == "" {
		violations = append(violations, model.NewMissingFieldError("content").Violations...)
	}
	if len(violations) == 0 {
		return nil
	}
	return &model.ValidationError{Violations: violations}
}

// bumpMinor increments the minor component of a "major.minor" version.
func bumpMinor(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return initialVersion
	}
	major, minor, found := strings.Cut(version, ".")
	if !found {
		if _, err := strconv.Atoi(major); err == nil {
			return major + ".1"
		}
		return version + ".1"
	}
	if idx := strings.Index(minor, "."); idx >= 0 {
		minor = minor[:idx]
	}
	n, err := strconv.Atoi(minor)
	if err != nil {
		return version + ".1"
	}
	return major + "." + strconv.Itoa(n+1)
}
