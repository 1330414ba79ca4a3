package schema

import (
	internalschema "github.com/goliatone/go-contractgen/internal/schema"
	"github.com/goliatone/go-contractgen/pkg/model"
)

// Builder derives a template's field schema from its draft.
type Builder interface {
	Build(draft model.TemplateDraft) ([]model.FieldDescriptor, error)
	Calculated(fields []model.CalculatedField) []model.CalculatedField
}

// BuilderOption configures the builder behaviour.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	labeler  func(string) string
	inferrer func(string) model.FieldType
}

// WithLabeler overrides the default label generation function.
func WithLabeler(labeler func(string) string) BuilderOption {
	return func(opts *builderOptions) {
		opts.labeler = labeler
	}
}

// WithInferrer overrides the default field type heuristics.
func WithInferrer(inferrer func(string) model.FieldType) BuilderOption {
	return func(opts *builderOptions) {
		opts.inferrer = inferrer
	}
}

// NewBuilder returns a Builder backed by the internal implementation.
func NewBuilder(options ...BuilderOption) Builder {
	cfg := builderOptions{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	return internalschema.New(internalschema.Options{
		Labeler:  cfg.labeler,
		Inferrer: cfg.inferrer,
	})
}

// InferType exposes the default field type heuristics.
func InferType(fieldID string) model.FieldType {
	return internalschema.InferType(fieldID)
}

// Label exposes the default label derivation.
func Label(fieldID string) string {
	return internalschema.DefaultLabeler(fieldID)
}

// HumanizeLabel splits camel case as well as underscores when deriving a
// label. Pass it to WithLabeler to opt in.
func HumanizeLabel(fieldID string) string {
	return internalschema.HumanizeLabeler(fieldID)
}
