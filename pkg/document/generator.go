package document

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/calc"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/placeholder"
)

// DefaultMarker renders the unresolved marker for fieldID.
func DefaultMarker(fieldID string) string {
	return "[[UNRESOLVED:" + fieldID + "]]"
}

// Option configures the Generator.
type Option func(*Generator)

// WithFormatter overrides value formatting.
func WithFormatter(f Formatter) Option {
	return func(g *Generator) {
		if f != nil {
			g.formatter = f
		}
	}
}

// WithUnresolvedMarker overrides the text left in place of a placeholder
// without a value.
func WithUnresolvedMarker(fn func(fieldID string) string) Option {
	return func(g *Generator) {
		if fn != nil {
			g.marker = fn
		}
	}
}

// WithLogger sets the logger used for calculated field failures.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Generator merges contracts into template text. Substitution is purely
// textual; nothing in a field value is interpreted.
type Generator struct {
	formatter Formatter
	marker    func(string) string
	logger    *zap.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(options ...Option) *Generator {
	g := &Generator{
		formatter: DefaultFormatter(),
		marker:    DefaultMarker,
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

// Generate substitutes every placeholder in tpl.Content. Declared optional
// fields without a value render as empty text; any other placeholder without
// a value, including calculated fields that cannot be evaluated, is replaced
// by the unresolved marker and listed in Document.Unresolved.
func (g *Generator) Generate(tpl model.Template, contract model.Contract) Document {
	doc := Document{
		ContractID: contract.ID,
		TemplateID: tpl.ID,
		Title:      contract.Title,
		Status:     contract.Status,
		Parties:    append([]model.Party(nil), contract.Parties...),
		Clauses:    append([]string(nil), tpl.LegalClauses...),
	}
	if doc.Title == "" {
		doc.Title = tpl.Name
	}

	res := newResolver(tpl, contract.FieldValues)
	unresolved := make(map[string]struct{})
	content := tpl.Content
	cursor := 0

	for _, token := range placeholder.Tokens(content) {
		if token.Start > cursor {
			doc.Segments = append(doc.Segments, Segment{Kind: SegmentLiteral, Text: content[cursor:token.Start]})
		}
		cursor = token.End

		text, ok := g.resolve(res, token.FieldID)
		if ok {
			doc.Segments = append(doc.Segments, Segment{Kind: SegmentValue, FieldID: token.FieldID, Text: text})
			continue
		}
		doc.Segments = append(doc.Segments, Segment{Kind: SegmentUnresolved, FieldID: token.FieldID, Text: g.marker(token.FieldID)})
		if _, seen := unresolved[token.FieldID]; !seen {
			unresolved[token.FieldID] = struct{}{}
			doc.Unresolved = append(doc.Unresolved, token.FieldID)
		}
	}
	if cursor < len(content) {
		doc.Segments = append(doc.Segments, Segment{Kind: SegmentLiteral, Text: content[cursor:]})
	}
	return doc
}

func (g *Generator) resolve(res *resolver, fieldID string) (string, bool) {
	if field, ok := res.tpl.Calculated(fieldID); ok {
		n, err := res.calculated(fieldID)
		if err != nil {
			g.logger.Debug("calculated field unresolved",
				zap.String("template_id", res.tpl.ID),
				zap.String("field_id", fieldID),
				zap.Error(err),
			)
			return "", false
		}
		kind := field.Type
		if !kind.Numeric() {
			kind = model.FieldTypeNumber
		}
		value, _ := model.Coerce(kind, n)
		return g.formatter.Format(kind, value), true
	}

	field, declared := res.tpl.Field(fieldID)
	value, present := res.values[fieldID]
	if !present || blank(value) {
		if declared && !field.Required {
			return "", true
		}
		return "", false
	}
	kind := value.Kind()
	if declared {
		kind = field.Type
	}
	return g.formatter.Format(kind, value), true
}

// blank reports a value that carries nothing to print. Unlike Value.Empty,
// an unticked checkbox still prints.
func blank(value model.Value) bool {
	if !value.IsSet() {
		return true
	}
	if value.Kind() == model.FieldTypeCheckbox {
		return false
	}
	return value.Empty()
}

var errCycle = errors.New("document: calculated fields reference each other")

type resolver struct {
	tpl      model.Template
	values   map[string]model.Value
	memo     map[string]float64
	visiting map[string]bool
}

func newResolver(tpl model.Template, values map[string]model.Value) *resolver {
	return &resolver{
		tpl:      tpl,
		values:   values,
		memo:     make(map[string]float64),
		visiting: make(map[string]bool),
	}
}

func (r *resolver) calculated(fieldID string) (float64, error) {
	if n, ok := r.memo[fieldID]; ok {
		return n, nil
	}
	if r.visiting[fieldID] {
		return 0, errCycle
	}
	field, _ := r.tpl.Calculated(fieldID)
	expr, err := calc.Parse(field.Expression)
	if err != nil {
		return 0, err
	}

	r.visiting[fieldID] = true
	defer delete(r.visiting, fieldID)

	var inner error
	n, err := expr.Eval(func(ref string) (float64, bool) {
		v, lookupErr := r.number(ref)
		if lookupErr != nil {
			if inner == nil {
				inner = lookupErr
			}
			return 0, false
		}
		return v, true
	})
	if inner != nil {
		return 0, inner
	}
	if err != nil {
		return 0, err
	}
	r.memo[fieldID] = n
	return n, nil
}

func (r *resolver) number(fieldID string) (float64, error) {
	if _, ok := r.tpl.Calculated(fieldID); ok {
		return r.calculated(fieldID)
	}
	value, ok := r.values[fieldID]
	if !ok || !value.IsSet() {
		return 0, fmt.Errorf("%w: %s", calc.ErrMissingValue, fieldID)
	}
	if n, ok := value.Number(); ok {
		return n, nil
	}
	coerced, err := model.Coerce(model.FieldTypeNumber, strings.TrimSpace(value.String()))
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not numeric", calc.ErrMissingValue, fieldID)
	}
	n, _ := coerced.Number()
	return n, nil
}
