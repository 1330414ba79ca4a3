package model

import (
	"strings"
	"time"
)

// FieldType is the semantic input kind of a template field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeCurrency FieldType = "currency"
)

// Valid reports whether the type is one of the declared field kinds.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeSelect,
		FieldTypeTextarea, FieldTypeCheckbox, FieldTypeCurrency:
		return true
	default:
		return false
	}
}

// Numeric reports whether values of this type participate in min/max checks.
func (t FieldType) Numeric() bool {
	return t == FieldTypeNumber || t == FieldTypeCurrency
}

// TemplateType groups templates into logical categories. Unknown categories
// normalise to TemplateTypeCustom.
type TemplateType string

const (
	TemplateTypePaving       TemplateType = "paving"
	TemplateTypeSealcoating  TemplateType = "sealcoating"
	TemplateTypeLineStriping TemplateType = "line_striping"
	TemplateTypeCrackRepair  TemplateType = "crack_repair"
	TemplateTypeMaintenance  TemplateType = "maintenance"
	TemplateTypeCustom       TemplateType = "custom"
)

// NormalizeTemplateType maps free-form input onto the category enum.
func NormalizeTemplateType(raw string) TemplateType {
	switch t := TemplateType(strings.ToLower(strings.TrimSpace(raw))); t {
	case TemplateTypePaving, TemplateTypeSealcoating, TemplateTypeLineStriping,
		TemplateTypeCrackRepair, TemplateTypeMaintenance:
		return t
	default:
		return TemplateTypeCustom
	}
}

// ValidationRule holds the optional constraints attached to a field. Min and
// Max only apply to numeric kinds; Pattern applies to the stringified value;
// Options lists the allowed choices of a select field.
type ValidationRule struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Empty reports whether the rule declares no constraint at all.
func (r *ValidationRule) Empty() bool {
	return r == nil || (r.Min == nil && r.Max == nil && r.Pattern == "" && len(r.Options) == 0)
}

// FieldDescriptor describes one placeholder of a template.
type FieldDescriptor struct {
	FieldID     string          `json:"fieldId" yaml:"fieldId"`
	Label       string          `json:"label" yaml:"label"`
	Type        FieldType       `json:"type" yaml:"type"`
	Required    bool            `json:"required" yaml:"required"`
	Placeholder string          `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText    string          `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Validation  *ValidationRule `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// CalculatedField is a derived value computed from other numeric fields.
type CalculatedField struct {
	FieldID    string    `json:"fieldId" yaml:"fieldId"`
	Label      string    `json:"label" yaml:"label"`
	Type       FieldType `json:"type" yaml:"type"`
	Expression string    `json:"expression" yaml:"expression"`
}

// Template is a named, versioned document skeleton plus its field schema.
type Template struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Type              TemplateType      `json:"type"`
	Description       string            `json:"description,omitempty"`
	VirginiaCompliant bool              `json:"virginiaCompliant"`
	Content           string            `json:"content"`
	RequiredFields    []FieldDescriptor `json:"requiredFields"`
	CalculatedFields  []CalculatedField `json:"calculatedFields,omitempty"`
	LegalClauses      []string          `json:"legalClauses,omitempty"`
	Version           string            `json:"version"`
	IsActive          bool              `json:"isActive"`
	Builtin           bool              `json:"builtin,omitempty"`
	Created           time.Time         `json:"created"`
	LastModified      time.Time         `json:"lastModified"`
}

// Field returns the descriptor registered for fieldID.
func (t Template) Field(fieldID string) (FieldDescriptor, bool) {
	for _, field := range t.RequiredFields {
		if field.FieldID == fieldID {
			return field, true
		}
	}
	return FieldDescriptor{}, false
}

// Calculated returns the calculated field registered for fieldID.
func (t Template) Calculated(fieldID string) (CalculatedField, bool) {
	for _, field := range t.CalculatedFields {
		if field.FieldID == fieldID {
			return field, true
		}
	}
	return CalculatedField{}, false
}

// Clone returns a deep copy so stores can hand out values without sharing
// backing arrays.
func (t Template) Clone() Template {
	out := t
	if t.RequiredFields != nil {
		out.RequiredFields = make([]FieldDescriptor, len(t.RequiredFields))
		for i, field := range t.RequiredFields {
			out.RequiredFields[i] = field.clone()
		}
	}
	out.CalculatedFields = append([]CalculatedField(nil), t.CalculatedFields...)
	out.LegalClauses = append([]string(nil), t.LegalClauses...)
	return out
}

func (f FieldDescriptor) clone() FieldDescriptor {
	if f.Validation == nil {
		return f
	}
	rule := *f.Validation
	if rule.Min != nil {
		v := *rule.Min
		rule.Min = &v
	}
	if rule.Max != nil {
		v := *rule.Max
		rule.Max = &v
	}
	rule.Options = append([]string(nil), rule.Options...)
	f.Validation = &rule
	return f
}

// TemplateDraft is the upload payload. Explicit RequiredFields override the
// descriptors inferred from Content.
type TemplateDraft struct {
	ID                string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name              string            `json:"name" yaml:"name"`
	Type              string            `json:"type,omitempty" yaml:"type,omitempty"`
	Description       string            `json:"description,omitempty" yaml:"description,omitempty"`
	VirginiaCompliant bool              `json:"virginiaCompliant,omitempty" yaml:"virginiaCompliant,omitempty"`
	Content           string            `json:"content" yaml:"content"`
	RequiredFields    []FieldDescriptor `json:"requiredFields,omitempty" yaml:"requiredFields,omitempty"`
	CalculatedFields  []CalculatedField `json:"calculatedFields,omitempty" yaml:"calculatedFields,omitempty"`
	LegalClauses      []string          `json:"legalClauses,omitempty" yaml:"legalClauses,omitempty"`
	Version           string            `json:"version,omitempty" yaml:"version,omitempty"`
}

// Status is a contract lifecycle state.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPendingReview    Status = "pending_review"
	StatusPendingSignature Status = "pending_signature"
	StatusSigned           Status = "signed"
)

var statusOrder = map[Status]int{
	StatusDraft:            0,
	StatusPendingReview:    1,
	StatusPendingSignature: 2,
	StatusSigned:           3,
}

// Valid reports whether the status is part of the lifecycle.
func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// Rank returns the position of the status in the lifecycle, or -1.
func (s Status) Rank() int {
	rank, ok := statusOrder[s]
	if !ok {
		return -1
	}
	return rank
}

// Party is a role-tagged participant owned by a single contract.
type Party struct {
	Role    string `json:"role" yaml:"role"`
	Name    string `json:"name" yaml:"name"`
	Company string `json:"company,omitempty" yaml:"company,omitempty"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// Violation is a single validation problem for a field.
type Violation struct {
	FieldID string `json:"fieldId"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Contract binds a template to parties and field values.
type Contract struct {
	ID           string           `json:"id"`
	TemplateID   string           `json:"templateId"`
	Title        string           `json:"title,omitempty"`
	Parties      []Party          `json:"parties,omitempty"`
	FieldValues  map[string]Value `json:"fieldValues"`
	Status       Status           `json:"status"`
	Version      int              `json:"version"`
	Violations   []Violation      `json:"violations,omitempty"`
	Created      time.Time        `json:"created"`
	LastModified time.Time        `json:"lastModified"`
}

// Clone returns a deep copy of the contract.
func (c Contract) Clone() Contract {
	out := c
	out.Parties = append([]Party(nil), c.Parties...)
	out.Violations = append([]Violation(nil), c.Violations...)
	if c.FieldValues != nil {
		out.FieldValues = make(map[string]Value, len(c.FieldValues))
		for key, value := range c.FieldValues {
			out.FieldValues[key] = value
		}
	}
	return out
}
