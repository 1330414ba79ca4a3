package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var dateLayouts = []string{
	dateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"1/2/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Value is a field value tagged with the field kind it was captured for. The
// zero Value is "unset" and behaves as an absent entry.
type Value struct {
	kind    FieldType
	text    string
	number  float64
	date    time.Time
	checked bool
}

// TextValue builds a text value.
func TextValue(s string) Value { return Value{kind: FieldTypeText, text: s} }

// TextareaValue builds a multi-line text value.
func TextareaValue(s string) Value { return Value{kind: FieldTypeTextarea, text: s} }

// SelectValue builds a select value holding the chosen option.
func SelectValue(s string) Value { return Value{kind: FieldTypeSelect, text: s} }

// NumberValue builds a plain numeric value.
func NumberValue(n float64) Value { return Value{kind: FieldTypeNumber, number: n} }

// CurrencyValue builds a monetary value.
func CurrencyValue(n float64) Value { return Value{kind: FieldTypeCurrency, number: n} }

// DateValue builds a date value.
func DateValue(t time.Time) Value { return Value{kind: FieldTypeDate, date: t} }

// CheckboxValue builds a boolean value.
func CheckboxValue(b bool) Value { return Value{kind: FieldTypeCheckbox, checked: b} }

// Kind returns the tag of the value; empty for an unset value.
func (v Value) Kind() FieldType { return v.kind }

// IsSet reports whether the value carries a kind.
func (v Value) IsSet() bool { return v.kind != "" }

// Text returns the string payload of text, textarea and select values.
func (v Value) Text() string { return v.text }

// Number returns the numeric payload of number and currency values.
func (v Value) Number() (float64, bool) {
	if !v.kind.Numeric() {
		return 0, false
	}
	return v.number, true
}

// Date returns the payload of a date value.
func (v Value) Date() (time.Time, bool) {
	if v.kind != FieldTypeDate {
		return time.Time{}, false
	}
	return v.date, true
}

// Checked returns the payload of a checkbox value.
func (v Value) Checked() bool { return v.kind == FieldTypeCheckbox && v.checked }

// Equal reports whether both values carry the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch {
	case v.kind.Numeric():
		return v.number == other.number
	case v.kind == FieldTypeDate:
		return v.date.Equal(other.date)
	case v.kind == FieldTypeCheckbox:
		return v.checked == other.checked
	default:
		return v.text == other.text
	}
}

// Empty reports whether the value counts as missing for a required field.
// Numbers are never empty once set; an unticked checkbox is.
func (v Value) Empty() bool {
	switch v.kind {
	case "":
		return true
	case FieldTypeText, FieldTypeTextarea, FieldTypeSelect:
		return strings.TrimSpace(v.text) == ""
	case FieldTypeDate:
		return v.date.IsZero()
	case FieldTypeCheckbox:
		return !v.checked
	default:
		return false
	}
}

// String returns the raw stringification used for pattern checks and for
// substitution of kinds without special formatting.
func (v Value) String() string {
	switch v.kind {
	case FieldTypeNumber, FieldTypeCurrency:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case FieldTypeDate:
		if v.date.IsZero() {
			return ""
		}
		return formatDate(v.date)
	case FieldTypeCheckbox:
		return strconv.FormatBool(v.checked)
	default:
		return v.text
	}
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(time.RFC3339)
}

type valueJSON struct {
	Type  FieldType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"type": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsSet() {
		return []byte("null"), nil
	}
	var payload any
	switch v.kind {
	case FieldTypeNumber, FieldTypeCurrency:
		payload = v.number
	case FieldTypeCheckbox:
		payload = v.checked
	case FieldTypeDate:
		payload = v.String()
	default:
		payload = v.text
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Type: v.kind, Value: raw})
}

// UnmarshalJSON decodes the tagged form. Bare JSON scalars are accepted and
// tagged by their JSON type.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*v = Value{}
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var tagged valueJSON
		if err := json.Unmarshal(data, &tagged); err != nil {
			return fmt.Errorf("model: decode value: %w", err)
		}
		var raw any
		if len(tagged.Value) > 0 {
			if err := json.Unmarshal(tagged.Value, &raw); err != nil {
				return fmt.Errorf("model: decode value payload: %w", err)
			}
		}
		decoded, err := Coerce(tagged.Type, raw)
		if err != nil {
			return err
		}
		*v = decoded
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: decode value: %w", err)
	}
	*v = Infer(raw)
	return nil
}

// ErrUnsupportedValue is returned when a raw value cannot be converted into
// the requested field kind.
var ErrUnsupportedValue = errors.New("model: unsupported value")

// Coerce converts loosely typed input (decoded JSON/YAML, CLI strings) into
// a Value of the requested kind. A nil input yields the unset Value.
func Coerce(kind FieldType, raw any) (Value, error) {
	if raw == nil {
		return Value{}, nil
	}
	if existing, ok := raw.(Value); ok {
		if !existing.IsSet() || existing.kind == kind {
			return existing, nil
		}
		switch {
		case existing.kind.Numeric():
			raw = existing.number
		case existing.kind == FieldTypeDate:
			raw = existing.date
		case existing.kind == FieldTypeCheckbox:
			raw = existing.checked
		default:
			raw = existing.text
		}
	}

	switch kind {
	case FieldTypeText, FieldTypeTextarea, FieldTypeSelect, "":
		if kind == "" {
			kind = FieldTypeText
		}
		return Value{kind: kind, text: stringify(raw)}, nil
	case FieldTypeNumber, FieldTypeCurrency:
		n, err := toFloat(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v is not a number", ErrUnsupportedValue, raw)
		}
		return Value{kind: kind, number: n}, nil
	case FieldTypeDate:
		t, err := toDate(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v is not a date", ErrUnsupportedValue, raw)
		}
		return DateValue(t), nil
	case FieldTypeCheckbox:
		b, err := toBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v is not a boolean", ErrUnsupportedValue, raw)
		}
		return CheckboxValue(b), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown field type %q", ErrUnsupportedValue, kind)
	}
}

// Infer tags raw input by its Go type. Used for keys the template schema
// does not declare.
func Infer(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{}
	case Value:
		return v
	case string:
		return TextValue(v)
	case bool:
		return CheckboxValue(v)
	case time.Time:
		return DateValue(v)
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		n, err := toFloat(v)
		if err != nil {
			return TextValue(stringify(v))
		}
		return NumberValue(n)
	default:
		return TextValue(stringify(v))
	}
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case time.Time:
		return formatDate(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(v))
		if cleaned == "" {
			return 0, errors.New("empty number")
		}
		return strconv.ParseFloat(cleaned, 64)
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", raw)
	}
}

func toDate(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date %q", v)
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", raw)
	}
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "y", "on", "checked":
			return true, nil
		case "no", "n", "off", "":
			return false, nil
		}
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		n, err := toFloat(raw)
		if err != nil {
			return false, err
		}
		return n != 0, nil
	}
}
