package validation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-contractgen/pkg/model"
)

func ptr(v float64) *float64 { return &v }

func schemaFixture() []model.FieldDescriptor {
	return []model.FieldDescriptor{
		{FieldID: "project.name", Type: model.FieldTypeText, Required: true},
		{FieldID: "client.name", Type: model.FieldTypeText, Required: true},
		{FieldID: "client.email", Type: model.FieldTypeText, Validation: &model.ValidationRule{Pattern: `^[^@\s]+@[^@\s]+$`}},
		{FieldID: "payment.total", Type: model.FieldTypeCurrency, Required: true, Validation: &model.ValidationRule{Min: ptr(100), Max: ptr(10000)}},
		{FieldID: "contract.startDate", Type: model.FieldTypeDate, Validation: &model.ValidationRule{Min: ptr(5)}},
		{FieldID: "terms.accepted", Type: model.FieldTypeCheckbox, Required: true},
	}
}

func validValues() map[string]model.Value {
	return map[string]model.Value{
		"project.name":   model.TextValue("Driveway"),
		"client.name":    model.TextValue("Acme"),
		"client.email":   model.TextValue("ops@acme.test"),
		"payment.total":  model.CurrencyValue(1200),
		"terms.accepted": model.CheckboxValue(true),
	}
}

func TestValidate_Valid(t *testing.T) {
	if got := Validate(schemaFixture(), validValues()); len(got) != 0 {
		t.Fatalf("expected no violations, got %+v", got)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	values := map[string]model.Value{
		"client.email":   model.TextValue("not-an-email"),
		"payment.total":  model.CurrencyValue(50000),
		"terms.accepted": model.CheckboxValue(false),
	}

	got := Validate(schemaFixture(), values)
	want := []model.Violation{
		{FieldID: "project.name", Rule: RuleRequired, Message: "project.name is required"},
		{FieldID: "client.name", Rule: RuleRequired, Message: "client.name is required"},
		{FieldID: "client.email", Rule: RulePattern, Message: `client.email does not match pattern "^[^@\\s]+@[^@\\s]+$"`},
		{FieldID: "payment.total", Rule: RuleMax, Message: "payment.total must be at most 10000"},
		{FieldID: "terms.accepted", Rule: RuleRequired, Message: "terms.accepted is required"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_MissingFieldReportedOnce(t *testing.T) {
	values := validValues()
	delete(values, "project.name")
	delete(values, "client.name")

	var hits int
	for _, violation := range Validate(schemaFixture(), values) {
		if violation.FieldID == "project.name" {
			hits++
		}
	}
	if hits != 1 {
		t.Fatalf("expected exactly one violation for project.name, got %d", hits)
	}

	err := Error(Validate(schemaFixture(), values))
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if diff := cmp.Diff([]string{"project.name", "client.name"}, verr.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_UnknownKeysIgnored(t *testing.T) {
	values := validValues()
	values["unrelated.key"] = model.TextValue("")
	values["another"] = model.NumberValue(-1)

	if got := Validate(schemaFixture(), values); len(got) != 0 {
		t.Fatalf("unknown keys must not add violations, got %+v", got)
	}
}

func TestValidate_Bounds(t *testing.T) {
	fields := []model.FieldDescriptor{
		{FieldID: "area", Type: model.FieldTypeNumber, Validation: &model.ValidationRule{Min: ptr(1), Max: ptr(10)}},
		{FieldID: "label", Type: model.FieldTypeText, Validation: &model.ValidationRule{Min: ptr(100)}},
	}
	tests := []struct {
		name  string
		value model.Value
		want  []string
	}{
		{"inside", model.NumberValue(5), nil},
		{"at lower bound", model.NumberValue(1), nil},
		{"below", model.NumberValue(0), []string{RuleMin}},
		{"above", model.NumberValue(11), []string{RuleMax}},
		{"numeric text", model.TextValue("42"), []string{RuleMax}},
		{"non numeric text", model.TextValue("many"), []string{RuleType}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(fields, map[string]model.Value{
				"area":  tt.value,
				"label": model.TextValue("short"),
			})
			var rules []string
			for _, violation := range got {
				rules = append(rules, violation.Rule)
			}
			if diff := cmp.Diff(tt.want, rules); diff != "" {
				t.Fatalf("rules mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_TypeMismatch(t *testing.T) {
	fields := []model.FieldDescriptor{
		{FieldID: "payment.totalCost", Type: model.FieldTypeCurrency, Required: true, Validation: &model.ValidationRule{Min: ptr(1)}},
		{FieldID: "contract.startDate", Type: model.FieldTypeDate},
		{FieldID: "terms.accepted", Type: model.FieldTypeCheckbox},
		{FieldID: "project.type", Type: model.FieldTypeSelect},
	}
	tests := []struct {
		name   string
		values map[string]model.Value
		want   []model.Violation
	}{
		{
			name: "convertible kinds pass",
			values: map[string]model.Value{
				"payment.totalCost":  model.TextValue("$1,200"),
				"contract.startDate": model.TextValue("2024-05-01"),
				"terms.accepted":     model.TextValue("yes"),
				"project.type":       model.TextValue("asphalt"),
			},
		},
		{
			name: "text in currency field",
			values: map[string]model.Value{
				"payment.totalCost": model.TextValue("lots"),
			},
			want: []model.Violation{
				{FieldID: "payment.totalCost", Rule: RuleType, Message: "payment.totalCost is not a valid currency value"},
			},
		},
		{
			name: "every mismatch reported",
			values: map[string]model.Value{
				"payment.totalCost":  model.CurrencyValue(10),
				"contract.startDate": model.NumberValue(3),
				"terms.accepted":     model.TextValue("maybe"),
			},
			want: []model.Violation{
				{FieldID: "contract.startDate", Rule: RuleType, Message: "contract.startDate is not a valid date value"},
				{FieldID: "terms.accepted", Rule: RuleType, Message: "terms.accepted is not a valid checkbox value"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(fields, tt.values)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("violations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_ZeroIsPresent(t *testing.T) {
	fields := []model.FieldDescriptor{{FieldID: "qty", Type: model.FieldTypeNumber, Required: true}}
	if got := Validate(fields, map[string]model.Value{"qty": model.NumberValue(0)}); len(got) != 0 {
		t.Fatalf("zero should satisfy required, got %+v", got)
	}
}

func TestValidate_InvalidPatternIsViolation(t *testing.T) {
	fields := []model.FieldDescriptor{{FieldID: "code", Type: model.FieldTypeText, Validation: &model.ValidationRule{Pattern: "("}}}
	got := Validate(fields, map[string]model.Value{"code": model.TextValue("x")})
	if len(got) != 1 || got[0].Rule != RulePattern {
		t.Fatalf("expected a single pattern violation, got %+v", got)
	}
}

func TestValidate_EmptyOptionalSkipsRules(t *testing.T) {
	fields := []model.FieldDescriptor{{FieldID: "code", Type: model.FieldTypeText, Validation: &model.ValidationRule{Pattern: "^[A-Z]+$"}}}
	if got := Validate(fields, map[string]model.Value{"code": model.TextValue("  ")}); len(got) != 0 {
		t.Fatalf("expected no violations for empty optional value, got %+v", got)
	}
}

func TestError_Nil(t *testing.T) {
	if err := Error(nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
