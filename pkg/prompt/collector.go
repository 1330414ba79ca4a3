// Package prompt collects contract field values interactively, one prompt
// per template field, validating each answer as it is entered.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

// ErrAborted signals the user aborted input (e.g., Ctrl+C).
var ErrAborted = errors.New("prompt: aborted")

// Option configures the Collector.
type Option func(*Collector)

// WithDriver overrides the prompt driver. Defaults to survey on stdout.
func WithDriver(driver Driver) Option {
	return func(c *Collector) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithSkipOptional leaves optional fields out of the interview.
func WithSkipOptional(skip bool) Option {
	return func(c *Collector) {
		c.skipOptional = skip
	}
}

// Collector asks for template field values.
type Collector struct {
	driver       Driver
	skipOptional bool
}

// NewCollector constructs a Collector.
func NewCollector(options ...Option) *Collector {
	c := &Collector{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.driver == nil {
		c.driver = NewSurveyDriver(nil)
	}
	return c
}

// Collect prompts for every field of tpl in schema order. Values in existing
// are offered as defaults. Optional fields left blank are omitted from the
// result.
func (c *Collector) Collect(ctx context.Context, tpl model.Template, existing map[string]model.Value) (map[string]model.Value, error) {
	out := make(map[string]model.Value, len(tpl.RequiredFields))
	if len(tpl.RequiredFields) == 0 {
		return out, nil
	}
	if err := c.driver.Info(ctx, fmt.Sprintf("%s (%d fields)", tpl.Name, len(tpl.RequiredFields))); err != nil {
		return nil, err
	}

	for _, field := range tpl.RequiredFields {
		if c.skipOptional && !field.Required {
			if value, ok := existing[field.FieldID]; ok {
				out[field.FieldID] = value
			}
			continue
		}
		value, err := c.ask(ctx, field, existing[field.FieldID])
		if err != nil {
			return nil, fmt.Errorf("prompt: %s: %w", field.FieldID, err)
		}
		if value.IsSet() {
			out[field.FieldID] = value
		}
	}
	return out, nil
}

func (c *Collector) ask(ctx context.Context, field model.FieldDescriptor, current model.Value) (model.Value, error) {
	message := field.Label
	if message == "" {
		message = field.FieldID
	}
	if !field.Required {
		message += " (optional)"
	}
	defaultText := ""
	if current.IsSet() {
		defaultText = current.String()
	}

	switch field.Type {
	case model.FieldTypeCheckbox:
		checked, err := c.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: current.Checked(),
			Help:    field.HelpText,
		})
		if err != nil {
			return model.Value{}, err
		}
		return model.CheckboxValue(checked), nil

	case model.FieldTypeSelect:
		if options := selectOptions(field); len(options) > 0 {
			idx, err := c.driver.Select(ctx, SelectConfig{
				Message:      message,
				Options:      options,
				DefaultIndex: indexOf(options, defaultText),
				Help:         field.HelpText,
			})
			if err != nil {
				return model.Value{}, err
			}
			if idx < 0 {
				return model.Value{}, nil
			}
			return model.SelectValue(options[idx]), nil
		}

	case model.FieldTypeTextarea:
		answer, err := c.driver.TextArea(ctx, TextAreaConfig{
			Message:   message,
			Default:   defaultText,
			Help:      field.HelpText,
			Validator: answerValidator(field),
		})
		if err != nil {
			return model.Value{}, err
		}
		return answerValue(field, answer)
	}

	answer, err := c.driver.Input(ctx, InputConfig{
		Message:   message,
		Default:   defaultText,
		Help:      help(field),
		Validator: answerValidator(field),
	})
	if err != nil {
		return model.Value{}, err
	}
	return answerValue(field, answer)
}

// answerValidator checks a raw answer the way the contract manager will:
// conversion to the declared type first, then the field's rules.
func answerValidator(field model.FieldDescriptor) func(string) error {
	return func(answer string) error {
		value, err := answerValue(field, answer)
		if err != nil {
			return err
		}
		violations := validation.Validate([]model.FieldDescriptor{field}, map[string]model.Value{field.FieldID: value})
		if len(violations) > 0 {
			return errors.New(violations[0].Message)
		}
		return nil
	}
}

func answerValue(field model.FieldDescriptor, answer string) (model.Value, error) {
	if strings.TrimSpace(answer) == "" {
		return model.Value{}, nil
	}
	return model.Coerce(field.Type, answer)
}

func selectOptions(field model.FieldDescriptor) []string {
	if field.Validation == nil {
		return nil
	}
	return field.Validation.Options
}

func help(field model.FieldDescriptor) string {
	if field.HelpText != "" {
		return field.HelpText
	}
	switch field.Type {
	case model.FieldTypeDate:
		return "YYYY-MM-DD"
	case model.FieldTypeCurrency:
		return "Amount, e.g. 1200.00"
	}
	return ""
}
