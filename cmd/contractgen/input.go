package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// inputFile is the document accepted by --values. A file without any of the
// three keys is read as a bare map of field values.
type inputFile struct {
	Title   string         `yaml:"title"`
	Parties []model.Party  `yaml:"parties"`
	Values  map[string]any `yaml:"values"`
}

func readInputFile(path string) (inputFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return inputFile{}, fmt.Errorf("read values: %w", err)
	}
	var doc inputFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return inputFile{}, fmt.Errorf("parse values %s: %w", path, err)
	}
	if doc.Title == "" && len(doc.Parties) == 0 && doc.Values == nil {
		var bare map[string]any
		if err := yaml.Unmarshal(data, &bare); err != nil {
			return inputFile{}, fmt.Errorf("parse values %s: %w", path, err)
		}
		doc.Values = bare
	}
	doc.Values = flattenValues(doc.Values)
	return doc, nil
}

// flattenValues turns nested maps into dotted field ids so that
// {client: {name: x}} and {"client.name": x} are equivalent.
func flattenValues(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	var walk func(prefix string, value any)
	walk = func(prefix string, value any) {
		nested, ok := value.(map[string]any)
		if !ok || len(nested) == 0 {
			out[prefix] = value
			return
		}
		for key, child := range nested {
			walk(prefix+"."+key, child)
		}
	}
	for key, value := range in {
		walk(key, value)
	}
	return out
}

// parseAssignments reads repeated key=value flags.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want field.id=value", pair)
		}
		out[key] = value
	}
	return out, nil
}

// parseParties reads repeated role=name[,company] flags.
func parseParties(flags []string) ([]model.Party, error) {
	out := make([]model.Party, 0, len(flags))
	for _, flag := range flags {
		role, rest, ok := strings.Cut(flag, "=")
		role = strings.TrimSpace(role)
		if !ok || role == "" || strings.TrimSpace(rest) == "" {
			return nil, fmt.Errorf("invalid --party %q, want role=name[,company]", flag)
		}
		name, company, _ := strings.Cut(rest, ",")
		out = append(out, model.Party{
			Role:    role,
			Name:    strings.TrimSpace(name),
			Company: strings.TrimSpace(company),
		})
	}
	return out, nil
}

func mergeValues(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		for key, value := range layer {
			out[key] = value
		}
	}
	return out
}
