// Package builtins ships the templates seeded at startup and loads template
// definitions from JSON or YAML files.
package builtins

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// LoadFS walks fsys and parses every JSON/YAML file as a template draft.
// Files are visited in lexical order; a nil filesystem yields no drafts.
func LoadFS(fsys fs.FS) ([]model.TemplateDraft, error) {
	if fsys == nil {
		return nil, nil
	}

	var drafts []model.TemplateDraft
	ids := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isTemplateFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("builtins: read %s: %w", path, err)
		}
		draft, err := ParseDraft(data, path)
		if err != nil {
			return err
		}
		if draft.ID != "" {
			if previous, exists := ids[draft.ID]; exists {
				return fmt.Errorf("builtins: duplicate template id %q (files %s and %s)", draft.ID, previous, path)
			}
			ids[draft.ID] = path
		}
		drafts = append(drafts, draft)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

// ParseDraft decodes a single template definition. JSON is tried first, then
// YAML.
func ParseDraft(data []byte, source string) (model.TemplateDraft, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return model.TemplateDraft{}, fmt.Errorf("builtins: file %s is empty", source)
	}

	var draft model.TemplateDraft
	if err := json.Unmarshal(data, &draft); err == nil {
		return draft, nil
	}
	draft = model.TemplateDraft{}
	if err := yaml.Unmarshal(data, &draft); err != nil {
		return model.TemplateDraft{}, fmt.Errorf("builtins: parse %s: %w", source, err)
	}
	return draft, nil
}

func isTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
