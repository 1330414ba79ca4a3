// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/schema"
)

// Epoch is the first instant returned by Clock.
var Epoch = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// Clock returns a time source starting at Epoch that advances one minute on
// every call, so ordering by modification time is deterministic.
func Clock() func() time.Time {
	var (
		mu  sync.Mutex
		now = Epoch
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
}

// Sequence returns an id generator yielding prefix-1, prefix-2, ...
func Sequence(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// MustTemplate derives the field schema of draft the way an upload would and
// returns an active template. The id defaults to "tpl".
func MustTemplate(t *testing.T, draft model.TemplateDraft) model.Template {
	t.Helper()

	builder := schema.NewBuilder()
	fields, err := builder.Build(draft)
	if err != nil {
		t.Fatalf("build template schema: %v", err)
	}
	id := draft.ID
	if id == "" {
		id = "tpl"
	}
	return model.Template{
		ID:                id,
		Name:              draft.Name,
		Type:              model.NormalizeTemplateType(draft.Type),
		Description:       draft.Description,
		VirginiaCompliant: draft.VirginiaCompliant,
		Content:           draft.Content,
		RequiredFields:    fields,
		CalculatedFields:  builder.Calculated(draft.CalculatedFields),
		LegalClauses:      draft.LegalClauses,
		Version:           "1.0",
		IsActive:          true,
		Created:           Epoch,
		LastModified:      Epoch,
	}
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
