// Command render-builtins writes every built-in template, filled with sample
// values, in every export format. Useful for eyeballing renderer changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-contractgen"
	"github.com/goliatone/go-contractgen/pkg/model"
)

func main() {
	outDir := flag.String("out", "tmp/builtins", "Directory to write documents to")
	flag.Parse()

	ctx := context.Background()
	eng, err := contractgen.New(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal(err)
	}

	templates, err := eng.Templates(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, tpl := range templates {
		created, err := eng.CreateContract(ctx, tpl.ID, contractgen.Input{
			Title:       tpl.Name + " (sample)",
			FieldValues: sampleValues(tpl),
			Parties: []contractgen.Party{
				{Role: "client", Name: "Sample Client"},
				{Role: "contractor", Name: "Sample Contractor", Company: "Sample Paving LLC"},
			},
		})
		if err != nil {
			log.Fatalf("%s: %v", tpl.ID, err)
		}
		artifacts, err := eng.ExportAll(ctx, created.ID)
		if err != nil {
			log.Fatalf("%s: %v", tpl.ID, err)
		}
		for _, artifact := range artifacts {
			path := filepath.Join(*outDir, tpl.ID+"."+artifact.Format)
			if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
				log.Fatal(err)
			}
			fmt.Println(path)
		}
		if len(created.Violations) > 0 {
			fmt.Fprintf(os.Stderr, "%s: %d violations in sample values\n", tpl.ID, len(created.Violations))
		}
	}
}

func sampleValues(tpl model.Template) map[string]model.Value {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make(map[string]model.Value, len(tpl.RequiredFields))
	for _, field := range tpl.RequiredFields {
		rule := field.Validation
		switch field.Type {
		case model.FieldTypeNumber:
			out[field.FieldID] = model.NumberValue(sampleNumber(rule, 100))
		case model.FieldTypeCurrency:
			out[field.FieldID] = model.CurrencyValue(sampleNumber(rule, 1250))
		case model.FieldTypeDate:
			out[field.FieldID] = model.DateValue(start)
		case model.FieldTypeCheckbox:
			out[field.FieldID] = model.CheckboxValue(true)
		case model.FieldTypeSelect:
			if rule != nil && len(rule.Options) > 0 {
				out[field.FieldID] = model.SelectValue(rule.Options[0])
				continue
			}
			out[field.FieldID] = model.SelectValue("standard")
		case model.FieldTypeTextarea:
			out[field.FieldID] = model.TextareaValue("Sample " + field.Label + ".\n\nSecond paragraph.")
		default:
			if rule != nil && rule.Pattern != "" {
				// Patterned fields are left for the violation report.
				continue
			}
			out[field.FieldID] = model.TextValue("Sample " + field.Label)
		}
	}
	return out
}

func sampleNumber(rule *model.ValidationRule, fallback float64) float64 {
	if rule == nil {
		return fallback
	}
	n := fallback
	if rule.Max != nil && n > *rule.Max {
		n = *rule.Max
	}
	if rule.Min != nil && n < *rule.Min {
		n = *rule.Min
	}
	return n
}
