package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/contract"
	"github.com/goliatone/go-contractgen/pkg/engine"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/prompt"
)

const formatText = "text"

var generateOpts struct {
	templateID   string
	templateType string
	valuesPath   string
	sets         []string
	parties      []string
	title        string
	interactive  bool
	format       string
	output       string
	strict       bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create a contract and write its document",
	Long: `Create a contract from a template and field values, then export it.

Values come from a YAML/JSON file (--values), repeated --set flags, and
interactive prompts (--interactive), in that order of precedence, lowest
first. Missing or invalid values are reported but do not stop generation
unless --strict is set; unresolved placeholders are marked in the output.`,
	Example: `  contractgen generate --type paving --values job.yaml --format pdf --output job.pdf
  contractgen generate --template builtin-va-paving --interactive --format text`,
	RunE: runGenerate,
}

func init() {
	flags := generateCmd.Flags()
	flags.StringVarP(&generateOpts.templateID, "template", "t", "", "Template id")
	flags.StringVar(&generateOpts.templateType, "type", "", "Use the active template of this type when --template is empty")
	flags.StringVar(&generateOpts.valuesPath, "values", "", "YAML or JSON file with title, parties and field values")
	flags.StringArrayVar(&generateOpts.sets, "set", nil, "Field value as field.id=value (repeatable)")
	flags.StringArrayVar(&generateOpts.parties, "party", nil, "Party as role=name[,company] (repeatable)")
	flags.StringVar(&generateOpts.title, "title", "", "Contract title")
	flags.BoolVarP(&generateOpts.interactive, "interactive", "i", false, "Prompt for field values")
	flags.StringVarP(&generateOpts.format, "format", "f", "", "Output format: html, pdf, docx or text (default from config)")
	flags.StringVarP(&generateOpts.output, "output", "o", "", "Output file, '-' for stdout")
	flags.BoolVar(&generateOpts.strict, "strict", false, "Fail when the values have validation violations")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	eng, cleanup, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	tpl, err := resolveTemplate(ctx, eng, generateOpts.templateID, generateOpts.templateType)
	if err != nil {
		return err
	}

	input, err := buildInput(ctx, tpl)
	if err != nil {
		return err
	}

	created, err := eng.CreateContract(ctx, tpl.ID, input)
	if err != nil {
		return err
	}
	logger.Info("contract created",
		zap.String("contract_id", created.ID),
		zap.String("template_id", tpl.ID),
		zap.Int("violations", len(created.Violations)),
	)
	for _, violation := range created.Violations {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", violation.Message)
	}
	if generateOpts.strict && len(created.Violations) > 0 {
		return &model.ValidationError{Violations: created.Violations}
	}

	format := strings.ToLower(strings.TrimSpace(generateOpts.format))
	if format == "" {
		format = cfg.Export.DefaultFormat
	}

	var (
		data     []byte
		filename string
	)
	if format == formatText {
		text, err := eng.GenerateContractDocument(ctx, created.ID)
		if err != nil {
			return err
		}
		data, filename = []byte(text), created.ID+".txt"
	} else {
		artifact, err := eng.ExportContract(ctx, created.ID, format)
		if err != nil {
			return err
		}
		data, filename = artifact.Data, artifact.Filename
	}
	return writeOutput(cmd.OutOrStdout(), generateOpts.output, filename, format, data)
}

func resolveTemplate(ctx context.Context, eng *engine.Engine, id, kind string) (model.Template, error) {
	if id != "" {
		tpl, ok, err := eng.Template(ctx, id)
		if err != nil {
			return model.Template{}, err
		}
		if !ok {
			return model.Template{}, &model.NotFoundError{Kind: "template", ID: id}
		}
		return tpl, nil
	}
	if kind == "" {
		return model.Template{}, errors.New("either --template or --type is required")
	}
	tpl, ok, err := eng.ActiveTemplateFor(ctx, model.NormalizeTemplateType(kind))
	if err != nil {
		return model.Template{}, err
	}
	if !ok {
		return model.Template{}, &model.NotFoundError{Kind: "template type", ID: kind}
	}
	return tpl, nil
}

func buildInput(ctx context.Context, tpl model.Template) (contract.Input, error) {
	var file inputFile
	if generateOpts.valuesPath != "" {
		loaded, err := readInputFile(generateOpts.valuesPath)
		if err != nil {
			return contract.Input{}, err
		}
		file = loaded
	}
	sets, err := parseAssignments(generateOpts.sets)
	if err != nil {
		return contract.Input{}, err
	}
	parties, err := parseParties(generateOpts.parties)
	if err != nil {
		return contract.Input{}, err
	}

	values, err := contract.Values(tpl, mergeValues(file.Values, sets))
	if err != nil {
		return contract.Input{}, err
	}

	if generateOpts.interactive {
		collected, err := prompt.NewCollector(prompt.WithDriver(prompt.NewSurveyDriver(os.Stderr))).Collect(ctx, tpl, values)
		if err != nil {
			return contract.Input{}, err
		}
		for key, value := range collected {
			values[key] = value
		}
	}

	title := file.Title
	if generateOpts.title != "" {
		title = generateOpts.title
	}
	return contract.Input{
		Title:       title,
		FieldValues: values,
		Parties:     append(file.Parties, parties...),
	}, nil
}

// writeOutput sends textual formats to stdout by default and writes binary
// ones to their export filename.
func writeOutput(stdout io.Writer, output, filename, format string, data []byte) error {
	if output == "" {
		switch format {
		case formatText, "html":
			output = "-"
		default:
			output = filename
		}
	}
	if output == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("document written", zap.String("path", output), zap.Int("bytes", len(data)))
	return nil
}
