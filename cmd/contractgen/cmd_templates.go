package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/builtins"
	"github.com/goliatone/go-contractgen/pkg/model"
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"tpl"},
	Short:   "Manage contract templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		eng, cleanup, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		templates, err := eng.Templates(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tVERSION\tACTIVE\tFIELDS")
		for _, tpl := range templates {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\n", tpl.ID, tpl.Name, tpl.Type, tpl.Version, tpl.IsActive, len(tpl.RequiredFields))
		}
		return w.Flush()
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <template-id>",
	Short: "Print a template and its field schema as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		eng, cleanup, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		tpl, ok, err := eng.Template(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return &model.NotFoundError{Kind: "template", ID: args[0]}
		}
		return writeJSON(cmd, tpl)
	},
}

var templatesSchemaCmd = &cobra.Command{
	Use:   "schema <template-id>",
	Short: "Print the OpenAPI schema of a template's field values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		eng, cleanup, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		schema, err := eng.TemplateSchema(ctx, args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd, schema)
	},
}

var templatesUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a YAML or JSON template draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		draft, err := builtins.ParseDraft(data, args[0])
		if err != nil {
			return err
		}

		eng, cleanup, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		tpl, err := eng.UploadTemplate(ctx, draft)
		if err != nil {
			return err
		}
		logger.Info("template uploaded", zap.String("template_id", tpl.ID), zap.String("version", tpl.Version))
		return writeJSON(cmd, tpl)
	},
}

var templatesDeactivateCmd = &cobra.Command{
	Use:   "deactivate <template-id>",
	Short: "Stop offering a template for new contracts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		eng, cleanup, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		tpl, err := eng.DeactivateTemplate(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "template %s deactivated\n", tpl.ID)
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesSchemaCmd)
	templatesCmd.AddCommand(templatesUploadCmd)
	templatesCmd.AddCommand(templatesDeactivateCmd)
}

func writeJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
