package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-contractgen/pkg/model"
)

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Inspect and advance stored contracts",
	Long: `Inspect and advance stored contracts.

Contracts only outlive a single invocation when storage.driver is postgres.`,
}

var contractsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored contracts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		eng, cleanup, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		contracts, err := eng.Contracts(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tTEMPLATE\tSTATUS\tVERSION\tVIOLATIONS")
		for _, c := range contracts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", c.ID, c.Title, c.TemplateID, c.Status, c.Version, len(c.Violations))
		}
		return w.Flush()
	},
}

var contractsShowCmd = &cobra.Command{
	Use:   "show <contract-id>",
	Short: "Print a contract as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		eng, cleanup, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		c, ok, err := eng.Contract(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return &model.NotFoundError{Kind: "contract", ID: args[0]}
		}
		return writeJSON(cmd, c)
	},
}

var contractsTransitionCmd = &cobra.Command{
	Use:   "transition <contract-id> <status>",
	Short: "Move a contract forward in its lifecycle",
	Long: `Move a contract forward: draft, pending_review, pending_signature, signed.
A contract with validation violations cannot be signed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		eng, cleanup, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		c, err := eng.TransitionContract(ctx, args[0], model.Status(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "contract %s is %s (version %d)\n", c.ID, c.Status, c.Version)
		return nil
	},
}

var exportDir string

var contractsExportCmd = &cobra.Command{
	Use:   "export <contract-id> [format...]",
	Short: "Export a contract to one or more formats",
	Long:  `Export a contract. Without formats every registered format is written.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		eng, cleanup, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		artifacts, err := eng.ExportAll(ctx, args[0], args[1:]...)
		if err != nil {
			return err
		}
		for _, artifact := range artifacts {
			path := filepath.Join(exportDir, artifact.Filename)
			if err := writeOutput(cmd.OutOrStdout(), path, artifact.Filename, artifact.Format, artifact.Data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return nil
	},
}

func init() {
	contractsExportCmd.Flags().StringVarP(&exportDir, "dir", "d", ".", "Directory to write exported files to")

	contractsCmd.AddCommand(contractsListCmd)
	contractsCmd.AddCommand(contractsShowCmd)
	contractsCmd.AddCommand(contractsTransitionCmd)
	contractsCmd.AddCommand(contractsExportCmd)
}
