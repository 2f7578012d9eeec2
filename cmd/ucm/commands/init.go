package commands

import (
	"fmt"
	"os"

	"github.com/dyluth/ucm/internal/printer"
	"github.com/dyluth/ucm/internal/scaffold"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create ucm.yml and the local data directory",
		Long: `Initialize ucm in the current directory.

Creates:
  • ucm.yml - Configuration file with every setting and its default
  • data/use-cases.json - Empty local catalog (kept if it already exists)

Use --force to overwrite an existing ucm.yml. Use case data is never removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing ucm.yml")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if !force {
		if err := scaffold.CheckExisting(dir); err != nil {
			return printer.Error(
				"already initialized",
				err.Error(),
				nil,
			)
		}
	}

	res, err := scaffold.Initialize(dir, force, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess(cmd.OutOrStdout(), res)
	return nil
}
