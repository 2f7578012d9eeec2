package commands

import (
	"github.com/dyluth/ucm/internal/printer"
	"github.com/spf13/cobra"
)

func newBackupCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a timestamped snapshot of the catalog",
		Long: `Write every use case to a timestamped JSON file in the data directory.

The file is named <backend>-backup-<timestamp>.json (use-cases-backup-... for
the local file backend).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := root.openSession(cmd.Context(), "quiet")
			if err != nil {
				return err
			}
			defer sess.Close()

			path, err := sess.catalog.Backup(cmd.Context())
			if err != nil {
				return printer.ErrorWithContext(
					"backup failed",
					err.Error(),
					map[string]string{"Backend": sess.catalog.Backend(), "Data dir": sess.cfg.DataDir},
					nil,
				)
			}

			printer.Success(cmd.OutOrStdout(), "Backup created: %s\n", path)
			return nil
		},
	}
}
