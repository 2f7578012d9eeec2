package commands

import (
	"github.com/dyluth/ucm/internal/printer"
	"github.com/dyluth/ucm/internal/render"
	"github.com/spf13/cobra"
)

func newAddCmd(root *rootOptions) *cobra.Command {
	var rf recordFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new use case",
		Long: `Add a new AI use case to the catalog.

Unset fields take their defaults: category "general", priority "medium",
status "active", implementation "backlog", effort and benefit 5.

Examples:
  # Minimal
  ucm add --title "Summarize support tickets"

  # Fully described
  ucm add -t "Code review helper" -m gpt-4 -p high --effort 3 --benefit 8 \
    --tag dev,review --example "diff -> comments"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := rf.fields(cmd)
			if err != nil {
				return err
			}

			sess, err := root.openSession(cmd.Context(), "quiet")
			if err != nil {
				return err
			}
			defer sess.Close()

			u, err := sess.catalog.Create(cmd.Context(), fields)
			if err != nil {
				return printer.ErrorWithContext(
					"failed to add use case",
					err.Error(),
					map[string]string{"Backend": sess.catalog.Backend()},
					nil,
				)
			}

			out := cmd.OutOrStdout()
			printer.Success(out, "Use case added with ID %s\n\n", u.ID)
			render.Detail(out, u)
			return nil
		},
	}

	rf.register(cmd, false)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
