package commands

import (
	"github.com/dyluth/ucm/internal/printer"
	"github.com/dyluth/ucm/internal/render"
	"github.com/spf13/cobra"
)

func newEditCmd(root *rootOptions) *cobra.Command {
	var rf recordFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a use case",
		Long: `Change fields of an existing use case. Only the flags given are applied.

Examples:
  ucm edit 3f2b9c --implementation implemented
  ucm edit 3f2b9c --status archived --notes "superseded by ticket triage"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := rf.fields(cmd)
			if err != nil {
				return err
			}
			if fields.IsEmpty() {
				return printer.Error(
					"nothing to update",
					"No field flags were given.",
					[]string{"See the available fields:\n  ucm edit --help"},
				)
			}

			sess, err := root.openSession(cmd.Context(), "quiet")
			if err != nil {
				return err
			}
			defer sess.Close()

			id, err := resolveID(sess.catalog, args[0])
			if err != nil {
				return err
			}

			u, err := sess.catalog.Update(cmd.Context(), id, fields)
			if err != nil {
				return printer.ErrorWithContext(
					"failed to update use case",
					err.Error(),
					map[string]string{"ID": id, "Backend": sess.catalog.Backend()},
					nil,
				)
			}

			out := cmd.OutOrStdout()
			printer.Success(out, "Use case %s updated\n\n", shortID(u.ID))
			render.Detail(out, u)
			return nil
		},
	}

	rf.register(cmd, true)
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
