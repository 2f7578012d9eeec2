package commands

import (
	"github.com/dyluth/ucm/internal/render"
	"github.com/spf13/cobra"
)

func newShowCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of a use case",
		Long: `Show every field of a single use case.

Accepts the full ID or a unique prefix of at least 6 characters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := root.openSession(cmd.Context(), "quiet")
			if err != nil {
				return err
			}
			defer sess.Close()

			id, err := resolveID(sess.catalog, args[0])
			if err != nil {
				return err
			}
			u, err := sess.catalog.Get(id)
			if err != nil {
				return err
			}

			if asJSON {
				return render.JSON(cmd.OutOrStdout(), u)
			}
			render.Detail(cmd.OutOrStdout(), u)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
