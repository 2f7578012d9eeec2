package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/ucm/internal/printer"
	"github.com/spf13/cobra"
)

func newDeleteCmd(root *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a use case",
		Long: `Delete a use case. Asks for confirmation unless --yes is given.

Run "ucm backup" first if you may want it back.`,
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

			out := cmd.OutOrStdout()
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete %q (%s)?", u.Title, shortID(u.ID)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			if _, err := sess.catalog.Delete(cmd.Context(), id); err != nil {
				return printer.ErrorWithContext(
					"failed to delete use case",
					err.Error(),
					map[string]string{"ID": id, "Backend": sess.catalog.Backend()},
					nil,
				)
			}

			printer.Success(out, "Deleted use case %s\n", u.ID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// confirm asks a yes/no question and reads one line of answer. Anything but
// "y" or "yes" is a no, including end of input.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
