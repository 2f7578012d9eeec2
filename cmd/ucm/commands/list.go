package commands

import (
	"fmt"

	"github.com/dyluth/ucm/internal/catalog"
	"github.com/dyluth/ucm/internal/printer"
	"github.com/dyluth/ucm/internal/render"
	"github.com/dyluth/ucm/internal/timespec"
	"github.com/dyluth/ucm/pkg/usecase"
	"github.com/spf13/cobra"
)

type listOptions struct {
	status         string
	category       string
	priority       string
	tag            string
	implementation string
	search         string
	since          string
	until          string
	json           bool
}

func newListCmd(root *rootOptions) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List use cases with filtering",
		Long: `List use cases as a table, or as a JSON array with --json.

All filters are combined: a use case must match every one given.

Time Filters:
  --since  - Created at or after this time
  --until  - Created at or before this time
  Accepts durations ("2h", "7d"), dates ("2025-10-29") or RFC3339.

Examples:
  # Everything
  ucm list

  # High priority work in progress
  ucm list --priority high --implementation work_in_progress

  # Search titles, descriptions and tags
  ucm list --search gpt --since 30d

  # Machine readable
  ucm list --status archived --json | jq '.[].id'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			since, until, err := timespec.ParseRange(opts.since, opts.until)
			if err != nil {
				return printer.Error("invalid time filter", err.Error(), nil)
			}

			sess, err := root.openSession(cmd.Context(), "quiet")
			if err != nil {
				return err
			}
			defer sess.Close()

			criteria := catalog.Criteria{
				Status:               usecase.Status(opts.status),
				Category:             opts.category,
				Priority:             usecase.Priority(opts.priority),
				Tag:                  opts.tag,
				ImplementationStatus: usecase.ImplementationStatus(opts.implementation),
				Search:               opts.search,
				Since:                since,
				Until:                until,
			}
			items := sess.catalog.List(criteria)

			out := cmd.OutOrStdout()
			if opts.json {
				return render.JSON(out, items)
			}
			if len(items) == 0 && criteria.HasFilters() {
				fmt.Fprintln(out, "No use cases match these filters.")
				return nil
			}
			_, err = render.Table(out, items)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.status, "status", "s", "", "Filter by status")
	flags.StringVarP(&opts.category, "category", "c", "", "Filter by category")
	flags.StringVarP(&opts.priority, "priority", "p", "", "Filter by priority")
	flags.StringVar(&opts.tag, "tag", "", "Filter by tag")
	flags.StringVar(&opts.implementation, "implementation", "", "Filter by implementation status")
	flags.StringVar(&opts.search, "search", "", "Case-insensitive search in title, description and tags")
	flags.StringVar(&opts.since, "since", "", "Show use cases created after time (duration or RFC3339)")
	flags.StringVar(&opts.until, "until", "", "Show use cases created before time (duration or RFC3339)")
	flags.BoolVar(&opts.json, "json", false, "Output a JSON array")

	return cmd
}
