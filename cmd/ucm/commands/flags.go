package commands

import (
	"fmt"
	"strings"

	"github.com/dyluth/ucm/internal/catalog"
	"github.com/dyluth/ucm/internal/printer"
	"github.com/dyluth/ucm/internal/resolver"
	"github.com/dyluth/ucm/pkg/usecase"
	"github.com/spf13/cobra"
)

// recordFlags are the use case fields settable from add and edit.
type recordFlags struct {
	title          string
	description    string
	category       string
	model          string
	priority       string
	status         string
	effort         int
	benefit        int
	implementation string
	prompt         string
	notes          string
	tags           []string
	examples       []string
}

func (f *recordFlags) register(cmd *cobra.Command, withStatus bool) {
	flags := cmd.Flags()
	flags.StringVarP(&f.title, "title", "t", "", "Short name of the use case")
	flags.StringVarP(&f.description, "description", "d", "", "What the use case does")
	flags.StringVarP(&f.category, "category", "c", "general", "Category")
	flags.StringVarP(&f.model, "model", "m", "", "AI model the use case targets (e.g. gpt-4)")
	flags.StringVarP(&f.priority, "priority", "p", string(usecase.PriorityMedium), "Priority: low, medium or high")
	flags.IntVar(&f.effort, "effort", 5, "Implementation effort, 1-10")
	flags.IntVar(&f.benefit, "benefit", 5, "Business benefit, 1-10")
	flags.StringVar(&f.implementation, "implementation", string(usecase.ImplementationBacklog), "Implementation status: backlog, work_in_progress, implemented or ignored")
	flags.StringVar(&f.prompt, "prompt", "", "Prompt or instructions")
	flags.StringVar(&f.notes, "notes", "", "Free-form notes")
	flags.StringSliceVar(&f.tags, "tag", nil, "Tag (repeatable or comma separated)")
	flags.StringArrayVar(&f.examples, "example", nil, "Example input/output (repeatable)")
	if withStatus {
		flags.StringVarP(&f.status, "status", "s", "", "Status: active, archived or draft")
	}
}

// fields converts the flags the user actually set into a partial record.
func (f *recordFlags) fields(cmd *cobra.Command) (usecase.Fields, error) {
	changed := cmd.Flags().Changed
	var out usecase.Fields

	if changed("title") {
		title := strings.TrimSpace(f.title)
		if title == "" {
			return out, printer.Error("invalid title", "The title cannot be empty.", nil)
		}
		out.Title = &title
	}
	if changed("description") {
		out.Description = usecase.String(f.description)
	}
	if changed("category") {
		out.Category = usecase.String(f.category)
	}
	if changed("model") {
		out.AIModel = usecase.String(f.model)
	}
	if changed("prompt") {
		out.Prompt = usecase.String(f.prompt)
	}
	if changed("notes") {
		out.Notes = usecase.String(f.notes)
	}
	if changed("tag") {
		out.Tags = cleanTags(f.tags)
	}
	if changed("example") {
		out.Examples = append([]string{}, f.examples...)
	}

	if changed("priority") {
		p := usecase.Priority(f.priority)
		if !p.Known() {
			return out, invalidChoice("priority", f.priority, usecase.Priorities())
		}
		out.Priority = &p
	}
	if changed("status") {
		s := usecase.Status(f.status)
		if !s.Known() {
			return out, invalidChoice("status", f.status, usecase.Statuses())
		}
		out.Status = &s
	}
	if changed("implementation") {
		s := usecase.ImplementationStatus(f.implementation)
		if !s.Known() {
			return out, invalidChoice("implementation", f.implementation, usecase.ImplementationStatuses())
		}
		out.ImplementationStatus = &s
	}

	if changed("effort") {
		if err := checkRating("effort", f.effort); err != nil {
			return out, err
		}
		out.ImplementationEffort = usecase.Int(f.effort)
	}
	if changed("benefit") {
		if err := checkRating("benefit", f.benefit); err != nil {
			return out, err
		}
		out.BusinessBenefit = usecase.Int(f.benefit)
	}

	return out, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func checkRating(name string, v int) error {
	if v < 1 || v > 10 {
		return printer.Error(
			fmt.Sprintf("invalid --%s", name),
			fmt.Sprintf("--%s must be between 1 and 10, got %d.", name, v),
			nil,
		)
	}
	return nil
}

func invalidChoice[T ~string](flag, got string, valid []T) error {
	names := make([]string, len(valid))
	for i, v := range valid {
		names[i] = string(v)
	}
	return printer.Error(
		fmt.Sprintf("invalid --%s", flag),
		fmt.Sprintf("Unknown value: %s", got),
		[]string{"Valid values: " + strings.Join(names, ", ")},
	)
}

// resolveID expands a full or short id against the loaded catalog.
func resolveID(cat *catalog.Catalog, input string) (string, error) {
	id, err := resolver.Resolve(cat.IDs(), input)
	if err == nil {
		return id, nil
	}

	switch {
	case resolver.IsNotFoundError(err):
		return "", printer.Error(
			fmt.Sprintf("use case '%s' not found", input),
			"No use case has this ID or ID prefix.",
			[]string{"List use cases:\n  ucm list"},
		)
	case resolver.IsAmbiguousError(err):
		amb := err.(*resolver.AmbiguousError)
		return "", printer.Error(
			fmt.Sprintf("ambiguous use case ID '%s'", input),
			resolver.FormatAmbiguousError(amb),
			nil,
		)
	default:
		return "", printer.Error("invalid use case ID", err.Error(), nil)
	}
}
