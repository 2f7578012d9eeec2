// Package render formats use cases for the terminal: a summary table, a
// detail view, statistics, change events and JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dyluth/ucm/internal/catalog"
	"github.com/dyluth/ucm/internal/store"
	"github.com/dyluth/ucm/pkg/usecase"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// unknownIcon marks enum values outside the recognised set.
const unknownIcon = "?"

var (
	bold    = color.New(color.Bold)
	gray    = color.New(color.FgHiBlack)
	cyan    = color.New(color.FgCyan)
	magenta = color.New(color.FgMagenta)
	blue    = color.New(color.FgBlue)
	red     = color.New(color.FgRed)
	yellow  = color.New(color.FgYellow)
)

// now is replaced in tests.
var now = time.Now

// StatusIcon returns the icon for a lifecycle status.
func StatusIcon(s usecase.Status) string {
	switch s {
	case usecase.StatusActive:
		return "🟢"
	case usecase.StatusArchived:
		return "📦"
	case usecase.StatusDraft:
		return "📝"
	}
	return unknownIcon
}

// ImplementationIcon returns the icon for an implementation status.
func ImplementationIcon(s usecase.ImplementationStatus) string {
	switch s {
	case usecase.ImplementationBacklog:
		return "📋"
	case usecase.ImplementationInProgress:
		return "🚧"
	case usecase.ImplementationImplemented:
		return "✅"
	case usecase.ImplementationIgnored:
		return "❌"
	}
	return unknownIcon
}

// priorityColor returns the color a priority is printed in.
func priorityColor(p usecase.Priority) *color.Color {
	switch p {
	case usecase.PriorityHigh:
		return red
	case usecase.PriorityMedium:
		return yellow
	}
	return gray
}

// Table writes use cases as a table to the provided writer.
// The table includes columns: ID, TITLE, CATEGORY, PRIORITY, STATUS,
// IMPLEMENTATION, EFFORT/BENEFIT and AGE.
// Returns the number of use cases formatted.
func Table(w io.Writer, items []*usecase.UseCase) (int, error) {
	if len(items) == 0 {
		yellow.Fprintln(w, "No use cases found.")
		return 0, nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Title", "Category", "Priority", "Status", "Implementation", "Effort/Benefit", "Age")

	for _, u := range items {
		row := []string{
			formatID(u.ID),
			truncate(u.Title, 40),
			u.Category,
			priorityColor(u.Priority).Sprint(string(u.Priority)),
			StatusIcon(u.Status) + " " + string(u.Status),
			ImplementationIcon(u.ImplementationStatus) + " " + formatImplementation(u.ImplementationStatus),
			fmt.Sprintf("%d/%d", u.ImplementationEffort, u.BusinessBenefit),
			formatAge(u.CreatedAt),
		}
		if err := table.Append(row); err != nil {
			return 0, fmt.Errorf("failed to build table: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return 0, fmt.Errorf("failed to render table: %w", err)
	}

	noun := "use case"
	if len(items) != 1 {
		noun = "use cases"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(items), noun)

	return len(items), nil
}

// JSON writes v as pretty-printed JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

// JSONLine writes v as compact JSON on a single line.
func JSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

// Detail writes every field of a single use case.
func Detail(w io.Writer, u *usecase.UseCase) {
	fmt.Fprintf(w, "%s %s\n", StatusIcon(u.Status), bold.Sprint(u.Title))
	fmt.Fprintf(w, "ID:             %s\n", gray.Sprint(u.ID))
	fmt.Fprintf(w, "Description:    %s\n", u.Description)
	fmt.Fprintf(w, "Category:       %s\n", cyan.Sprint(u.Category))
	fmt.Fprintf(w, "AI Model:       %s\n", magenta.Sprint(u.AIModel))
	fmt.Fprintf(w, "Priority:       %s\n", priorityColor(u.Priority).Sprint(string(u.Priority)))
	fmt.Fprintf(w, "Status:         %s\n", u.Status)
	fmt.Fprintf(w, "Implementation: %s %s\n", ImplementationIcon(u.ImplementationStatus), formatImplementation(u.ImplementationStatus))
	fmt.Fprintf(w, "Effort:         %d/10\n", u.ImplementationEffort)
	fmt.Fprintf(w, "Benefit:        %d/10\n", u.BusinessBenefit)
	if u.GridX != nil && u.GridY != nil {
		fmt.Fprintf(w, "Grid position:  %g, %g\n", *u.GridX, *u.GridY)
	}
	if len(u.Tags) > 0 {
		fmt.Fprintf(w, "Tags:           %s\n", formatTags(u.Tags))
	}
	fmt.Fprintf(w, "Created:        %s\n", u.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Updated:        %s\n", u.UpdatedAt.Local().Format(time.DateTime))

	if u.Prompt != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", bold.Sprint("Prompt/Instructions:"), u.Prompt)
	}
	if u.Notes != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", bold.Sprint("Notes:"), u.Notes)
	}
	if len(u.Examples) > 0 {
		fmt.Fprintf(w, "\n%s\n", bold.Sprint("Examples:"))
		for i, ex := range u.Examples {
			fmt.Fprintf(w, "%d. %s\n", i+1, ex)
		}
	}
}

// Stats writes the catalog statistics grouped by status, category and priority.
func Stats(w io.Writer, s catalog.Stats) {
	fmt.Fprintf(w, "Total use cases: %s\n", bold.Sprint(s.Total))

	if len(s.ByStatus) > 0 {
		fmt.Fprintln(w, "\nBy Status:")
		for _, k := range sortedKeys(s.ByStatus) {
			fmt.Fprintf(w, "  %s %s: %d\n", StatusIcon(usecase.Status(k)), k, s.ByStatus[k])
		}
	}
	if len(s.ByCategory) > 0 {
		fmt.Fprintln(w, "\nBy Category:")
		for _, k := range sortedKeys(s.ByCategory) {
			fmt.Fprintf(w, "  📁 %s: %d\n", k, s.ByCategory[k])
		}
	}
	if len(s.ByPriority) > 0 {
		fmt.Fprintln(w, "\nBy Priority:")
		for _, k := range sortedKeys(s.ByPriority) {
			p := usecase.Priority(k)
			fmt.Fprintf(w, "  %s %s: %d\n", priorityColor(p).Sprint("●"), k, s.ByPriority[k])
		}
	}
}

// Event writes a single change event as one line.
func Event(w io.Writer, ev *store.UseCaseEvent) {
	ts := ev.Timestamp.Local().Format(time.TimeOnly)
	switch ev.Type {
	case store.EventCreated:
		fmt.Fprintf(w, "[%s] ✨ created %s %s\n", ts, formatID(ev.ID), eventTitle(ev))
	case store.EventUpdated:
		fmt.Fprintf(w, "[%s] ✏️  updated %s %s\n", ts, formatID(ev.ID), eventTitle(ev))
	case store.EventDeleted:
		fmt.Fprintf(w, "[%s] 🗑️  deleted %s\n", ts, formatID(ev.ID))
	default:
		fmt.Fprintf(w, "[%s] %s %s %s\n", ts, unknownIcon, ev.Type, formatID(ev.ID))
	}
}

func eventTitle(ev *store.UseCaseEvent) string {
	if ev.UseCase == nil {
		return ""
	}
	return fmt.Sprintf("%q", ev.UseCase.Title)
}

// formatID truncates ids to the first 8 characters for compact display.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatImplementation renders work_in_progress as "work in progress".
func formatImplementation(s usecase.ImplementationStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func formatTags(tags []string) string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = blue.Sprint("#" + t)
	}
	return strings.Join(out, " ")
}

// truncate shortens s to limit runes, marking the cut with "...". Empty values return "-".
func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit-3]) + "..."
	}
	return s
}

// formatAge formats a timestamp as relative time like "2m ago", "1h ago".
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := now().Sub(t)
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", max(int(diff.Seconds()), 0))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
