package catalog

import (
	"strings"
	"time"

	"github.com/dyluth/ucm/pkg/usecase"
)

// Criteria defines filtering criteria for use cases.
// All filters are ANDed together - a use case must match ALL criteria to pass.
type Criteria struct {
	Status               usecase.Status               // Exact match, empty = no filter
	Category             string                       // Exact match, empty = no filter
	Priority             usecase.Priority             // Exact match, empty = no filter
	Tag                  string                       // Tag containment, empty = no filter
	ImplementationStatus usecase.ImplementationStatus // Exact match, empty = no filter
	Search               string                       // Case-insensitive substring of title, description or any tag
	Since                time.Time                    // Created at or after, zero = no filter
	Until                time.Time                    // Created at or before, zero = no filter
}

// Matches returns true if the use case matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(u *usecase.UseCase) bool {
	if c.Status != "" && u.Status != c.Status {
		return false
	}
	if c.Category != "" && u.Category != c.Category {
		return false
	}
	if c.Priority != "" && u.Priority != c.Priority {
		return false
	}
	if c.Tag != "" && !u.HasTag(c.Tag) {
		return false
	}
	if c.ImplementationStatus != "" && u.ImplementationStatus != c.ImplementationStatus {
		return false
	}

	if !c.Since.IsZero() && u.CreatedAt.Before(c.Since) {
		return false
	}
	if !c.Until.IsZero() && u.CreatedAt.After(c.Until) {
		return false
	}

	if c.Search != "" && !matchesSearch(u, strings.ToLower(c.Search)) {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.Status != "" ||
		c.Category != "" ||
		c.Priority != "" ||
		c.Tag != "" ||
		c.ImplementationStatus != "" ||
		c.Search != "" ||
		!c.Since.IsZero() ||
		!c.Until.IsZero()
}

func matchesSearch(u *usecase.UseCase, term string) bool {
	if strings.Contains(strings.ToLower(u.Title), term) ||
		strings.Contains(strings.ToLower(u.Description), term) {
		return true
	}
	for _, tag := range u.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// CriteriaFromQuery builds criteria from query-style parameters. Both
// "implementationStatus" and its short spelling "implementation" select the
// implementation status; the long form wins when both are given.
func CriteriaFromQuery(get func(key string) string) Criteria {
	impl := get("implementationStatus")
	if impl == "" {
		impl = get("implementation")
	}

	return Criteria{
		Status:               usecase.Status(get("status")),
		Category:             get("category"),
		Priority:             usecase.Priority(get("priority")),
		Tag:                  get("tag"),
		ImplementationStatus: usecase.ImplementationStatus(impl),
		Search:               get("search"),
	}
}
