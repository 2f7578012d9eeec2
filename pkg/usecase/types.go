package usecase

import (
	"time"

	"github.com/google/uuid"
)

// Default values applied to absent fields.
const (
	DefaultCategory = "general"
	DefaultScore    = 5
	MinScore        = 1
	MaxScore        = 10
)

// UseCase is a single cataloged AI use case.
// Field order defines the serialized key order.
type UseCase struct {
	ID                   string               `json:"id"`                   // Opaque, immutable identifier
	Title                string               `json:"title"`                // Short name
	Description          string               `json:"description"`          // Free text
	Category             string               `json:"category"`             // Defaults to "general"
	AIModel              string               `json:"aiModel"`              // Model the idea targets (e.g. "gpt-4")
	Prompt               string               `json:"prompt"`               // Prompt or instructions
	Tags                 []string             `json:"tags"`                 // Insertion ordered, duplicates allowed
	Status               Status               `json:"status"`               // Lifecycle status
	CreatedAt            time.Time            `json:"createdAt"`            // Set once at construction
	UpdatedAt            time.Time            `json:"updatedAt"`            // Refreshed on every mutation
	Priority             Priority             `json:"priority"`             // low, medium, high
	Examples             []string             `json:"examples"`             // Example inputs/outputs
	Notes                string               `json:"notes"`                // Free text
	ImplementationEffort int                  `json:"implementationEffort"` // 1-10
	BusinessBenefit      int                  `json:"businessBenefit"`      // 1-10
	ImplementationStatus ImplementationStatus `json:"implementationStatus"` // Delivery state
	GridX                *float64             `json:"gridX"`                // Cached grid position (0-100), nil when unset
	GridY                *float64             `json:"gridY"`                // Cached grid position (0-100), nil when unset
}

// Status is the lifecycle status of a use case.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDraft    Status = "draft"
)

// Known reports whether s is one of the recognised statuses.
func (s Status) Known() bool {
	switch s {
	case StatusActive, StatusArchived, StatusDraft:
		return true
	}
	return false
}

// Priority ranks use cases against each other.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Known reports whether p is one of the recognised priorities.
func (p Priority) Known() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ImplementationStatus tracks how far a use case has been delivered.
type ImplementationStatus string

const (
	ImplementationBacklog     ImplementationStatus = "backlog"
	ImplementationInProgress  ImplementationStatus = "work_in_progress"
	ImplementationImplemented ImplementationStatus = "implemented"
	ImplementationIgnored     ImplementationStatus = "ignored"
)

// Known reports whether s is one of the recognised implementation statuses.
func (s ImplementationStatus) Known() bool {
	switch s {
	case ImplementationBacklog, ImplementationInProgress, ImplementationImplemented, ImplementationIgnored:
		return true
	}
	return false
}

// Statuses lists the recognised statuses in display order.
func Statuses() []Status {
	return []Status{StatusActive, StatusArchived, StatusDraft}
}

// Priorities lists the recognised priorities from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// ImplementationStatuses lists the recognised implementation statuses in workflow order.
func ImplementationStatuses() []ImplementationStatus {
	return []ImplementationStatus{ImplementationBacklog, ImplementationInProgress, ImplementationImplemented, ImplementationIgnored}
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// NewID returns a fresh identifier.
func NewID() string {
	return uuid.New().String()
}

// New builds a use case from partial input. Absent fields take their defaults,
// a new ID is generated and both timestamps are set to the current time.
// A non-nil f.UpdatedAt is ignored.
func New(f Fields) *UseCase {
	u := &UseCase{}
	f.UpdatedAt = nil
	f.MergeInto(u)
	u.ID = NewID()
	u.applyDefaults()
	return u
}

// Update merges the present fields of f over u and refreshes UpdatedAt.
// ID and CreatedAt are never touched. UpdatedAt never moves backwards.
func (u *UseCase) Update(f Fields) {
	prev := u.UpdatedAt
	f.UpdatedAt = nil
	f.MergeInto(u)

	ts := now()
	if ts.Before(prev) {
		ts = prev
	}
	u.UpdatedAt = ts
}

// Clone returns a deep copy of u.
func (u *UseCase) Clone() *UseCase {
	c := *u
	c.Tags = append([]string{}, u.Tags...)
	c.Examples = append([]string{}, u.Examples...)
	if u.GridX != nil {
		x := *u.GridX
		c.GridX = &x
	}
	if u.GridY != nil {
		y := *u.GridY
		c.GridY = &y
	}
	return &c
}

// HasTag reports whether tag appears in u.Tags (exact match).
func (u *UseCase) HasTag(tag string) bool {
	for _, t := range u.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// applyDefaults fills every absent field with its default value.
func (u *UseCase) applyDefaults() {
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.Category == "" {
		u.Category = DefaultCategory
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.Priority == "" {
		u.Priority = PriorityMedium
	}
	if u.ImplementationStatus == "" {
		u.ImplementationStatus = ImplementationBacklog
	}
	if u.ImplementationEffort == 0 {
		u.ImplementationEffort = DefaultScore
	}
	if u.BusinessBenefit == 0 {
		u.BusinessBenefit = DefaultScore
	}
	if u.Tags == nil {
		u.Tags = []string{}
	}
	if u.Examples == nil {
		u.Examples = []string{}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	if u.UpdatedAt.IsZero() || u.UpdatedAt.Before(u.CreatedAt) {
		u.UpdatedAt = u.CreatedAt
	}
}
