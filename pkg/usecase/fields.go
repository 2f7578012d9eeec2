package usecase

import "time"

// Fields is a partial use case. Nil fields are absent and leave the target
// untouched when merged. It is the input for creation and updates and the
// payload backends persist for partial updates.
type Fields struct {
	Title                *string               `json:"title,omitempty"`
	Description          *string               `json:"description,omitempty"`
	Category             *string               `json:"category,omitempty"`
	AIModel              *string               `json:"aiModel,omitempty"`
	Prompt               *string               `json:"prompt,omitempty"`
	Tags                 []string              `json:"tags,omitempty"`
	Status               *Status               `json:"status,omitempty"`
	Priority             *Priority             `json:"priority,omitempty"`
	Examples             []string              `json:"examples,omitempty"`
	Notes                *string               `json:"notes,omitempty"`
	ImplementationEffort *int                  `json:"implementationEffort,omitempty"`
	BusinessBenefit      *int                  `json:"businessBenefit,omitempty"`
	ImplementationStatus *ImplementationStatus `json:"implementationStatus,omitempty"`
	GridX                *float64              `json:"gridX,omitempty"`
	GridY                *float64              `json:"gridY,omitempty"`

	// ClearGridX and ClearGridY unset a cached coordinate. They take
	// precedence over GridX and GridY.
	ClearGridX bool `json:"-"`
	ClearGridY bool `json:"-"`

	// UpdatedAt is carried to storage backends alongside a change. New and
	// Update ignore it and stamp their own time.
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// IsEmpty reports whether no field is present.
func (f Fields) IsEmpty() bool {
	return f.Title == nil && f.Description == nil && f.Category == nil &&
		f.AIModel == nil && f.Prompt == nil && f.Tags == nil && f.Status == nil &&
		f.Priority == nil && f.Examples == nil && f.Notes == nil &&
		f.ImplementationEffort == nil && f.BusinessBenefit == nil &&
		f.ImplementationStatus == nil && f.GridX == nil && f.GridY == nil &&
		!f.ClearGridX && !f.ClearGridY && f.UpdatedAt == nil
}

// MergeInto copies every present field onto u, including UpdatedAt.
// Slices are copied so u never aliases f.
func (f Fields) MergeInto(u *UseCase) {
	if f.Title != nil {
		u.Title = *f.Title
	}
	if f.Description != nil {
		u.Description = *f.Description
	}
	if f.Category != nil {
		u.Category = *f.Category
	}
	if f.AIModel != nil {
		u.AIModel = *f.AIModel
	}
	if f.Prompt != nil {
		u.Prompt = *f.Prompt
	}
	if f.Tags != nil {
		u.Tags = append([]string{}, f.Tags...)
	}
	if f.Status != nil {
		u.Status = *f.Status
	}
	if f.Priority != nil {
		u.Priority = *f.Priority
	}
	if f.Examples != nil {
		u.Examples = append([]string{}, f.Examples...)
	}
	if f.Notes != nil {
		u.Notes = *f.Notes
	}
	if f.ImplementationEffort != nil {
		u.ImplementationEffort = *f.ImplementationEffort
	}
	if f.BusinessBenefit != nil {
		u.BusinessBenefit = *f.BusinessBenefit
	}
	if f.ImplementationStatus != nil {
		u.ImplementationStatus = *f.ImplementationStatus
	}
	if f.GridX != nil {
		x := *f.GridX
		u.GridX = &x
	}
	if f.GridY != nil {
		y := *f.GridY
		u.GridY = &y
	}
	if f.ClearGridX {
		u.GridX = nil
	}
	if f.ClearGridY {
		u.GridY = nil
	}
	if f.UpdatedAt != nil {
		u.UpdatedAt = *f.UpdatedAt
	}
}

// String returns a pointer to s, for building Fields literals.
func String(s string) *string { return &s }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// StatusOf returns a pointer to s.
func StatusOf(s Status) *Status { return &s }

// PriorityOf returns a pointer to p.
func PriorityOf(p Priority) *Priority { return &p }

// ImplStatus returns a pointer to s.
func ImplStatus(s ImplementationStatus) *ImplementationStatus { return &s }
