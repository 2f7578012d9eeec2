package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freezeClock pins now() to the returned pointer's value for the duration of the test.
func freezeClock(t *testing.T, start time.Time) *time.Time {
	t.Helper()
	current := start
	orig := now
	now = func() time.Time { return current }
	t.Cleanup(func() { now = orig })
	return &current
}

func TestNew_AppliesDefaults(t *testing.T) {
	clock := freezeClock(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	u := New(Fields{Title: String("Summarize tickets")})

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Summarize tickets", u.Title)
	assert.Equal(t, "", u.Description)
	assert.Equal(t, DefaultCategory, u.Category)
	assert.Equal(t, "", u.AIModel)
	assert.Equal(t, "", u.Prompt)
	assert.Equal(t, "", u.Notes)
	assert.Equal(t, []string{}, u.Tags)
	assert.Equal(t, []string{}, u.Examples)
	assert.Equal(t, StatusActive, u.Status)
	assert.Equal(t, PriorityMedium, u.Priority)
	assert.Equal(t, ImplementationBacklog, u.ImplementationStatus)
	assert.Equal(t, DefaultScore, u.ImplementationEffort)
	assert.Equal(t, DefaultScore, u.BusinessBenefit)
	assert.Nil(t, u.GridX)
	assert.Nil(t, u.GridY)
	assert.Equal(t, *clock, u.CreatedAt)
	assert.Equal(t, *clock, u.UpdatedAt)
}

func TestNew_KeepsProvidedFields(t *testing.T) {
	u := New(Fields{
		Title:                String("Summarize tickets"),
		ImplementationEffort: Int(3),
		BusinessBenefit:      Int(8),
		Tags:                 []string{"support", "gpt", "support"},
		GridX:                Float(0),
	})

	assert.Equal(t, 3, u.ImplementationEffort)
	assert.Equal(t, 8, u.BusinessBenefit)
	assert.Equal(t, []string{"support", "gpt", "support"}, u.Tags, "duplicates and order are preserved")
	require.NotNil(t, u.GridX)
	assert.Equal(t, 0.0, *u.GridX, "a zero grid coordinate is a real position")
	assert.Equal(t, PriorityMedium, u.Priority)
	assert.Equal(t, ImplementationBacklog, u.ImplementationStatus)
}

func TestNew_IgnoresUpdatedAt(t *testing.T) {
	clock := freezeClock(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	past := clock.Add(-48 * time.Hour)

	u := New(Fields{UpdatedAt: &past})

	assert.Equal(t, *clock, u.UpdatedAt)
}

func TestNew_GeneratesUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New(Fields{}).ID
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestUpdate(t *testing.T) {
	t.Run("merges present fields and leaves the rest", func(t *testing.T) {
		clock := freezeClock(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
		u := New(Fields{Title: String("Draft emails"), Description: String("Outlook add-in")})
		id, created := u.ID, u.CreatedAt

		*clock = clock.Add(time.Minute)
		u.Update(Fields{ImplementationStatus: ImplStatus(ImplementationImplemented)})

		assert.Equal(t, ImplementationImplemented, u.ImplementationStatus)
		assert.Equal(t, "Draft emails", u.Title)
		assert.Equal(t, "Outlook add-in", u.Description)
		assert.Equal(t, id, u.ID)
		assert.Equal(t, created, u.CreatedAt)
		assert.Equal(t, *clock, u.UpdatedAt)
	})

	t.Run("refreshes updatedAt even when nothing changes", func(t *testing.T) {
		clock := freezeClock(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
		u := New(Fields{})

		*clock = clock.Add(time.Second)
		u.Update(Fields{})

		assert.Equal(t, *clock, u.UpdatedAt)
	})

	t.Run("never moves updatedAt backwards", func(t *testing.T) {
		clock := freezeClock(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
		u := New(Fields{})
		prev := u.UpdatedAt

		*clock = clock.Add(-time.Hour)
		u.Update(Fields{Title: String("clock skew")})

		assert.False(t, u.UpdatedAt.Before(prev))
		assert.False(t, u.UpdatedAt.Before(u.CreatedAt))
	})

	t.Run("ignores a caller supplied updatedAt", func(t *testing.T) {
		clock := freezeClock(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
		u := New(Fields{})
		old := clock.Add(-24 * time.Hour)

		*clock = clock.Add(time.Minute)
		u.Update(Fields{UpdatedAt: &old})

		assert.Equal(t, *clock, u.UpdatedAt)
	})

	t.Run("stores unknown enum values as-is", func(t *testing.T) {
		u := New(Fields{})
		u.Update(Fields{Status: StatusOf("someday")})

		assert.Equal(t, Status("someday"), u.Status)
		assert.False(t, u.Status.Known())
	})

	t.Run("clears a cached grid coordinate", func(t *testing.T) {
		u := New(Fields{GridX: Float(10), GridY: Float(20)})
		u.Update(Fields{ClearGridX: true, GridX: Float(50)})

		assert.Nil(t, u.GridX, "clearing wins over a value")
		require.NotNil(t, u.GridY)
		assert.Equal(t, 20.0, *u.GridY)
	})
}

func TestClone_IsDeep(t *testing.T) {
	u := New(Fields{Tags: []string{"a"}, Examples: []string{"x"}, GridX: Float(10), GridY: Float(20)})
	c := u.Clone()

	c.Tags[0] = "changed"
	c.Examples[0] = "changed"
	*c.GridX = 99
	*c.GridY = 99

	assert.Equal(t, "a", u.Tags[0])
	assert.Equal(t, "x", u.Examples[0])
	assert.Equal(t, 10.0, *u.GridX)
	assert.Equal(t, 20.0, *u.GridY)
}

func TestFieldsMergeInto_DoesNotAlias(t *testing.T) {
	tags := []string{"one"}
	u := New(Fields{})
	Fields{Tags: tags}.MergeInto(u)

	tags[0] = "mutated"
	assert.Equal(t, []string{"one"}, u.Tags)
}

func TestFieldsIsEmpty(t *testing.T) {
	assert.True(t, Fields{}.IsEmpty())
	assert.False(t, Fields{GridY: Float(1)}.IsEmpty())
	assert.False(t, Fields{Tags: []string{}}.IsEmpty(), "an explicit empty tag list clears tags")
	assert.False(t, Fields{ClearGridY: true}.IsEmpty())
}

func TestKnown(t *testing.T) {
	for _, s := range Statuses() {
		assert.True(t, s.Known(), s)
	}
	for _, p := range Priorities() {
		assert.True(t, p.Known(), p)
	}
	for _, s := range ImplementationStatuses() {
		assert.True(t, s.Known(), s)
	}
	assert.False(t, Status("").Known())
	assert.False(t, Priority("urgent").Known())
	assert.False(t, ImplementationStatus("done").Known())
}
