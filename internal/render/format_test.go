package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/ucm/internal/catalog"
	"github.com/dyluth/ucm/internal/store"
	"github.com/dyluth/ucm/pkg/usecase"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) {
	t.Helper()
	origNoColor, origNow := color.NoColor, now
	color.NoColor = true
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() {
		color.NoColor = origNoColor
		now = origNow
	})
}

func sample() *usecase.UseCase {
	return &usecase.UseCase{
		ID:                   "3f2b9c1e-8a7d-4c55-9e21-0b6f4d3a2c10",
		Title:                "Summarize tickets",
		Description:          "Daily digest",
		Category:             "support",
		AIModel:              "gpt-4",
		Prompt:               "Summarize:",
		Tags:                 []string{"nlp", "digest"},
		Status:               usecase.StatusActive,
		CreatedAt:            fixedNow.Add(-2 * time.Hour),
		UpdatedAt:            fixedNow.Add(-time.Hour),
		Priority:             usecase.PriorityHigh,
		Examples:             []string{"ticket -> summary"},
		Notes:                "ask support",
		ImplementationEffort: 3,
		BusinessBenefit:      8,
		ImplementationStatus: usecase.ImplementationInProgress,
		GridX:                usecase.Float(30),
		GridY:                usecase.Float(80),
	}
}

func TestTable(t *testing.T) {
	setup(t)

	t.Run("empty list prints a notice", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := Table(&buf, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.Equal(t, "No use cases found.\n", buf.String())
	})

	t.Run("renders one row per use case", func(t *testing.T) {
		var buf bytes.Buffer
		other := sample()
		other.ID = "a1b2c3d4"
		other.Title = strings.Repeat("x", 60)
		other.Status = "someday"

		n, err := Table(&buf, []*usecase.UseCase{sample(), other})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		out := buf.String()
		assert.Contains(t, out, "3f2b9c1e")
		assert.NotContains(t, out, "3f2b9c1e-8a7d")
		assert.Contains(t, out, "Summarize tickets")
		assert.Contains(t, out, "🚧 work in progress")
		assert.Contains(t, out, "3/8")
		assert.Contains(t, out, "2h ago")
		assert.Contains(t, out, strings.Repeat("x", 37)+"...")
		assert.Contains(t, out, "? someday")
		assert.Contains(t, out, "2 use cases found")
	})
}

func TestDetail(t *testing.T) {
	setup(t)

	var buf bytes.Buffer
	Detail(&buf, sample())
	out := buf.String()

	assert.Contains(t, out, "🟢 Summarize tickets")
	assert.Contains(t, out, "ID:             3f2b9c1e-8a7d-4c55-9e21-0b6f4d3a2c10")
	assert.Contains(t, out, "Tags:           #nlp #digest")
	assert.Contains(t, out, "Grid position:  30, 80")
	assert.Contains(t, out, "Prompt/Instructions:\nSummarize:")
	assert.Contains(t, out, "Examples:\n1. ticket -> summary")

	t.Run("omits empty sections", func(t *testing.T) {
		var buf bytes.Buffer
		Detail(&buf, usecase.New(usecase.Fields{Title: usecase.String("bare")}))
		assert.NotContains(t, buf.String(), "Tags:")
		assert.NotContains(t, buf.String(), "Notes:")
		assert.NotContains(t, buf.String(), "Grid position:")
	})
}

func TestStats(t *testing.T) {
	setup(t)

	var buf bytes.Buffer
	Stats(&buf, catalog.Stats{
		Total:      3,
		ByStatus:   map[string]int{"active": 2, "archived": 1},
		ByCategory: map[string]int{"support": 3},
		ByPriority: map[string]int{"low": 1, "high": 2},
	})
	out := buf.String()

	assert.Contains(t, out, "Total use cases: 3")
	assert.Contains(t, out, "🟢 active: 2\n  📦 archived: 1")
	assert.Contains(t, out, "📁 support: 3")
	assert.Contains(t, out, "● high: 2\n  ● low: 1")
}

func TestEvent(t *testing.T) {
	setup(t)
	ts := time.Date(2025, 6, 1, 9, 30, 0, 0, time.Local)

	var buf bytes.Buffer
	Event(&buf, &store.UseCaseEvent{Type: store.EventCreated, ID: "3f2b9c1e-8a7d", UseCase: sample(), Timestamp: ts})
	Event(&buf, &store.UseCaseEvent{Type: store.EventDeleted, ID: "3f2b9c1e-8a7d", Timestamp: ts})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `[09:30:00] ✨ created 3f2b9c1e "Summarize tickets"`, lines[0])
	assert.Equal(t, `[09:30:00] 🗑️  deleted 3f2b9c1e`, lines[1])
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, []*usecase.UseCase{sample()}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Summarize tickets", decoded[0]["title"])
	assert.True(t, strings.HasSuffix(buf.String(), "}\n]\n"))
}

func TestJSONLine(t *testing.T) {
	var buf bytes.Buffer
	ts := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, JSONLine(&buf, &store.UseCaseEvent{Type: store.EventDeleted, ID: "a1", Timestamp: ts}))
	assert.Equal(t, `{"type":"deleted","id":"a1","timestamp":"2025-06-01T09:30:00Z"}`+"\n", buf.String())
}

func TestIcons(t *testing.T) {
	assert.Equal(t, unknownIcon, StatusIcon("nope"))
	assert.Equal(t, unknownIcon, ImplementationIcon("nope"))
	assert.Equal(t, "📋", ImplementationIcon(usecase.ImplementationBacklog))
}

func TestFormatAge(t *testing.T) {
	setup(t)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"zero time", time.Time{}, "-"},
		{"seconds", fixedNow.Add(-10 * time.Second), "10s ago"},
		{"minutes", fixedNow.Add(-5 * time.Minute), "5m ago"},
		{"hours", fixedNow.Add(-3 * time.Hour), "3h ago"},
		{"days", fixedNow.Add(-50 * time.Hour), "2d ago"},
		{"future clamps to zero", fixedNow.Add(time.Minute), "0s ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAge(tt.at))
		})
	}
}
