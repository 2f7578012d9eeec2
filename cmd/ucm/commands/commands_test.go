package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/ucm/internal/printer"
	"github.com/dyluth/ucm/internal/store"
	"github.com/dyluth/ucm/pkg/usecase"
	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets a test read output while a command is still writing it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type cli struct {
	t       *testing.T
	dataDir string
	errOut  *bytes.Buffer
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("UCM_LOG_MODE", "")

	var errOut bytes.Buffer
	origErrOut, origNoColor := printer.ErrOut, color.NoColor
	printer.ErrOut = &errOut
	color.NoColor = true
	t.Cleanup(func() {
		printer.ErrOut = origErrOut
		color.NoColor = origNoColor
	})

	return &cli{t: t, dataDir: t.TempDir(), errOut: &errOut}
}

// run executes ucm against the local backend, feeding stdin.
func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	c.errOut.Reset()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--backend", "local", "--data-dir", c.dataDir, "--log-mode", "quiet"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, c.errOut.String())
	return out
}

func (c *cli) list(args ...string) []usecase.UseCase {
	c.t.Helper()
	out := c.mustRun(append([]string{"list", "--json"}, args...)...)
	var items []usecase.UseCase
	require.NoError(c.t, json.Unmarshal([]byte(out), &items), out)
	return items
}

func (c *cli) add(title string, args ...string) usecase.UseCase {
	c.t.Helper()
	before := len(c.list())
	c.mustRun(append([]string{"add", "--title", title}, args...)...)
	items := c.list()
	require.Len(c.t, items, before+1)
	return items[len(items)-1]
}

func TestRootCommand(t *testing.T) {
	t.Run("shows help when no subcommand is given", func(t *testing.T) {
		c := newCLI(t)
		out, err := c.run("")
		require.NoError(t, err)
		assert.Contains(t, out, "Usage:")
		assert.Contains(t, out, "ucm")
	})

	t.Run("rejects unknown flags", func(t *testing.T) {
		c := newCLI(t)
		_, err := c.run("", "--unknown-flag", "value")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown flag")
	})

	t.Run("rejects an unknown backend", func(t *testing.T) {
		c := newCLI(t)
		_, err := c.run("", "list", "--backend", "sqlite")
		require.Error(t, err)
		assert.Contains(t, c.errOut.String(), `unknown backend "sqlite"`)
	})

	t.Run("reports version info", func(t *testing.T) {
		SetVersionInfo("1.2.3", "abc", "today")
		assert.Equal(t, "1.2.3 (commit: abc, built: today)", rootCmd.Version)
	})
}

func TestAdd(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		c := newCLI(t)
		out := c.mustRun("add", "--title", "Summarize tickets", "--effort", "3", "--benefit", "8")
		assert.Contains(t, out, "✓ Use case added with ID")
		assert.Contains(t, out, "Summarize tickets")

		items := c.list()
		require.Len(t, items, 1)
		u := items[0]
		assert.Equal(t, "general", u.Category)
		assert.Equal(t, usecase.PriorityMedium, u.Priority)
		assert.Equal(t, usecase.StatusActive, u.Status)
		assert.Equal(t, usecase.ImplementationBacklog, u.ImplementationStatus)
		assert.Equal(t, 3, u.ImplementationEffort)
		assert.Equal(t, 8, u.BusinessBenefit)
	})

	t.Run("accepts repeated and comma separated tags", func(t *testing.T) {
		c := newCLI(t)
		u := c.add("Tagged", "--tag", "nlp,gpt", "--tag", " digest ", "--example", "a, b", "--example", "c")
		assert.Equal(t, []string{"nlp", "gpt", "digest"}, u.Tags)
		assert.Equal(t, []string{"a, b", "c"}, u.Examples)
	})

	t.Run("persists to the data directory", func(t *testing.T) {
		c := newCLI(t)
		u := c.add("On disk")

		data, err := os.ReadFile(filepath.Join(c.dataDir, store.DataFile))
		require.NoError(t, err)
		assert.Contains(t, string(data), u.ID)
	})

	t.Run("requires a title", func(t *testing.T) {
		c := newCLI(t)
		_, err := c.run("", "add", "--category", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `required flag(s) "title" not set`)
	})

	t.Run("validates ratings and enums", func(t *testing.T) {
		c := newCLI(t)

		_, err := c.run("", "add", "--title", "x", "--effort", "11")
		require.Error(t, err)
		assert.Contains(t, c.errOut.String(), "--effort must be between 1 and 10, got 11")

		_, err = c.run("", "add", "--title", "x", "--benefit", "0")
		require.Error(t, err)

		_, err = c.run("", "add", "--title", "x", "--priority", "urgent")
		require.Error(t, err)
		assert.Contains(t, c.errOut.String(), "Valid values: low, medium, high")

		_, err = c.run("", "add", "--title", "x", "--implementation", "done")
		require.Error(t, err)

		assert.Empty(t, c.list())
	})
}

func TestList(t *testing.T) {
	c := newCLI(t)
	a := c.add("Ticket triage", "--category", "support", "--tag", "gpt", "--priority", "high")
	b := c.add("Code review", "--category", "engineering", "--description", "Uses GPT-4")
	c.mustRun("edit", b.ID, "--status", "archived")

	ids := func(items []usecase.UseCase) []string {
		out := make([]string, len(items))
		for i, u := range items {
			out[i] = u.ID
		}
		return out
	}

	t.Run("filters combine", func(t *testing.T) {
		assert.Equal(t, []string{a.ID, b.ID}, ids(c.list()))
		assert.Equal(t, []string{b.ID}, ids(c.list("--status", "archived")))
		assert.Equal(t, []string{a.ID}, ids(c.list("--priority", "high", "--category", "support")))
		assert.Equal(t, []string{a.ID, b.ID}, ids(c.list("--search", "gpt")))
		assert.Empty(t, c.list("--status", "archived", "--category", "support"))
	})

	t.Run("filters by creation time", func(t *testing.T) {
		assert.Len(t, c.list("--since", "1h"), 2)
		assert.Empty(t, c.list("--until", "2000-01-01"))
	})

	t.Run("rejects a bad time filter", func(t *testing.T) {
		_, err := c.run("", "list", "--since", "yesterday")
		require.Error(t, err)
		assert.Contains(t, c.errOut.String(), "invalid --since")
	})

	t.Run("renders a table by default", func(t *testing.T) {
		out := c.mustRun("list")
		assert.Contains(t, out, "Ticket triage")
		assert.Contains(t, out, "2 use cases found")
	})

	t.Run("says when filters match nothing", func(t *testing.T) {
		out := c.mustRun("list", "--category", "nowhere")
		assert.Equal(t, "No use cases match these filters.\n", out)

		empty := newCLI(t)
		assert.Equal(t, "No use cases found.\n", empty.mustRun("list"))
	})
}

func TestShow(t *testing.T) {
	c := newCLI(t)
	u := c.add("Summarize tickets", "--notes", "ask support")

	t.Run("resolves a short id", func(t *testing.T) {
		out := c.mustRun("show", u.ID[:8])
		assert.Contains(t, out, "ID:             "+u.ID)
		assert.Contains(t, out, "ask support")
	})

	t.Run("outputs json", func(t *testing.T) {
		out := c.mustRun("show", u.ID, "--json")
		var got usecase.UseCase
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("reports unknown ids", func(t *testing.T) {
		_, err := c.run("", "show", "ffffffff")
		require.Error(t, err)
		assert.Contains(t, c.errOut.String(), "use case 'ffffffff' not found")
	})

	t.Run("rejects too short ids", func(t *testing.T) {
		_, err := c.run("", "show", "abc")
		require.Error(t, err)
		assert.Contains(t, c.errOut.String(), "at least 6 characters")
	})
}

func TestEdit(t *testing.T) {
	c := newCLI(t)
	u := c.add("Summarize tickets", "--priority", "high", "--tag", "nlp")

	t.Run("applies only the flags given", func(t *testing.T) {
		out := c.mustRun("edit", u.ID, "--implementation", "implemented")
		assert.Contains(t, out, "updated")

		got := c.list()[0]
		assert.Equal(t, usecase.ImplementationImplemented, got.ImplementationStatus)
		assert.Equal(t, usecase.PriorityHigh, got.Priority)
		assert.Equal(t, []string{"nlp"}, got.Tags)
		assert.Equal(t, u.CreatedAt, got.CreatedAt)
		assert.False(t, got.UpdatedAt.Before(u.UpdatedAt))
	})

	t.Run("requires at least one field", func(t *testing.T) {
		_, err := c.run("", "edit", u.ID)
		require.Error(t, err)
		assert.Contains(t, c.errOut.String(), "nothing to update")
	})

	t.Run("validates status", func(t *testing.T) {
		_, err := c.run("", "edit", u.ID, "--status", "deleted")
		require.Error(t, err)
		assert.Contains(t, c.errOut.String(), "Valid values: active, archived, draft")
	})
}

func TestDelete(t *testing.T) {
	t.Run("keeps the use case when not confirmed", func(t *testing.T) {
		c := newCLI(t)
		u := c.add("Keep me")

		out, err := c.run("n\n", "delete", u.ID)
		require.NoError(t, err)
		assert.Contains(t, out, `Delete "Keep me"`)
		assert.Contains(t, out, "Cancelled.")
		assert.Len(t, c.list(), 1)
	})

	t.Run("treats end of input as no", func(t *testing.T) {
		c := newCLI(t)
		u := c.add("Keep me")

		_, err := c.run("", "delete", u.ID)
		require.NoError(t, err)
		assert.Len(t, c.list(), 1)
	})

	t.Run("deletes after confirmation", func(t *testing.T) {
		c := newCLI(t)
		u := c.add("Remove me")

		out, err := c.run("yes\n", "delete", u.ID[:6])
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted use case "+u.ID)
		assert.Empty(t, c.list())
	})

	t.Run("skips the prompt with --yes", func(t *testing.T) {
		c := newCLI(t)
		u := c.add("Remove me")

		out := c.mustRun("delete", u.ID, "--yes")
		assert.NotContains(t, out, "[y/N]")
		assert.Empty(t, c.list())

		_, err := c.run("", "delete", u.ID, "--yes")
		require.Error(t, err)
	})
}

func TestStatsAndBackup(t *testing.T) {
	c := newCLI(t)
	c.add("a", "--category", "support")
	c.add("b", "--category", "support", "--priority", "low")

	out := c.mustRun("stats", "--json")
	assert.JSONEq(t, `{
		"total": 2,
		"byStatus": {"active": 2},
		"byCategory": {"support": 2},
		"byPriority": {"medium": 1, "low": 1}
	}`, out)

	out = c.mustRun("stats")
	assert.Contains(t, out, "Total use cases: 2")

	out = c.mustRun("backup")
	require.Contains(t, out, "Backup created: ")
	path := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(out, "✓ "), "Backup created: "))
	assert.Equal(t, c.dataDir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	assert.Len(t, rows, 2)
}

func TestServe(t *testing.T) {
	c := newCLI(t)
	c.add("a")

	cmd := newRootCmd()
	var out syncBuffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--backend", "local", "--data-dir", c.dataDir, "--log-mode", "quiet", "serve", "--port", "0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Serving 1 use cases")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
	assert.Contains(t, out.String(), "Shutting down...")
}

func TestWatch(t *testing.T) {
	t.Run("requires the redis backend", func(t *testing.T) {
		c := newCLI(t)
		_, err := c.run("", "watch")
		require.Error(t, err)
		assert.Contains(t, c.errOut.String(), "watch requires the redis backend")
	})

	t.Run("streams changes from other processes", func(t *testing.T) {
		newCLI(t)
		mr := miniredis.RunT(t)
		t.Setenv("REDIS_URL", "redis://"+mr.Addr()+"/0")
		dataDir := t.TempDir()

		cmd := newRootCmd()
		var out syncBuffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--backend", "redis", "--data-dir", dataDir, "--log-mode", "quiet", "watch"})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- cmd.ExecuteContext(ctx) }()

		require.Eventually(t, func() bool {
			return strings.Contains(out.String(), "Watching redis")
		}, 5*time.Second, 20*time.Millisecond)

		writer, err := store.NewRedis(&redis.Options{Addr: mr.Addr()}, "default", dataDir, nil)
		require.NoError(t, err)
		defer writer.Close()
		u := usecase.New(usecase.Fields{Title: usecase.String("Streamed")})
		_, err = writer.Create(context.Background(), u)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return strings.Contains(out.String(), `created `+u.ID[:8]+` "Streamed"`)
		}, 5*time.Second, 20*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watch did not stop after cancellation")
		}
	})
}

func TestInit(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()

	cmd := newInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runInit(cmd, dir, false))
	assert.Contains(t, out.String(), "Successfully initialized ucm")
	assert.FileExists(t, filepath.Join(dir, "ucm.yml"))
	assert.FileExists(t, filepath.Join(dir, "data", store.DataFile))

	err := runInit(cmd, dir, false)
	require.Error(t, err)
	assert.Contains(t, c.errOut.String(), "ucm init --force")

	require.NoError(t, runInit(cmd, dir, true))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes ", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yep\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := confirm(strings.NewReader(tt.input), &out, "Proceed?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Proceed? [y/N]: ", out.String())
		})
	}
}
