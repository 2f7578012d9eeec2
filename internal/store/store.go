// Package store persists use cases. A Store is the single storage backend the
// catalog writes through; variants exist for a local JSON file, a NocoDB table
// and Redis. Remote variants fall back to the local file permanently when the
// remote is not configured or not reachable on first use.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dyluth/ucm/pkg/usecase"
)

// ErrNotFound is returned by Update and Delete when no record has the given id.
var ErrNotFound = errors.New("use case not found")

// Store is the persistence contract shared by all backends.
type Store interface {
	// Load returns every stored record in storage order, undecoded.
	Load(ctx context.Context) ([]json.RawMessage, error)

	// Create persists a new record and returns it as stored.
	Create(ctx context.Context, u *usecase.UseCase) (*usecase.UseCase, error)

	// Update merges the present fields into the record with the given id.
	Update(ctx context.Context, id string, f usecase.Fields) error

	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) error

	// Backup writes a snapshot of all records and returns its file path.
	Backup(ctx context.Context) (string, error)

	// Name describes the active variant, e.g. "nocodb (fallback: local)".
	Name() string
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// backupStamp formats t as an ISO-8601 UTC millisecond timestamp safe for
// file names: 2024-06-01T12:30:00.000Z becomes 2024-06-01T12-30-00-000Z.
func backupStamp(t time.Time) string {
	s := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(s)
}

// backupName returns the backup file name for a variant prefix.
func backupName(prefix string) string {
	return fmt.Sprintf("%s-backup-%s.json", prefix, backupStamp(now()))
}

// matchesID reports whether a raw record carries id under "id" or the legacy key.
func matchesID(raw json.RawMessage, id string) bool {
	var ids struct {
		ID     any `json:"id"`
		CaseID any `json:"case_id"`
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return false
	}
	if s, ok := ids.ID.(string); ok && s == id {
		return true
	}
	if s, ok := ids.CaseID.(string); ok && s == id {
		return true
	}
	return false
}
