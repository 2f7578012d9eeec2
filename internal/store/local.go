package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dyluth/ucm/internal/logger"
	"github.com/dyluth/ucm/pkg/usecase"
)

// DataFile is the name of the catalog document inside the data directory.
const DataFile = "use-cases.json"

// Local stores the catalog as a single JSON array document on disk.
// Every mutation rewrites the whole document.
type Local struct {
	dir  string
	path string
	log  *logger.Logger
	mu   sync.Mutex
}

// NewLocal opens the document under dataDir, creating the directory and an
// empty document if needed.
func NewLocal(dataDir string, log *logger.Logger) (*Local, error) {
	if log == nil {
		log = logger.Nop()
	}
	l := &Local{
		dir:  dataDir,
		path: filepath.Join(dataDir, DataFile),
		log:  log,
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if _, err := os.Stat(l.path); errors.Is(err, fs.ErrNotExist) {
		if err := l.write([]json.RawMessage{}); err != nil {
			return nil, err
		}
	}

	return l, nil
}

func (l *Local) Name() string {
	return "local"
}

// Load returns every record in the document. An unreadable or corrupt
// document yields an empty result and is logged.
func (l *Local) Load(ctx context.Context) ([]json.RawMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.read()
	if err != nil {
		l.log.Error("Failed to load use cases", "path", l.path, "error", err)
		return []json.RawMessage{}, nil
	}
	return rows, nil
}

// Create appends u to the document.
func (l *Local) Create(ctx context.Context, u *usecase.UseCase) (*usecase.UseCase, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to encode use case: %w", err)
	}

	err = l.modify(func(rows []json.RawMessage) ([]json.RawMessage, error) {
		return append(rows, raw), nil
	})
	if err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

// Update merges f into the record matching id (or its legacy alias) and
// rewrites it in canonical form.
func (l *Local) Update(ctx context.Context, id string, f usecase.Fields) error {
	return l.modify(func(rows []json.RawMessage) ([]json.RawMessage, error) {
		idx := indexOf(rows, id)
		if idx < 0 {
			return nil, ErrNotFound
		}

		u, err := usecase.Parse(rows[idx])
		if err != nil {
			return nil, err
		}
		f.MergeInto(u)

		raw, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("failed to encode use case: %w", err)
		}
		rows[idx] = raw
		return rows, nil
	})
}

// Delete removes the record matching id (or its legacy alias).
func (l *Local) Delete(ctx context.Context, id string) error {
	return l.modify(func(rows []json.RawMessage) ([]json.RawMessage, error) {
		idx := indexOf(rows, id)
		if idx < 0 {
			return nil, ErrNotFound
		}
		return append(rows[:idx], rows[idx+1:]...), nil
	})
}

// Backup copies the document verbatim to a timestamped sibling file.
func (l *Local) Backup(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", l.path, err)
	}

	target := filepath.Join(l.dir, backupName("use-cases"))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return target, nil
}

// modify runs a read-modify-write cycle under the store lock. A corrupt
// document aborts the cycle rather than being overwritten.
func (l *Local) modify(fn func([]json.RawMessage) ([]json.RawMessage, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.read()
	if err != nil {
		return err
	}
	rows, err = fn(rows)
	if err != nil {
		return err
	}
	return l.write(rows)
}

func (l *Local) read() ([]json.RawMessage, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", l.path, err)
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}
	return rows, nil
}

// write replaces the document atomically via a temp file and rename.
func (l *Local) write(rows []json.RawMessage) error {
	data, err := marshalIndent(rows)
	if err != nil {
		return err
	}
	return writeFileAtomic(l.path, data)
}

func indexOf(rows []json.RawMessage, id string) int {
	for i, raw := range rows {
		if matchesID(raw, id) {
			return i
		}
	}
	return -1
}

// marshalIndent renders records as a two-space indented JSON array.
func marshalIndent(rows []json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode use cases: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to format use cases: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
