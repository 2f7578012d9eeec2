package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyluth/ucm/internal/config"
	"github.com/dyluth/ucm/internal/logger"
	"github.com/dyluth/ucm/internal/nocodb"
	"github.com/dyluth/ucm/pkg/usecase"
)

// NocoDB stores use cases as rows of a NocoDB table. When credentials are
// missing, or the table is unreachable on first use, it delegates every
// operation to a Local store for the rest of the process.
type NocoDB struct {
	guard
	client *nocodb.Client
}

// NewNocoDB builds the remote backend. Missing credentials select the
// fallback immediately; reachability is checked on first use.
func NewNocoDB(cfg config.NocoDBConfig, dataDir string, log *logger.Logger) (*NocoDB, error) {
	if log == nil {
		log = logger.Nop()
	}
	n := &NocoDB{guard: guard{dataDir: dataDir, log: log.With("backend", "nocodb")}}

	if !cfg.Configured() {
		n.log.Warn("NOCODB_API_TOKEN or NOCODB_TABLE_ID not set, using local JSON storage")
		if err := n.fallBack(); err != nil {
			return nil, err
		}
		return n, nil
	}

	client, err := nocodb.NewClient(cfg.BaseURL, cfg.APIToken, cfg.TableID, cfg.RequestTimeout(), n.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create NocoDB client: %w", err)
	}
	n.client = client
	n.probe = client.Ping
	return n, nil
}

func (n *NocoDB) Name() string {
	return n.displayName("nocodb")
}

func (n *NocoDB) Load(ctx context.Context) ([]json.RawMessage, error) {
	local, err := n.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if local != nil {
		return local.Load(ctx)
	}

	rows, err := n.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load use cases from NocoDB: %w", err)
	}

	out := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		raw, err := json.Marshal(stripSystemColumns(row))
		if err != nil {
			return nil, fmt.Errorf("failed to encode NocoDB row: %w", err)
		}
		out = append(out, raw)
	}
	return out, nil
}

func (n *NocoDB) Create(ctx context.Context, u *usecase.UseCase) (*usecase.UseCase, error) {
	local, err := n.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if local != nil {
		return local.Create(ctx, u)
	}

	created, err := n.client.Insert(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to create use case in NocoDB: %w", err)
	}
	n.log.Debug("Created NocoDB row", "id", u.ID, "row_id", created.RowID())
	return n.storedRecord(u, created), nil
}

// storedRecord overlays the record fields of an insert response onto u.
// NocoDB usually answers with the primary key only, leaving u as is. The id
// and creation time are never taken from the response.
func (n *NocoDB) storedRecord(u *usecase.UseCase, created nocodb.Row) *usecase.UseCase {
	fields := stripSystemColumns(created)
	if len(fields) == 0 {
		return u.Clone()
	}

	stored := u.Clone()
	raw, err := json.Marshal(fields)
	if err == nil {
		err = json.Unmarshal(raw, stored)
	}
	if err != nil {
		n.log.Warn("Ignoring unreadable NocoDB insert response", "id", u.ID, "error", err)
		return u.Clone()
	}
	stored.ID = u.ID
	stored.CreatedAt = u.CreatedAt
	return stored
}

func (n *NocoDB) Update(ctx context.Context, id string, f usecase.Fields) error {
	local, err := n.resolve(ctx)
	if err != nil {
		return err
	}
	if local != nil {
		return local.Update(ctx, id, f)
	}

	rowID, err := n.findRow(ctx, id)
	if err != nil {
		return err
	}
	if err := n.client.Patch(ctx, rowID, f.Map()); err != nil {
		return fmt.Errorf("failed to update use case in NocoDB: %w", err)
	}
	return nil
}

func (n *NocoDB) Delete(ctx context.Context, id string) error {
	local, err := n.resolve(ctx)
	if err != nil {
		return err
	}
	if local != nil {
		return local.Delete(ctx, id)
	}

	rowID, err := n.findRow(ctx, id)
	if err != nil {
		return err
	}
	if err := n.client.Delete(ctx, rowID); err != nil {
		return fmt.Errorf("failed to delete use case from NocoDB: %w", err)
	}
	return nil
}

// Backup writes every remote row to a timestamped file in the data directory.
func (n *NocoDB) Backup(ctx context.Context) (string, error) {
	local, err := n.resolve(ctx)
	if err != nil {
		return "", err
	}
	if local != nil {
		return local.Backup(ctx)
	}

	rows, err := n.Load(ctx)
	if err != nil {
		return "", err
	}
	return writeBackup(n.dataDir, "nocodb", rows)
}

// findRow returns the NocoDB primary key of the row whose id (or legacy
// case_id) equals id.
func (n *NocoDB) findRow(ctx context.Context, id string) (int64, error) {
	rows, err := n.client.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load use cases from NocoDB: %w", err)
	}

	for _, row := range rows {
		if rowHasID(row, id) {
			if rowID := row.RowID(); rowID != 0 {
				return rowID, nil
			}
		}
	}
	return 0, ErrNotFound
}

func rowHasID(row nocodb.Row, id string) bool {
	for _, key := range []string{"id", usecase.LegacyIDKey} {
		var s string
		if raw, ok := row[key]; ok && json.Unmarshal(raw, &s) == nil && s == id {
			return true
		}
	}
	return false
}

// stripSystemColumns drops columns NocoDB adds to every table. They would
// otherwise collide with record fields under case-insensitive decoding.
func stripSystemColumns(row nocodb.Row) nocodb.Row {
	out := make(nocodb.Row, len(row))
	for k, v := range row {
		switch {
		case k == nocodb.RowIDKey, k == "CreatedAt", k == "UpdatedAt":
		case strings.HasPrefix(k, "nc_"):
		default:
			out[k] = v
		}
	}
	return out
}

// writeBackup writes rows as an indented JSON array named after prefix.
func writeBackup(dir, prefix string, rows []json.RawMessage) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := marshalIndent(rows)
	if err != nil {
		return "", err
	}

	target := filepath.Join(dir, backupName(prefix))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return target, nil
}
