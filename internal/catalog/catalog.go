// Package catalog keeps the authoritative in-memory collection of use cases
// for the process and routes every mutation through a storage backend.
//
// Mutations are applied to memory first and persisted second. When the
// backend fails, the in-memory change is reverted and the error returned, so
// memory never holds a change the backend rejected. Mutations are serialized;
// queries run concurrently and may observe an optimistic change while it is
// being persisted.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dyluth/ucm/internal/logger"
	"github.com/dyluth/ucm/internal/store"
	"github.com/dyluth/ucm/pkg/usecase"
)

// ErrNotFound is returned when no use case has the requested id.
// It is the same sentinel the storage backends use.
var ErrNotFound = store.ErrNotFound

// IsNotFound reports whether err means the requested use case does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Catalog is the in-memory use case manager.
type Catalog struct {
	store store.Store
	log   *logger.Logger

	writeMu sync.Mutex   // serializes mutations and reloads
	mu      sync.RWMutex // guards items
	items   []*usecase.UseCase
}

// New creates an empty catalog backed by s. Call Load to populate it.
func New(s store.Store, log *logger.Logger) *Catalog {
	if log == nil {
		log = logger.Nop()
	}
	return &Catalog{store: s, log: log}
}

// Backend names the active storage backend.
func (c *Catalog) Backend() string {
	return c.store.Name()
}

// Load replaces the in-memory collection with the backend's current records.
// Records that cannot be decoded are skipped and logged.
func (c *Catalog) Load(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	rows, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load use cases: %w", err)
	}

	items := make([]*usecase.UseCase, 0, len(rows))
	for i, raw := range rows {
		var u usecase.UseCase
		if err := json.Unmarshal(raw, &u); err != nil {
			c.log.Warn("Skipping unreadable use case", "index", i, "id", usecase.RawID(raw), "error", err)
			continue
		}
		items = append(items, &u)
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	c.log.Debug("Loaded use cases", "count", len(items), "backend", c.store.Name())
	return nil
}

// Create builds a use case from f and persists it.
func (c *Catalog) Create(ctx context.Context, f usecase.Fields) (*usecase.UseCase, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	u := usecase.New(f)

	c.mu.Lock()
	c.items = append(c.items, u)
	c.mu.Unlock()

	stored, err := c.store.Create(ctx, u.Clone())
	if err != nil {
		c.mu.Lock()
		if idx := c.indexOf(u.ID); idx >= 0 {
			c.items = append(c.items[:idx], c.items[idx+1:]...)
		}
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to save use case: %w", err)
	}

	// Keep the backend's representation when it reports one for the same id.
	if stored != nil && stored.ID == u.ID {
		c.mu.Lock()
		if idx := c.indexOf(u.ID); idx >= 0 {
			u = stored.Clone()
			c.items[idx] = u
		}
		c.mu.Unlock()
	}

	c.log.Info("Created use case", "id", u.ID, "title", u.Title)
	return u.Clone(), nil
}

// List returns the use cases matching all criteria, in insertion order.
func (c *Catalog) List(criteria Criteria) []*usecase.UseCase {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*usecase.UseCase, 0, len(c.items))
	for _, u := range c.items {
		if criteria.Matches(u) {
			out = append(out, u.Clone())
		}
	}
	return out
}

// IDs returns every use case id in insertion order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, len(c.items))
	for i, u := range c.items {
		ids[i] = u.ID
	}
	return ids
}

// Get returns the use case with the given id.
func (c *Catalog) Get(id string) (*usecase.UseCase, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	return c.items[idx].Clone(), nil
}

// Update merges f into the use case with the given id and persists the change.
// On backend failure the previous record is restored.
func (c *Catalog) Update(ctx context.Context, id string, f usecase.Fields) (*usecase.UseCase, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return nil, ErrNotFound
	}
	prev := c.items[idx].Clone()
	c.items[idx].Update(f)
	updated := c.items[idx].Clone()
	c.mu.Unlock()

	patch := f
	ts := updated.UpdatedAt
	patch.UpdatedAt = &ts

	if err := c.store.Update(ctx, id, patch); err != nil {
		c.mu.Lock()
		if idx := c.indexOf(id); idx >= 0 {
			c.items[idx] = prev
		}
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to update use case %s: %w", id, err)
	}

	c.log.Info("Updated use case", "id", id)
	return updated, nil
}

// Delete removes the use case with the given id. On backend failure the
// record is re-inserted at its original position.
func (c *Catalog) Delete(ctx context.Context, id string) (*usecase.UseCase, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return nil, ErrNotFound
	}
	removed := c.items[idx]
	c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
	c.mu.Unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		c.mu.Lock()
		pos := min(idx, len(c.items))
		c.items = append(c.items[:pos], append([]*usecase.UseCase{removed}, c.items[pos:]...)...)
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to delete use case %s: %w", id, err)
	}

	c.log.Info("Deleted use case", "id", id)
	return removed.Clone(), nil
}

// Categories returns the sorted distinct non-empty categories.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set := make(map[string]struct{})
	for _, u := range c.items {
		if u.Category != "" {
			set[u.Category] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Tags returns the sorted distinct non-empty tags.
func (c *Catalog) Tags() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set := make(map[string]struct{})
	for _, u := range c.items {
		for _, tag := range u.Tags {
			if tag != "" {
				set[tag] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

// Backup asks the backend to write a snapshot and returns its path.
func (c *Catalog) Backup(ctx context.Context) (string, error) {
	path, err := c.store.Backup(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	c.log.Info("Created backup", "path", path)
	return path, nil
}

// indexOf returns the position of id in c.items, or -1. Callers hold c.mu.
func (c *Catalog) indexOf(id string) int {
	for i, u := range c.items {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
