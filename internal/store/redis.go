package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dyluth/ucm/internal/logger"
	"github.com/dyluth/ucm/pkg/usecase"
	"github.com/redis/go-redis/v9"
)

// ErrEventsUnavailable is returned by Subscribe when the backend has fallen
// back to local storage.
var ErrEventsUnavailable = errors.New("change events require a reachable Redis backend")

// EventType names the kind of change an event describes.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// UseCaseEvent is published after every successful mutation.
// UseCase holds the record as stored; it is nil for deletions.
type UseCaseEvent struct {
	Type      EventType        `json:"type"`
	ID        string           `json:"id"`
	UseCase   *usecase.UseCase `json:"useCase,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Redis stores use cases as hashes, keeps an insertion-ordered index list and
// publishes a change event for every mutation. It falls back to local
// storage if Redis cannot be reached on first use.
// The store is thread-safe.
type Redis struct {
	guard
	rdb       *redis.Client
	namespace string
}

// NewRedis creates a Redis backend. Connectivity is checked on first use.
func NewRedis(opts *redis.Options, namespace, dataDir string, log *logger.Logger) (*Redis, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	if log == nil {
		log = logger.Nop()
	}

	r := &Redis{
		guard:     guard{dataDir: dataDir, log: log.With("backend", "redis", "namespace", namespace)},
		rdb:       redis.NewClient(opts),
		namespace: namespace,
	}
	r.probe = func(ctx context.Context) error {
		return r.rdb.Ping(ctx).Err()
	}
	return r, nil
}

func (r *Redis) Name() string {
	return r.displayName("redis")
}

// Close closes the Redis connection. Implements io.Closer.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Load returns every use case in insertion order. Index entries whose hash is
// missing or unreadable are skipped and logged.
func (r *Redis) Load(ctx context.Context) ([]json.RawMessage, error) {
	local, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if local != nil {
		return local.Load(ctx)
	}

	ids, err := r.rdb.LRange(ctx, IndexKey(r.namespace), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read use case index from Redis: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, UseCaseKey(r.namespace, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read use cases from Redis: %w", err)
	}

	out := make([]json.RawMessage, 0, len(ids))
	for i, cmd := range cmds {
		hash := cmd.Val()
		if len(hash) == 0 {
			r.log.Warn("Index references a missing use case", "id", ids[i])
			continue
		}

		u, err := usecase.FromHash(hash)
		if err != nil {
			r.log.Warn("Skipping unreadable use case", "id", ids[i], "error", err)
			continue
		}

		raw, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("failed to encode use case: %w", err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// Create writes the hash and appends the id to the index in one transaction.
func (r *Redis) Create(ctx context.Context, u *usecase.UseCase) (*usecase.UseCase, error) {
	local, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if local != nil {
		return local.Create(ctx, u)
	}

	hash, err := usecase.ToHash(u)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize use case: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, UseCaseKey(r.namespace, u.ID), hash)
		pipe.RPush(ctx, IndexKey(r.namespace), u.ID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write use case to Redis: %w", err)
	}

	stored := u.Clone()
	r.publish(ctx, UseCaseEvent{Type: EventCreated, ID: u.ID, UseCase: stored})
	return stored.Clone(), nil
}

// Update merges f into the stored hash.
func (r *Redis) Update(ctx context.Context, id string, f usecase.Fields) error {
	local, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	if local != nil {
		return local.Update(ctx, id, f)
	}

	key := UseCaseKey(r.namespace, id)
	current, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to read use case from Redis: %w", err)
	}
	if len(current) == 0 {
		return ErrNotFound
	}

	u, err := usecase.FromHash(current)
	if err != nil {
		return fmt.Errorf("failed to deserialize use case: %w", err)
	}
	f.MergeInto(u)

	hash, err := usecase.ToHash(u)
	if err != nil {
		return fmt.Errorf("failed to serialize use case: %w", err)
	}
	if err := r.rdb.HSet(ctx, key, hash).Err(); err != nil {
		return fmt.Errorf("failed to update use case in Redis: %w", err)
	}

	r.publish(ctx, UseCaseEvent{Type: EventUpdated, ID: id, UseCase: u})
	return nil
}

// Delete removes the hash and its index entry in one transaction.
func (r *Redis) Delete(ctx context.Context, id string) error {
	local, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	if local != nil {
		return local.Delete(ctx, id)
	}

	var del *redis.IntCmd
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, UseCaseKey(r.namespace, id))
		pipe.LRem(ctx, IndexKey(r.namespace), 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete use case from Redis: %w", err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}

	r.publish(ctx, UseCaseEvent{Type: EventDeleted, ID: id})
	return nil
}

// Backup writes every stored use case to a timestamped file in the data directory.
func (r *Redis) Backup(ctx context.Context) (string, error) {
	local, err := r.resolve(ctx)
	if err != nil {
		return "", err
	}
	if local != nil {
		return local.Backup(ctx)
	}

	rows, err := r.Load(ctx)
	if err != nil {
		return "", err
	}
	return writeBackup(r.dataDir, "redis", rows)
}

// publish sends a change event. The write has already succeeded, so a failed
// publish is logged rather than returned.
func (r *Redis) publish(ctx context.Context, ev UseCaseEvent) {
	ev.Timestamp = now()

	payload, err := json.Marshal(ev)
	if err != nil {
		r.log.Error("Failed to marshal change event", "id", ev.ID, "error", err)
		return
	}
	if err := r.rdb.Publish(ctx, EventsChannel(r.namespace), payload).Err(); err != nil {
		r.log.Warn("Failed to publish change event", "id", ev.ID, "type", ev.Type, "error", err)
	}
}

// Subscription represents an active Pub/Sub subscription to change events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *UseCaseEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of change events.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *UseCaseEvent {
	return s.events
}

// Errors returns the channel of non-fatal subscription errors such as
// malformed payloads. The subscription continues after errors.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe streams change events for this namespace. The subscription is
// confirmed by Redis before Subscribe returns, so no later event is missed.
// Delivery is at-most-once; a slow subscriber may lose events.
func (r *Redis) Subscribe(ctx context.Context) (*Subscription, error) {
	local, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if local != nil {
		return nil, ErrEventsUnavailable
	}

	pubsub := r.rdb.Subscribe(ctx, EventsChannel(r.namespace))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to change events: %w", err)
	}

	eventsChan := make(chan *UseCaseEvent, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev UseCaseEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal change event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
