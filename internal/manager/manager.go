// Package manager is the single entry point for reading and mutating
// configuration entities. It assigns versions, records every save in the
// ledger, and serializes writers per entity.
package manager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/confvault/internal/events"
	"github.com/alfredjeanlab/confvault/internal/model"
	"github.com/alfredjeanlab/confvault/internal/store"
)

// Manager coordinates the entity store and the version ledger.
type Manager struct {
	store     store.Store
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time

	// global is held shared by every operation and exclusively by Backup
	// and Restore.
	global sync.RWMutex
	keys   keyLocks
}

// Option configures a Manager.
type Option func(*Manager)

// WithPublisher sets the event publisher. The default publishes nothing.
func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New returns a Manager over s.
func New(s store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:     s,
		publisher: &events.NoopPublisher{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type actorKey struct{}

// WithActor returns a context that attributes saves to actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in ctx, or model.SystemActor.
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return model.SystemActor
}

func (m *Manager) publish(ctx context.Context, topic string, event any) {
	if err := m.publisher.Publish(ctx, topic, event); err != nil {
		m.logger.Warn("publish event failed", "topic", topic, "err", err)
	}
}

func (m *Manager) timestamp() time.Time {
	return m.now().UTC()
}

// keyLocks hands out one mutex per entity key. Entries are dropped when no
// goroutine holds or waits on them.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyLocks) lock(kind model.Kind, id string) (unlock func()) {
	key := string(kind) + "\x00" + id

	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l := k.locks[key]
	if l == nil {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
