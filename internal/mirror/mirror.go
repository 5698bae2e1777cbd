package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Gopher0727/ChatState/config"
	"github.com/Gopher0727/ChatState/internal/state"
)

const keyPrefix = "chatstate"

// record is one buffered cache mutation awaiting replication.
type record struct {
	kind   state.EntityKind
	key    string
	entity any
	remove bool
}

// Mirror replicates cache mutations into Redis so external tooling can
// inspect a live copy of the graph. It implements state.Observer: the
// registry enqueues change records without ever blocking, and a single
// writer goroutine drains the queue. When the queue is full the record is
// dropped and counted; the cache itself is never slowed down.
type Mirror struct {
	client *redis.Client
	log    *zap.Logger

	events  chan record
	dropped atomic.Int64

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

var _ state.Observer = (*Mirror)(nil)

// New connects to Redis using the given configuration and returns a mirror
// ready to Start.
func New(cfg *config.MirrorConfig, log *zap.Logger) (*Mirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to mirror redis: %w", err)
	}

	return NewWithClient(client, cfg.BufferSize, log), nil
}

// NewWithClient wraps an existing Redis client. Tests use this with
// miniredis.
func NewWithClient(client *redis.Client, bufferSize int, log *zap.Logger) *Mirror {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Mirror{
		client: client,
		log:    log,
		events: make(chan record, bufferSize),
		done:   make(chan struct{}),
	}
}

// Start launches the writer goroutine. It is safe to call once.
func (m *Mirror) Start() {
	m.startOnce.Do(func() {
		go m.run()
	})
}

// OnUpsert enqueues an entity snapshot for replication. Never blocks.
func (m *Mirror) OnUpsert(kind state.EntityKind, key string, entity any) {
	m.enqueue(record{kind: kind, key: key, entity: entity})
}

// OnDelete enqueues an entity removal. Never blocks.
func (m *Mirror) OnDelete(kind state.EntityKind, key string) {
	m.enqueue(record{kind: kind, key: key, remove: true})
}

func (m *Mirror) enqueue(rec record) {
	select {
	case m.events <- rec:
	default:
		m.dropped.Add(1)
	}
}

// Dropped returns how many records were discarded because the queue was
// full.
func (m *Mirror) Dropped() int64 {
	return m.dropped.Load()
}

// Close stops accepting records, drains what is already queued and waits
// for the writer to finish. Closing a mirror that was never started is
// safe; the queued records are discarded.
func (m *Mirror) Close() error {
	m.closeOnce.Do(func() {
		close(m.events)
		// If Start never ran there is no writer to wait for; consume the
		// once so a later Start cannot launch one against a closed queue.
		m.startOnce.Do(func() { close(m.done) })
		<-m.done
	})
	return m.client.Close()
}

func (m *Mirror) run() {
	defer close(m.done)
	for rec := range m.events {
		if err := m.apply(rec); err != nil {
			m.log.Warn("mirror write failed",
				zap.String("kind", string(rec.kind)),
				zap.String("key", rec.key),
				zap.Error(err))
		}
	}
}

func (m *Mirror) apply(rec record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := entityKey(rec.kind, rec.key)
	if rec.remove {
		return m.client.Del(ctx, key).Err()
	}
	data, err := json.Marshal(rec.entity)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", rec.kind, rec.key, err)
	}
	return m.client.Set(ctx, key, data, 0).Err()
}

// entityKey builds the Redis key for one cached entity.
func entityKey(kind state.EntityKind, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, key)
}
