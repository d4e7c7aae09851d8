package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"knnect-svr/internal/observability"
)

const (
	// messagesStream keeps every raw record; the REST layer replays it for
	// session/history queries.
	messagesStream = "messages"
	// lastKnownHash maps imei -> último Feature, para el endpoint lk_states.
	lastKnownHash = "lk_states"

	opTimeout    = 5 * time.Second
	queueSize    = 1024
	closeTimeout = 10 * time.Second
)

type record struct {
	raw        []byte
	receivedAt time.Time
}

// Store persists raw tracker traffic and last-known device state in Redis.
// Appends are queued and written by a single worker so a slow Redis never
// blocks a connection's read loop; queue order preserves receipt order.
type Store struct {
	rdb   *redis.Client
	queue chan record
	done  chan struct{}
	log   *slog.Logger
}

func NewStore(addr string, db int, log *slog.Logger) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	s := &Store{
		rdb:   rdb,
		queue: make(chan record, queueSize),
		done:  make(chan struct{}),
		log:   log.With("component", "store"),
	}
	go s.appendLoop()
	return s, nil
}

// Append encola el registro crudo; nunca bloquea al que lee del socket.
// A full queue drops the record with a log line instead of waiting.
func (s *Store) Append(raw []byte, receivedAt time.Time) {
	rec := record{raw: append([]byte(nil), raw...), receivedAt: receivedAt}
	select {
	case s.queue <- rec:
	default:
		observability.StoreErrors.Inc()
		s.log.Warn("append queue full, raw record dropped", "bytes", len(rec.raw))
	}
}

func (s *Store) appendLoop() {
	defer close(s.done)
	for rec := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		id, err := s.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: messagesStream,
			Values: map[string]interface{}{
				"raw":         rec.raw,
				"received_at": rec.receivedAt.UTC().Format(time.RFC3339Nano),
			},
		}).Result()
		cancel()
		if err != nil {
			observability.StoreErrors.Inc()
			s.log.Error("raw append failed", "err", err)
			continue
		}
		s.log.Debug("raw record saved", "id", id)
	}
}

// SaveLastKnown guarda el último Feature por IMEI para la capa REST.
// Fire-and-forget: a failure is logged and counted, nothing more.
func (s *Store) SaveLastKnown(deviceID string, feature []byte) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := s.rdb.HSet(ctx, lastKnownHash, deviceID, feature).Err(); err != nil {
			observability.StoreErrors.Inc()
			s.log.Error("last known save failed", "imei", deviceID, "err", err)
		}
	}()
}

// Close stops accepting appends and waits for the queue to drain.
func (s *Store) Close() error {
	close(s.queue)
	select {
	case <-s.done:
	case <-time.After(closeTimeout):
		s.log.Warn("close timed out with records still queued")
	}
	return s.rdb.Close()
}
