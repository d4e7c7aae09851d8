package hub

import (
	"log/slog"
	"sync"

	"knnect-svr/internal/observability"
	"knnect-svr/internal/pipeline"
)

// Subscriber is a live-feed sink. Send must not block on a slow consumer:
// implementations buffer internally and report failure instead of stalling
// the publishing connection.
type Subscriber interface {
	Send(f *pipeline.Feature) error
}

// Hub mantiene el conjunto vivo de suscriptores y reparte cada Feature.
// All methods are safe for concurrent use from many connection goroutines.
type Hub struct {
	mu   sync.RWMutex
	subs map[Subscriber]struct{}
	log  *slog.Logger
}

func New(log *slog.Logger) *Hub {
	return &Hub{
		subs: make(map[Subscriber]struct{}),
		log:  log.With("component", "hub"),
	}
}

func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	observability.Subscribers.Set(float64(n))
	h.log.Info("subscriber registered", "subscribers", n)
}

func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		observability.Subscribers.Set(float64(n))
		h.log.Info("subscriber removed", "subscribers", n)
	}
}

// Publish delivers f to every subscriber registered at the moment of the
// call. A subscriber that fails the delivery is unregistered, not retried;
// subscribers joining mid-publish do not receive f.
func (h *Hub) Publish(f *pipeline.Feature) {
	h.mu.RLock()
	snapshot := make([]Subscriber, 0, len(h.subs))
	for s := range h.subs {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	for _, s := range snapshot {
		if err := s.Send(f); err != nil {
			observability.DeliveryErrors.Inc()
			h.log.Warn("subscriber dropped", "imei", f.ID, "err", err)
			h.Unregister(s)
		}
	}
	observability.FeaturesPublished.Inc()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
