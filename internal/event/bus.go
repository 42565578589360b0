package event

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subscriberBuffer = 64

var droppedEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "softdelete_events_dropped_total",
		Help: "Lifecycle events not delivered because a subscriber was full.",
	},
	[]string{"type"},
)

type subscriber struct {
	ch    chan Event
	types []Type
}

func (s *subscriber) wants(t Type) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// InMemoryBus fans events out to in-process subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the event.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	now         func() time.Time
}

func NewBus() *InMemoryBus {
	return &InMemoryBus{subscribers: make(map[string]*subscriber), now: time.Now}
}

// Publish assigns an id and timestamp when missing and delivers e to every
// interested subscriber.
func (b *InMemoryBus) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = b.now().UTC()
	}
	if e.Collection == "" {
		if p, ok := e.Payload.(RecordPayload); ok {
			e.Collection = p.Collection
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subscribers {
		if !sub.wants(e.Type) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			droppedEventsTotal.WithLabelValues(string(e.Type)).Inc()
			slog.Debug("event dropped for slow subscriber", "subscriber", id, "type", e.Type)
		}
	}
}

func (b *InMemoryBus) Subscribe(types ...Type) (<-chan Event, func()) {
	id := uuid.NewString()
	sub := &subscriber{ch: make(chan Event, subscriberBuffer), types: slices.Clone(types)}

	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, id)
			close(sub.ch)
		})
	}
}
