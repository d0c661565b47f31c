package hub

import (
	"context"
	"sync"

	"github.com/atikulmunna/logpage/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Hub receives published excerpts and broadcasts them to all subscribers.
type Hub struct {
	input       <-chan model.Excerpt
	log         *zap.Logger
	mu          sync.RWMutex
	subscribers map[string]chan model.Excerpt
	dropped     int64
	closed      bool
}

// New creates a Hub that reads from the input channel.
func New(input <-chan model.Excerpt, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		input:       input,
		log:         log,
		subscribers: make(map[string]chan model.Excerpt),
	}
}

// Subscribe returns an id and a buffered channel that receives every
// broadcast excerpt. The channel is closed by Unsubscribe or when the hub stops.
func (h *Hub) Subscribe() (string, <-chan model.Excerpt) {
	id := uuid.NewString()
	ch := make(chan model.Excerpt, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns the total number of excerpts dropped for slow subscribers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Start broadcasts input until the context is cancelled or input closes.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case ex, ok := <-h.input:
			if !ok {
				return
			}
			h.broadcast(ex)
		}
	}
}

// broadcast sends an excerpt to all subscribers, dropping it for any whose
// buffer is full.
func (h *Hub) broadcast(ex model.Excerpt) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- ex:
		default:
			h.dropped++
			h.log.Warn("dropped update for slow subscriber",
				zap.String("subscriber", id), zap.Int64("total_dropped", h.dropped))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	h.closed = true
}
