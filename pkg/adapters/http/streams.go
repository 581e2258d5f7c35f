package http

import (
	"log/slog"
	"sync"

	"github.com/aretw0/alignenv/internal/logging"
)

// StreamManager fans record events out to SSE connections, per stream.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe returns a buffered channel of stream events and its cancel function.
func (sm *StreamManager) Subscribe(stream string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 64)
	if _, ok := sm.subscribers[stream]; !ok {
		sm.subscribers[stream] = make(map[chan string]struct{})
	}
	sm.subscribers[stream][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[stream]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, stream)
				}
			}
		})
	}
}

// Subscribers returns the number of connections watching stream.
func (sm *StreamManager) Subscribers(stream string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[stream])
}

// Broadcast sends msg to every subscriber of stream. Slow clients whose
// buffer is full miss the message.
func (sm *StreamManager) Broadcast(stream string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[stream] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE client buffer full, dropping message", "stream", stream)
		}
	}
}
