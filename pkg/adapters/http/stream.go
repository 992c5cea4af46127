package http

import (
	"log/slog"
	"sync"

	"github.com/aretw0/rillweb/internal/logging"
)

// Event topics.
const (
	TopicState         = "state"
	TopicOverlay       = "overlay"
	TopicNotifications = "notifications"
	TopicArtifacts     = "artifacts"
	TopicFiles         = "files"
)

// Topics lists every topic an SSE client may watch.
var Topics = []string{TopicState, TopicOverlay, TopicNotifications, TopicArtifacts, TopicFiles}

// Event is one server-sent event.
type Event struct {
	Topic string
	Data  string
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- Event]map[string]struct{} // channel -> watched topics
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[chan<- Event]map[string]struct{}),
		logger:      logger,
	}
}

// Subscribe returns a channel receiving events of the given topics and a cancel function.
func (sm *StreamManager) Subscribe(topics ...string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 16)
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	sm.subscribers[ch] = set

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Broadcast sends data to every subscriber of topic. Slow clients lose messages.
func (sm *StreamManager) Broadcast(topic, data string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch, topics := range sm.subscribers {
		if _, ok := topics[topic]; !ok {
			continue
		}
		select {
		case ch <- Event{Topic: topic, Data: data}:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "topic", topic)
		}
	}
}

// Len returns the number of connected subscribers.
func (sm *StreamManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}
