// Package events provides the in-process broadcast bus the stores use to
// signal each other without compile-time coupling. Dispatch is synchronous so
// lifecycle transitions (logout clearing dependent stores) complete before
// the emitting action returns; handlers are isolated from each other by a
// panic guard.
package events

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Topics emitted by the SDK stores
const (
	TopicSessionAuthenticated = "session.authenticated"
	TopicSessionCleared       = "session.cleared"
	TopicOrganizationChanged  = "organization.changed"
	TopicSubscriptionUpdated  = "subscription.updated"
)

// Handler receives the payload published with an event
type Handler func(payload any)

// Bus is a minimal topic/subscriber registry
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logrus.Logger
}

// NewBus creates an empty bus. A nil logger falls back to a default logrus
// logger.
func NewBus(log *logrus.Logger) *Bus {
	if log == nil {
		log = logrus.New()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// On registers a handler for a topic
func (b *Bus) On(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Emit delivers payload to every handler registered for topic, in
// registration order. A panicking handler is logged and does not prevent
// delivery to the rest.
func (b *Bus) Emit(topic string, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[topic]))
	copy(handlers, b.handlers[topic])
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(topic, handler, payload)
	}
}

func (b *Bus) dispatch(topic string, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"topic": topic,
				"panic": r,
			}).Error("event handler panicked")
		}
	}()
	handler(payload)
}

// Reset removes all registered handlers. Intended for tests.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]Handler)
}
