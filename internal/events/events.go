// Package events provides in-process pub/sub for reconciliation outcomes so
// that audit, alerting and metrics observe terminal states without coupling
// to the reconciler.
package events

import (
	"sync"
	"time"

	"mannabook/internal/models"
)

// ReconcileOutcome is published once per reconciliation attempt reaching a
// terminal state. A declined outcome for a captured payment is an
// operational incident; subscribers make it visible.
type ReconcileOutcome struct {
	OrderID      string
	State        string
	Window       models.BookingWindow
	CommitmentID string
	CustomerName string
	Package      string
	OccurredAt   time.Time
}

// Handler reacts to an outcome.
type Handler func(outcome ReconcileOutcome)

// Bus fans outcomes out to subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all outcomes.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish notifies subscribers synchronously, in subscription order.
func (b *Bus) Publish(outcome ReconcileOutcome) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	if outcome.OccurredAt.IsZero() {
		outcome.OccurredAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		handler(outcome)
	}
}
