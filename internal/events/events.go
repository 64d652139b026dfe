package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"ypg-admin-api/internal/models"
)

// EventType represents the type of event.
type EventType string

const (
	// EventDonationSubmitted is emitted once a donation has been stored.
	EventDonationSubmitted EventType = "donation.submitted"
	// EventDonationVerified is emitted when a pending donation is verified
	// after submission.
	EventDonationVerified EventType = "donation.verified"
	// EventPaymentFailed is emitted when the card gateway declines a charge.
	EventPaymentFailed EventType = "donation.payment_failed"
)

// Event represents an event in the system.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      interface{}
}

// DonationData is the payload of every donation event.
type DonationData struct {
	Donation models.Donation
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager manages event handlers and event publishing.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
	logger   *zap.Logger
}

// NewManager creates a new event manager.
func NewManager(enabled bool, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
		logger:   logger,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Publish runs every handler subscribed to eventType in order, on the
// caller's goroutine. Handler errors and panics are logged and dropped so a
// failing side effect never fails the operation that published the event.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data interface{}) {
	m.mu.RLock()
	enabled := m.enabled
	handlers := m.handlers[eventType]
	m.mu.RUnlock()

	if !enabled || len(handlers) == 0 {
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	for _, handler := range handlers {
		m.run(ctx, handler, event)
	}
}

func (m *Manager) run(ctx context.Context, h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("event handler panicked",
				zap.String("event", string(event.Type)),
				zap.Any("panic", r),
			)
		}
	}()

	if err := h(ctx, event); err != nil {
		m.logger.Warn("event handler failed",
			zap.String("event", string(event.Type)),
			zap.Error(err),
		)
	}
}

// PublishDonationSubmitted publishes a donation submitted event.
func (m *Manager) PublishDonationSubmitted(ctx context.Context, d models.Donation) {
	m.Publish(ctx, EventDonationSubmitted, DonationData{Donation: d})
}

// PublishDonationVerified publishes a donation verified event.
func (m *Manager) PublishDonationVerified(ctx context.Context, d models.Donation) {
	m.Publish(ctx, EventDonationVerified, DonationData{Donation: d})
}

// PublishPaymentFailed publishes a payment failed event.
func (m *Manager) PublishPaymentFailed(ctx context.Context, d models.Donation) {
	m.Publish(ctx, EventPaymentFailed, DonationData{Donation: d})
}

// Shutdown shuts down the event manager.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
}
