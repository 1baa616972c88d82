// Package events provides in-process fan-out of envelope state changes.
// The notification collaborator and staff event streams subscribe here.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/firmaria/docsign/internal/models"
)

// Subscriber represents an event stream subscriber.
type Subscriber struct {
	ID         string
	EnvelopeID string // "" subscribes to all envelopes of the company
	CompanyID  string
	Ch         chan *models.EnvelopeEvent
	CreatedAt  time.Time
}

// Broker manages event subscriptions and publishing.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	logger      *slog.Logger
}

// NewBroker creates a new event broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subscribers: make(map[string]*Subscriber),
		logger:      logger,
	}
}

// Subscribe creates a new subscription for envelope events. An empty
// envelopeID subscribes to every envelope of the company.
func (b *Broker) Subscribe(envelopeID, companyID string) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscriber{
		ID:         uuid.New().String(),
		EnvelopeID: envelopeID,
		CompanyID:  companyID,
		Ch:         make(chan *models.EnvelopeEvent, 64),
		CreatedAt:  time.Now(),
	}

	b.subscribers[sub.ID] = sub
	b.logger.Debug("subscriber added",
		"subscriber_id", sub.ID,
		"envelope_id", envelopeID,
		"company_id", companyID,
	)

	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broker) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[sub.ID]; exists {
		close(sub.Ch)
		delete(b.subscribers, sub.ID)
		b.logger.Debug("subscriber removed", "subscriber_id", sub.ID)
	}
}

// Publish sends an event to all matching subscribers. Slow subscribers drop
// events rather than blocking the publisher.
func (b *Broker) Publish(event *models.EnvelopeEvent) {
	if event == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if !b.matches(sub, event) {
			continue
		}
		select {
		case sub.Ch <- event:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				"subscriber_id", sub.ID,
				"envelope_id", event.EnvelopeID,
				"type", event.Type,
			)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Broker) matches(sub *Subscriber, event *models.EnvelopeEvent) bool {
	if sub.CompanyID != "" && sub.CompanyID != event.CompanyID {
		return false
	}
	if sub.EnvelopeID != "" && sub.EnvelopeID != event.EnvelopeID {
		return false
	}
	return true
}
