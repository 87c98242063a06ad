// Package events announces completed verifications and disclosures on the
// message broker.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/udaycodespace/credify/pkg/rabbitmq"
	"github.com/udaycodespace/credify/pkg/utilities"
)

type Type string

const (
	CredentialVerified  Type = "credential.verified"
	CredentialDisclosed Type = "credential.disclosed"
)

// Event describes one successful operation. It is published after the
// record was appended to its history.
type Event struct {
	Type         Type      `json:"type"`
	RecordID     string    `json:"record_id"`
	CredentialID string    `json:"credential_id"`
	Fields       []string  `json:"fields,omitempty"`
	Outcome      bool      `json:"outcome"`
	HTTPStatus   int       `json:"http_status"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e Event) Serialize() ([]byte, error) {
	return utilities.Serialize(e)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// BrokerPublisher forwards events to a RabbitMQ exchange.
type BrokerPublisher struct {
	publisher rabbitmq.IRabbitmqPublisher
}

func NewBrokerPublisher(publisher rabbitmq.IRabbitmqPublisher) *BrokerPublisher {
	return &BrokerPublisher{publisher: publisher}
}

func (bp *BrokerPublisher) Publish(ctx context.Context, event Event) error {
	if err := bp.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish %s event for %s: %w", event.Type, event.CredentialID, err)
	}
	return nil
}

func (bp *BrokerPublisher) Close() error {
	return bp.publisher.Close()
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
