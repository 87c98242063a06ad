package rabbitmq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/udaycodespace/credify/pkg/utilities"
)

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type IRabbitmqPublisher interface {
	Publish(ctx context.Context, body utilities.Serializable) error
	Close() error
}

type RabbitmqPublisher struct {
	Channel    Channel
	Exchange   string
	RoutingKey string
}

func NewPublisher(ch Channel, exchange, routingKey string) *RabbitmqPublisher {
	return &RabbitmqPublisher{
		Channel:    ch,
		Exchange:   exchange,
		RoutingKey: routingKey,
	}
}

// NewPublisherFromConnection opens a channel on conn and declares the
// topic exchange the publisher writes to.
func NewPublisherFromConnection(conn *amqp.Connection, exchange, routingKey string) (*RabbitmqPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if exchange != "" {
		err = ch.ExchangeDeclare(
			exchange, // name
			"topic",  // kind
			true,     // durable
			false,    // auto-delete
			false,    // internal
			false,    // no-wait
			nil,      // args
		)
		if err != nil {
			ch.Close()
			return nil, err
		}
	}
	return NewPublisher(ch, exchange, routingKey), nil
}

func (rp *RabbitmqPublisher) Publish(ctx context.Context, body utilities.Serializable) error {
	json, err := body.Serialize()
	if err != nil {
		return err
	}

	return rp.Channel.PublishWithContext(
		ctx,
		rp.Exchange,
		rp.RoutingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         json,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
}

func (rp *RabbitmqPublisher) Close() error {
	return rp.Channel.Close()
}
