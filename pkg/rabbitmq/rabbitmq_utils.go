package rabbitmq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/udaycodespace/credify/pkg/logger"
)

const defaultMaxRetries = 7

// Swapped in tests.
var (
	dial             = amqp.Dial
	initialRetryWait = 1 * time.Second
)

func ConnectToRabbitmq(ctx context.Context, url string, maxRetries int) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	waitTime := initialRetryWait

	queueLogger := logger.Default()

	for i := 0; i < maxRetries; i++ {
		conn, err = dial(url)
		if err == nil {
			return conn, nil
		}
		queueLogger.Warnf("Attempt %d failed: %v. Retrying in %v...", i+1, err, waitTime)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
		waitTime *= 2
	}
	return nil, err
}
