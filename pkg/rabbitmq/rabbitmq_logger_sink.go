package rabbitmq

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/udaycodespace/credify/pkg/logger"
	"github.com/udaycodespace/credify/pkg/utilities/timeutil"
)

const sinkPublishTimeout = 2 * time.Second

func CreateRabbitmqLoggerSink(publisher IRabbitmqPublisher, service string) logger.SinkFunc {
	return func(msg string, level zerolog.Level, timestamp timeutil.TimeUTC) {
		loggerMessage := logger.LoggerMessage{
			Level:     level.String(),
			Message:   msg,
			Service:   service,
			Timestamp: timestamp,
		}

		ctx, cancel := context.WithTimeout(context.Background(), sinkPublishTimeout)
		defer cancel()
		err := publisher.Publish(ctx, loggerMessage)
		if err != nil {
			// Avoid infinite recursion by not using the logger here
			fmt.Fprintf(os.Stderr, "Failed to publish log message to RabbitMQ: %v\n", err)
		}
	}
}
