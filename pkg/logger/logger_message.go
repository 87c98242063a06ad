package logger

import (
	"github.com/udaycodespace/credify/pkg/utilities"
	"github.com/udaycodespace/credify/pkg/utilities/timeutil"
)

// LoggerMessage is the wire form of a log line forwarded by a sink.
type LoggerMessage struct {
	Level     string           `json:"level"`
	Message   string           `json:"message"`
	Service   string           `json:"service"`
	Timestamp timeutil.TimeUTC `json:"timestamp"`
}

func (lm LoggerMessage) Serialize() ([]byte, error) {
	return utilities.Serialize(lm)
}
