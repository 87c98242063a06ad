package logger

import (
	"github.com/rs/zerolog"

	"github.com/udaycodespace/credify/pkg/utilities/timeutil"
)

// SinkFunc receives a copy of every message that passes the level filter.
type SinkFunc func(msg string, level zerolog.Level, timestamp timeutil.TimeUTC)

// AddSinkToLoggerInstance replaces the sink of loggerInstance and of every
// logger derived from it. A nil sinkFunction removes it.
func AddSinkToLoggerInstance(loggerInstance *Logger, sinkFunction SinkFunc) {
	if sinkFunction == nil {
		loggerInstance.sink.Store(nil)
		return
	}
	loggerInstance.sink.Store(&sinkFunction)
}

func (l *Logger) activateSink(msg string, level zerolog.Level) {
	sink := l.sink.Load()
	if sink == nil || level < l.zl.GetLevel() {
		return
	}
	(*sink)(msg, level, timeutil.NowUTC())
}
