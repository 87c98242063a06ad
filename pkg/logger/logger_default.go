package logger

import "sync"

type LoggerArg struct {
	Key   string
	Value string
}

type GlobalLoggerConfig struct {
	Config LoggerConfig
	Args   []LoggerArg
}

var (
	defaultLogger *Logger
	onceLogger    sync.Once
)

func InitDefaultLogger(config GlobalLoggerConfig) {
	onceLogger.Do(func() {
		l := NewFromConfig(config.Config)
		ctx := l.zl.With()
		for _, arg := range config.Args {
			ctx = ctx.Str(arg.Key, arg.Value)
		}
		l.zl = ctx.Logger()
		defaultLogger = l
	})
}

// Default returns the process logger, initialising it with defaults when
// InitDefaultLogger has not been called.
func Default() *Logger {
	InitDefaultLogger(GlobalLoggerConfig{})
	return defaultLogger
}
