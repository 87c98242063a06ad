package logger

import "github.com/rs/zerolog"

type LoggerConfigJson struct {
	LogLevel string `json:"log_level"`
	Pretty   bool   `json:"pretty"`
}

type LoggerConfig struct {
	LogLevel zerolog.Level
	Pretty   bool
}

func (lcj LoggerConfigJson) ConvertToDomain() LoggerConfig {
	return LoggerConfig{
		LogLevel: ParseLevel(lcj.LogLevel),
		Pretty:   lcj.Pretty,
	}
}

// ParseLevel maps a level name to a zerolog level, falling back to info.
func ParseLevel(name string) zerolog.Level {
	if name == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
