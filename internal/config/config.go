// Package config loads the client configuration from a JSON file, a .env
// file and CREDIFY_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/udaycodespace/credify/pkg/logger"
	"github.com/udaycodespace/credify/pkg/rabbitmq"
	"github.com/udaycodespace/credify/pkg/utilities"
)

const (
	DefaultAPIURL       = "http://localhost:5000"
	DefaultPollInterval = 30 * time.Second
	DefaultStubPort     = 5000
)

const (
	EnvAPIURL         = "CREDIFY_API_URL"
	EnvPollInterval   = "CREDIFY_POLL_INTERVAL"
	EnvRequestTimeout = "CREDIFY_REQUEST_TIMEOUT"
	EnvHistoryDSN     = "CREDIFY_HISTORY_DSN"
	EnvRabbitmqURL    = "CREDIFY_RABBITMQ_URL"
	EnvLogLevel       = "CREDIFY_LOG_LEVEL"
	EnvStubPort       = "CREDIFY_STUB_PORT"
)

type CredifyConfigJson struct {
	LoggerConf   logger.LoggerConfigJson     `json:"logger"`
	RabbitmqConf rabbitmq.RabbitmqConfigJson `json:"rabbitmq"`
	ApiConf      ApiConfigJson               `json:"api"`
	PollerConf   PollerConfigJson            `json:"poller"`
	HistoryConf  HistoryConfigJson           `json:"history"`
	StubConf     StubConfigJson              `json:"stub"`
}

func (ccj CredifyConfigJson) ConvertToDomain() CredifyConfig {
	return CredifyConfig{
		LoggerConf:   ccj.LoggerConf.ConvertToDomain(),
		RabbitmqConf: ccj.RabbitmqConf.ConvertToDomain(),
		ApiConf:      ccj.ApiConf.ConvertToDomain(),
		PollerConf:   ccj.PollerConf.ConvertToDomain(),
		HistoryConf:  ccj.HistoryConf.ConvertToDomain(),
		StubConf:     ccj.StubConf.ConvertToDomain(),
	}
}

type CredifyConfig struct {
	LoggerConf   logger.LoggerConfig
	RabbitmqConf rabbitmq.RabbitmqConfig
	ApiConf      ApiConfig
	PollerConf   PollerConfig
	HistoryConf  HistoryConfig
	StubConf     StubConfig
}

func (cc CredifyConfig) GetLoggerConfig() logger.LoggerConfig {
	return cc.LoggerConf
}

func (cc CredifyConfig) GetRabbitmqConfig() rabbitmq.RabbitmqConfig {
	return cc.RabbitmqConf
}

// GetRestApiPort is the port the stub backend listens on.
func (cc CredifyConfig) GetRestApiPort() uint16 {
	return cc.StubConf.Port
}

type ApiConfigJson struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type ApiConfig struct {
	BaseURL string
	// Timeout of the HTTP client. Zero means no client-side timeout.
	Timeout time.Duration
}

func (acj ApiConfigJson) ConvertToDomain() ApiConfig {
	return ApiConfig{
		BaseURL: utilities.Ternary(acj.BaseURL == "", DefaultAPIURL, strings.TrimRight(acj.BaseURL, "/")),
		Timeout: time.Duration(acj.TimeoutSeconds) * time.Second,
	}
}

type PollerConfigJson struct {
	IntervalSeconds int `json:"interval_seconds"`
}

type PollerConfig struct {
	Interval time.Duration
}

func (pcj PollerConfigJson) ConvertToDomain() PollerConfig {
	if pcj.IntervalSeconds <= 0 {
		return PollerConfig{Interval: DefaultPollInterval}
	}
	return PollerConfig{Interval: time.Duration(pcj.IntervalSeconds) * time.Second}
}

type HistoryConfigJson struct {
	DSN string `json:"dsn"`
}

type HistoryConfig struct {
	// DSN of the history database. Empty keeps history in memory.
	DSN string
}

func (hcj HistoryConfigJson) ConvertToDomain() HistoryConfig {
	return HistoryConfig{DSN: hcj.DSN}
}

// Persistent reports whether histories outlive the process.
func (hc HistoryConfig) Persistent() bool {
	return hc.DSN != "" && hc.DSN != ":memory:"
}

type StubConfigJson struct {
	Port uint16 `json:"port"`
}

type StubConfig struct {
	Port uint16
}

func (scj StubConfigJson) ConvertToDomain() StubConfig {
	return StubConfig{Port: utilities.Ternary(scj.Port == 0, uint16(DefaultStubPort), scj.Port)}
}

// Default is the configuration used when no file and no environment
// variables are present.
func Default() CredifyConfig {
	return CredifyConfigJson{}.ConvertToDomain()
}

// Load reads the JSON file at path (optional: an empty path or a missing
// file yields defaults), then the env files and finally the process
// environment. Without explicit env files a .env in the working directory
// is loaded if it exists.
func Load(path string, envFiles ...string) (CredifyConfig, error) {
	cfg := Default()
	if path != "" {
		fromFile, err := utilities.ReadConfig[CredifyConfigJson, CredifyConfig](path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return CredifyConfig{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			cfg = fromFile
		}
	}

	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return CredifyConfig{}, fmt.Errorf("load env files: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return CredifyConfig{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *CredifyConfig) error {
	if v := getenv(EnvAPIURL); v != "" {
		cfg.ApiConf.BaseURL = strings.TrimRight(v, "/")
	}
	if v := getenv(EnvPollInterval); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		cfg.PollerConf.Interval = d
	}
	if v := getenv(EnvRequestTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		cfg.ApiConf.Timeout = d
	}
	if v := getenv(EnvHistoryDSN); v != "" {
		cfg.HistoryConf.DSN = v
	}
	if v := getenv(EnvRabbitmqURL); v != "" {
		cfg.RabbitmqConf.URL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LoggerConf.LogLevel = logger.ParseLevel(v)
	}
	if v := getenv(EnvStubPort); v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStubPort, err)
		}
		cfg.StubConf.Port = uint16(port)
	}
	return nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// parseDuration accepts Go durations ("45s", "2m") and bare seconds ("30").
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("duration must be positive, got %q", v)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", v)
	}
	return d, nil
}
