// Package app assembles the client from its configuration. Nothing in the
// client is process-global: every Client owns its poller, verifier,
// disclosure manager and their stores.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/udaycodespace/credify/internal/backend"
	"github.com/udaycodespace/credify/internal/config"
	"github.com/udaycodespace/credify/internal/disclosure"
	"github.com/udaycodespace/credify/internal/events"
	"github.com/udaycodespace/credify/internal/history"
	"github.com/udaycodespace/credify/internal/status"
	"github.com/udaycodespace/credify/internal/verifier"
	"github.com/udaycodespace/credify/pkg/logger"
	"github.com/udaycodespace/credify/pkg/rabbitmq"
	"github.com/udaycodespace/credify/pkg/utilities/timeutil"
)

const (
	defaultExchange      = "credify"
	defaultEventsRouting = "client.events"
	defaultLogsRouting   = "client.logs"
	serviceName          = "credify"
)

type Client struct {
	Config     config.CredifyConfig
	Backend    *backend.Client
	Poller     *status.Poller
	Verifier   *verifier.Verifier
	Disclosure *disclosure.Manager
	Logger     *logger.Logger

	closers []func() error
}

type options struct {
	display    func(status.Snapshot)
	scheduler  status.Scheduler
	httpClient *http.Client
	publisher  events.Publisher
	log        *logger.Logger
	clock      timeutil.Clock
}

type Option func(*options)

// WithDisplay sets the callback receiving status snapshots.
func WithDisplay(display func(status.Snapshot)) Option {
	return func(o *options) { o.display = display }
}

func WithScheduler(s status.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithPublisher overrides the event publisher derived from the RabbitMQ
// configuration.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithClock(c timeutil.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New builds a client. With a persistent history DSN the stored histories
// and counters are restored before New returns. With a RabbitMQ URL the
// broker is dialled and completion events and log lines are published to
// it.
func New(ctx context.Context, cfg config.CredifyConfig, opts ...Option) (*Client, error) {
	o := options{clock: timeutil.SystemClock}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.NewFromConfig(cfg.GetLoggerConfig())
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.ApiConf.Timeout}
	}

	c := &Client{Config: cfg, Logger: o.log}

	if o.publisher == nil {
		publisher, err := c.connectBroker(ctx, cfg.GetRabbitmqConfig())
		if err != nil {
			c.Close()
			return nil, err
		}
		o.publisher = publisher
	}

	var store history.Store
	if cfg.HistoryConf.Persistent() {
		gormStore, err := history.OpenGormStore(cfg.HistoryConf.DSN)
		if err != nil {
			c.Close()
			return nil, err
		}
		store = gormStore
		c.closers = append(c.closers, gormStore.Close)
	}

	c.Backend = backend.NewClient(cfg.ApiConf.BaseURL, backend.WithHTTPClient(o.httpClient))

	pollerOpts := []status.Option{status.WithLogger(o.log.Named("status")), status.WithClock(o.clock)}
	if o.scheduler != nil {
		pollerOpts = append(pollerOpts, status.WithScheduler(o.scheduler))
	}
	c.Poller = status.New(c.Backend, o.display, pollerOpts...)

	c.Verifier = verifier.New(c.Backend,
		verifier.WithStore(store),
		verifier.WithPublisher(o.publisher),
		verifier.WithLogger(o.log),
		verifier.WithClock(o.clock),
	)
	c.Disclosure = disclosure.New(c.Backend,
		disclosure.WithStore(store),
		disclosure.WithPublisher(o.publisher),
		disclosure.WithLogger(o.log),
		disclosure.WithClock(o.clock),
	)

	if store != nil {
		if err := c.restore(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) connectBroker(ctx context.Context, rc rabbitmq.RabbitmqConfig) (events.Publisher, error) {
	if !rc.Enabled() {
		return events.Noop{}, nil
	}

	conn, err := rabbitmq.ConnectToRabbitmq(ctx, rc.URL, rc.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	c.closers = append(c.closers, conn.Close)

	exchange := rc.Exchange
	if exchange == "" {
		exchange = defaultExchange
	}
	routingKey := rc.RoutingKey
	if routingKey == "" {
		routingKey = defaultEventsRouting
	}

	eventPublisher, err := rabbitmq.NewPublisherFromConnection(conn, exchange, routingKey)
	if err != nil {
		return nil, fmt.Errorf("open events channel: %w", err)
	}
	c.closers = append(c.closers, eventPublisher.Close)

	logPublisher, err := rabbitmq.NewPublisherFromConnection(conn, exchange, defaultLogsRouting)
	if err != nil {
		return nil, fmt.Errorf("open logs channel: %w", err)
	}
	c.closers = append(c.closers, logPublisher.Close)
	logger.AddSinkToLoggerInstance(c.Logger, rabbitmq.CreateRabbitmqLoggerSink(logPublisher, serviceName))
	c.closers = append(c.closers, func() error {
		logger.AddSinkToLoggerInstance(c.Logger, nil)
		return nil
	})

	c.Logger.Infof("Publishing events to exchange %s", exchange)
	return events.NewBrokerPublisher(eventPublisher), nil
}

func (c *Client) restore(ctx context.Context) error {
	verified, err := c.Verifier.Restore(ctx)
	if err != nil {
		return err
	}
	disclosed, err := c.Disclosure.Restore(ctx)
	if err != nil {
		return err
	}
	c.Logger.Debugf("Restored %d verification and %d disclosure records", verified, disclosed)
	return nil
}

// Close stops the poller and releases the stores and broker connection in
// reverse order of acquisition.
func (c *Client) Close() error {
	if c.Poller != nil {
		c.Poller.Stop()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
