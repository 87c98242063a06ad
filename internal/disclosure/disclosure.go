// Package disclosure requests selective disclosures of credential fields and
// keeps the history of the ones that completed.
package disclosure

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/udaycodespace/credify/internal/backend"
	"github.com/udaycodespace/credify/internal/events"
	"github.com/udaycodespace/credify/internal/history"
	"github.com/udaycodespace/credify/pkg/logger"
	"github.com/udaycodespace/credify/pkg/utilities"
	"github.com/udaycodespace/credify/pkg/utilities/timeutil"
)

// Client sends disclosure requests. *backend.Client implements it.
type Client interface {
	SelectiveDisclosure(ctx context.Context, credentialID string, fields []string) (backend.Response, error)
}

// Result is the disclosure document returned by the backend together with
// the HTTP status it came with.
type Result struct {
	Document   backend.Document `json:"document"`
	HTTPStatus int              `json:"httpStatus"`
}

func (r Result) Success() bool {
	return r.Document.Bool("success")
}

func (r Result) ErrorMessage() string {
	return r.Document.String("error")
}

func (r Result) Message() string {
	return r.Document.String("message")
}

// Disclosure is the signed disclosure document, nil when the backend
// refused the request.
func (r Result) Disclosure() backend.Document {
	return r.Document.Object("disclosure")
}

// Disclosed lists the names of the fields the backend disclosed, sorted.
func (r Result) Disclosed() []string {
	return r.Disclosure().Strings("disclosedFields")
}

type Record struct {
	ID             string    `json:"id"`
	CredentialID   string    `json:"credentialId"`
	SelectedFields []string  `json:"selectedFields"`
	Result         Result    `json:"result"`
	Timestamp      time.Time `json:"timestamp"`
}

func (r Record) RecordID() string           { return r.ID }
func (r Record) RecordCredentialID() string { return r.CredentialID }
func (r Record) RecordTime() time.Time      { return r.Timestamp }

type options struct {
	store     history.Store
	publisher events.Publisher
	clock     timeutil.Clock
	log       *logger.Logger
}

type Option func(*options)

func WithStore(s history.Store) Option {
	return func(o *options) { o.store = s }
}

func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithClock(c timeutil.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// Manager is safe for concurrent use; records appear in completion order.
type Manager struct {
	client    Client
	journal   *history.Journal[Record]
	publisher events.Publisher
	log       *logger.Logger
}

func New(client Client, opts ...Option) *Manager {
	o := options{
		publisher: events.Noop{},
		clock:     timeutil.SystemClock,
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	lg := o.log.Named("disclosure")

	m := &Manager{
		client:    client,
		journal:   history.NewJournal[Record](history.KindDisclosure, o.store, o.clock, lg),
		publisher: o.publisher,
		log:       lg,
	}
	m.journal.OnAppend(m.publish)
	return m
}

// NormalizeFields trims the field names and returns them as a sorted set.
// Blank names are dropped.
func NormalizeFields(fields []string) []string {
	trimmed := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			trimmed = append(trimmed, f)
		}
	}
	out := utilities.Dedupe(trimmed)
	sort.Strings(out)
	return out
}

// Disclose asks the backend to disclose the selected fields of a
// credential. The id and an empty selection are sent as is; the backend
// decides whether to accept them. Network failures and malformed responses
// are returned as errors and leave the history untouched.
func (m *Manager) Disclose(ctx context.Context, credentialID string, selectedFields []string) (Result, error) {
	fields := NormalizeFields(selectedFields)

	resp, err := m.client.SelectiveDisclosure(ctx, credentialID, fields)
	if err != nil {
		m.log.Warnf("Disclosure of %s failed: %v", credentialID, err)
		return Result{}, fmt.Errorf("disclose credential %s: %w", credentialID, err)
	}

	result := Result{Document: resp.Body, HTTPStatus: resp.StatusCode}
	m.journal.Append(ctx, func(now time.Time) Record {
		return Record{
			ID:             uuid.NewString(),
			CredentialID:   credentialID,
			SelectedFields: slices.Clone(fields),
			Result:         Result{Document: resp.Body.Clone(), HTTPStatus: resp.StatusCode},
			Timestamp:      now,
		}
	})
	m.log.Infof("Disclosure for %s completed: success=%t fields=%v", credentialID, result.Success(), fields)

	return result, nil
}

func (m *Manager) publish(ctx context.Context, rec Record) {
	err := m.publisher.Publish(ctx, events.Event{
		Type:         events.CredentialDisclosed,
		RecordID:     rec.ID,
		CredentialID: rec.CredentialID,
		Fields:       rec.SelectedFields,
		Outcome:      rec.Result.Success(),
		HTTPStatus:   rec.Result.HTTPStatus,
		Timestamp:    rec.Timestamp,
	})
	if err != nil {
		m.log.Error(err, "Could not publish disclosure event")
	}
}

// History returns copies of the records in completion order.
func (m *Manager) History() []Record {
	records := m.journal.Records()
	for i := range records {
		records[i].SelectedFields = slices.Clone(records[i].SelectedFields)
		records[i].Result.Document = records[i].Result.Document.Clone()
	}
	return records
}

// ClearHistory drops every record, including persisted ones. Count is kept.
func (m *Manager) ClearHistory() {
	m.journal.Clear(context.Background())
}

// Count is the lifetime number of successful disclosures.
func (m *Manager) Count() int64 {
	return m.journal.Count()
}

func (m *Manager) Restore(ctx context.Context) (int, error) {
	return m.journal.Restore(ctx)
}
