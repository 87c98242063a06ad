// Package verifier submits credential verification requests and keeps the
// history of the ones that completed.
package verifier

import (
	"context"
	"errors"
	"fmt"
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

var ErrEmptyCredentialID = errors.New("credential id is required")

// Client sends verification requests. *backend.Client implements it.
type Client interface {
	VerifyCredential(ctx context.Context, credentialID string) (backend.Response, error)
}

// Result is the verification document returned by the backend together
// with the HTTP status it came with.
type Result struct {
	Document   backend.Document `json:"document"`
	HTTPStatus int              `json:"httpStatus"`
}

// Valid reports the backend's "valid" verdict.
func (r Result) Valid() bool {
	return r.Document.Bool("valid")
}

// ErrorMessage is the backend's "error" field, empty when absent.
func (r Result) ErrorMessage() string {
	return r.Document.String("error")
}

// Status is the credential status reported with the verdict, e.g. "revoked".
func (r Result) Status() string {
	return r.Document.String("status")
}

type Record struct {
	ID           string    `json:"id"`
	CredentialID string    `json:"credentialId"`
	Result       Result    `json:"result"`
	Timestamp    time.Time `json:"timestamp"`
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

// WithStore persists the history and the lifetime count.
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

// Verifier is safe for concurrent use. Concurrent Verify calls are
// independent; records appear in the order the calls complete.
type Verifier struct {
	client    Client
	journal   *history.Journal[Record]
	publisher events.Publisher
	log       *logger.Logger
}

func New(client Client, opts ...Option) *Verifier {
	o := options{
		publisher: events.Noop{},
		clock:     timeutil.SystemClock,
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	lg := o.log.Named("verifier")

	v := &Verifier{
		client:    client,
		journal:   history.NewJournal[Record](history.KindVerification, o.store, o.clock, lg),
		publisher: o.publisher,
		log:       lg,
	}
	v.journal.OnAppend(v.publish)
	return v
}

// Verify asks the backend to verify credentialID. A backend answer is a
// result even when it reports the credential invalid; only network
// failures and malformed responses are errors, and those leave the history
// untouched. The id is sent and recorded as given.
func (v *Verifier) Verify(ctx context.Context, credentialID string) (Result, error) {
	if strings.TrimSpace(credentialID) == "" {
		return Result{}, ErrEmptyCredentialID
	}

	resp, err := v.client.VerifyCredential(ctx, credentialID)
	if err != nil {
		v.log.Warnf("Verification of %s failed: %v", credentialID, err)
		return Result{}, fmt.Errorf("verify credential %s: %w", credentialID, err)
	}

	result := Result{Document: resp.Body, HTTPStatus: resp.StatusCode}
	v.journal.Append(ctx, func(now time.Time) Record {
		return Record{
			ID:           uuid.NewString(),
			CredentialID: credentialID,
			Result:       Result{Document: resp.Body.Clone(), HTTPStatus: resp.StatusCode},
			Timestamp:    now,
		}
	})
	v.log.Infof("Credential %s verified: valid=%t", credentialID, result.Valid())

	return result, nil
}

// publish runs under the journal lock, so events leave in history order.
func (v *Verifier) publish(ctx context.Context, rec Record) {
	err := v.publisher.Publish(ctx, events.Event{
		Type:         events.CredentialVerified,
		RecordID:     rec.ID,
		CredentialID: rec.CredentialID,
		Outcome:      rec.Result.Valid(),
		HTTPStatus:   rec.Result.HTTPStatus,
		Timestamp:    rec.Timestamp,
	})
	if err != nil {
		v.log.Error(err, "Could not publish verification event")
	}
}

// History returns the records in completion order. The slice and the
// documents in it are copies.
func (v *Verifier) History() []Record {
	return utilities.Map(v.journal.Records(), func(rec Record) Record {
		rec.Result.Document = rec.Result.Document.Clone()
		return rec
	})
}

// ClearHistory drops every record, including persisted ones. Count is kept.
func (v *Verifier) ClearHistory() {
	v.journal.Clear(context.Background())
}

// Count is the lifetime number of successful verifications.
func (v *Verifier) Count() int64 {
	return v.journal.Count()
}

// Restore loads the persisted history into a verifier that has not
// verified anything yet.
func (v *Verifier) Restore(ctx context.Context) (int, error) {
	return v.journal.Restore(ctx)
}
