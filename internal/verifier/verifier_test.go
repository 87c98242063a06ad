package verifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udaycodespace/credify/internal/backend"
	"github.com/udaycodespace/credify/internal/events"
	"github.com/udaycodespace/credify/internal/history"
	"github.com/udaycodespace/credify/pkg/logger"
)

type clientFunc func(ctx context.Context, credentialID string) (backend.Response, error)

func (f clientFunc) VerifyCredential(ctx context.Context, credentialID string) (backend.Response, error) {
	return f(ctx, credentialID)
}

func validClient() clientFunc {
	return func(_ context.Context, id string) (backend.Response, error) {
		return backend.Response{
			StatusCode: http.StatusOK,
			Body:       backend.Document{"valid": true, "credential_id": id},
		}, nil
	}
}

func newVerifier(client Client, opts ...Option) *Verifier {
	return New(client, append([]Option{WithLogger(logger.Nop())}, opts...)...)
}

func TestVerifyRecordsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, backend.VerifyPath, r.URL.Path)
		w.Write([]byte(`{"valid": true, "credential": {"id": "CRED-001"}}`))
	}))
	defer srv.Close()

	v := newVerifier(backend.NewClient(srv.URL))
	result, err := v.Verify(context.Background(), "CRED-001")
	require.NoError(t, err)
	assert.True(t, result.Valid())
	assert.Equal(t, http.StatusOK, result.HTTPStatus)

	records := v.History()
	require.Len(t, records, 1)
	assert.Equal(t, "CRED-001", records[0].CredentialID)
	assert.True(t, records[0].Result.Valid())
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].Timestamp.IsZero())
	assert.EqualValues(t, 1, v.Count())
}

func TestVerifyInvalidCredentialIsAResult(t *testing.T) {
	client := clientFunc(func(context.Context, string) (backend.Response, error) {
		return backend.Response{
			StatusCode: http.StatusOK,
			Body:       backend.Document{"valid": false, "error": "Credential not found in registry"},
		}, nil
	})
	v := newVerifier(client)

	result, err := v.Verify(context.Background(), "CRED-404")
	require.NoError(t, err)

	assert.False(t, result.Valid())
	assert.Equal(t, "Credential not found in registry", result.ErrorMessage())
	assert.Len(t, v.History(), 1)
}

func TestVerifyFailureLeavesHistoryUnchanged(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"network", &backend.RequestError{Op: "verify", Kind: backend.ErrNetwork}, backend.ErrNetwork},
		{"malformed", &backend.RequestError{Op: "verify", Kind: backend.ErrMalformedResponse}, backend.ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fail := false
			client := clientFunc(func(ctx context.Context, id string) (backend.Response, error) {
				if fail {
					return backend.Response{}, tt.err
				}
				return validClient()(ctx, id)
			})
			v := newVerifier(client)

			_, err := v.Verify(context.Background(), "CRED-001")
			require.NoError(t, err)

			fail = true
			_, err = v.Verify(context.Background(), "CRED-002")
			assert.ErrorIs(t, err, tt.kind)

			records := v.History()
			require.Len(t, records, 1)
			assert.Equal(t, "CRED-001", records[0].CredentialID)
			assert.EqualValues(t, 1, v.Count())
		})
	}
}

func TestVerifyRejectsEmptyID(t *testing.T) {
	called := false
	v := newVerifier(clientFunc(func(context.Context, string) (backend.Response, error) {
		called = true
		return backend.Response{}, nil
	}))

	for _, id := range []string{"", "   ", "\t"} {
		_, err := v.Verify(context.Background(), id)
		assert.ErrorIs(t, err, ErrEmptyCredentialID)
	}
	assert.False(t, called)
	assert.Empty(t, v.History())
}

func TestVerifyKeepsIDAsGiven(t *testing.T) {
	var got string
	v := newVerifier(clientFunc(func(ctx context.Context, id string) (backend.Response, error) {
		got = id
		return validClient()(ctx, id)
	}))

	_, err := v.Verify(context.Background(), "  CRED-001 ")
	require.NoError(t, err)
	assert.Equal(t, "  CRED-001 ", got)
	assert.Equal(t, "  CRED-001 ", v.History()[0].CredentialID)
}

func TestHistoryFollowsCompletionOrder(t *testing.T) {
	release := map[string]chan struct{}{
		"slow": make(chan struct{}),
		"fast": make(chan struct{}),
	}
	v := newVerifier(clientFunc(func(ctx context.Context, id string) (backend.Response, error) {
		<-release[id]
		return validClient()(ctx, id)
	}))

	var wg sync.WaitGroup
	for _, id := range []string{"slow", "fast"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := v.Verify(context.Background(), id)
			assert.NoError(t, err)
		}(id)
	}

	close(release["fast"])
	require.Eventually(t, func() bool { return len(v.History()) == 1 }, 2*time.Second, 5*time.Millisecond)
	close(release["slow"])
	wg.Wait()

	records := v.History()
	require.Len(t, records, 2)
	assert.Equal(t, "fast", records[0].CredentialID)
	assert.Equal(t, "slow", records[1].CredentialID)
	assert.False(t, records[1].Timestamp.Before(records[0].Timestamp))
}

func TestConcurrentVerifications(t *testing.T) {
	v := newVerifier(validClient())

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Verify(context.Background(), "CRED-001")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records := v.History()
	require.Len(t, records, n)
	ids := map[string]bool{}
	for i, rec := range records {
		ids[rec.ID] = true
		if i > 0 {
			assert.False(t, rec.Timestamp.Before(records[i-1].Timestamp))
		}
	}
	assert.Len(t, ids, n)
	assert.EqualValues(t, n, v.Count())
}

func TestClearHistory(t *testing.T) {
	v := newVerifier(validClient())
	v.ClearHistory()
	assert.Empty(t, v.History())

	for _, id := range []string{"CRED-001", "CRED-002", "CRED-003"} {
		_, err := v.Verify(context.Background(), id)
		require.NoError(t, err)
	}
	v.ClearHistory()

	assert.Empty(t, v.History())
	assert.EqualValues(t, 3, v.Count())

	_, err := v.Verify(context.Background(), "CRED-004")
	require.NoError(t, err)
	assert.Len(t, v.History(), 1)
}

func TestHistoryReturnsCopies(t *testing.T) {
	v := newVerifier(validClient())
	_, err := v.Verify(context.Background(), "CRED-001")
	require.NoError(t, err)

	records := v.History()
	records[0].CredentialID = "tampered"
	records[0].Result.Document["valid"] = false

	fresh := v.History()
	assert.Equal(t, "CRED-001", fresh[0].CredentialID)
	assert.True(t, fresh[0].Result.Valid())
}

func TestVerifyPublishesEvent(t *testing.T) {
	recorder := &events.Recorder{}
	v := newVerifier(validClient(), WithPublisher(recorder))

	_, err := v.Verify(context.Background(), "CRED-001")
	require.NoError(t, err)

	published := recorder.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.CredentialVerified, published[0].Type)
	assert.Equal(t, "CRED-001", published[0].CredentialID)
	assert.True(t, published[0].Outcome)
	assert.Equal(t, v.History()[0].ID, published[0].RecordID)
}

func TestEventsFollowHistoryOrder(t *testing.T) {
	recorder := &events.Recorder{}
	v := newVerifier(validClient(), WithPublisher(recorder))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := v.Verify(context.Background(), fmt.Sprintf("CRED-%03d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records := v.History()
	published := recorder.Events()
	require.Len(t, published, len(records))
	for i := range records {
		assert.Equal(t, records[i].ID, published[i].RecordID)
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error {
	return errors.New("broker down")
}

func TestPublishFailureDoesNotFailVerify(t *testing.T) {
	v := newVerifier(validClient(), WithPublisher(failingPublisher{}))

	_, err := v.Verify(context.Background(), "CRED-001")
	require.NoError(t, err)
	assert.Len(t, v.History(), 1)
}

func TestRestoreFromStore(t *testing.T) {
	store := history.NewMemoryStore()
	fixed := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)

	first := newVerifier(validClient(), WithStore(store), WithClock(func() time.Time { return fixed }))
	_, err := first.Verify(context.Background(), "CRED-001")
	require.NoError(t, err)
	_, err = first.Verify(context.Background(), "CRED-002")
	require.NoError(t, err)

	second := newVerifier(validClient(), WithStore(store))
	n, err := second.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 2, second.Count())

	records := second.History()
	require.Len(t, records, 2)
	assert.Equal(t, "CRED-001", records[0].CredentialID)
	assert.True(t, records[0].Result.Valid())
	assert.True(t, fixed.Equal(records[0].Timestamp))
}
