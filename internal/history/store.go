package history

import (
	"context"
	"time"
)

// Kind separates the verification and disclosure logs inside one store.
type Kind string

const (
	KindVerification Kind = "verification"
	KindDisclosure   Kind = "disclosure"
)

// Entry is the persisted form of one history record. Payload holds the
// record encoded as JSON by its owner.
type Entry struct {
	ID           string
	Kind         Kind
	CredentialID string
	Payload      []byte
	Timestamp    time.Time
}

// Store persists history entries and the lifetime success counters.
// Counters survive Clear.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Load(ctx context.Context, kind Kind) ([]Entry, error)
	Clear(ctx context.Context, kind Kind) error
	Increment(ctx context.Context, kind Kind) (int64, error)
	Counter(ctx context.Context, kind Kind) (int64, error)
	Close() error
}
