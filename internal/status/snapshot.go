package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const errorLiteral = "Error"

// Count is a backend counter that is either a number or the "Error"
// placeholder shown when the status could not be fetched.
type Count struct {
	value   int64
	invalid bool
}

// ErrorCount is the placeholder count of an error snapshot.
var ErrorCount = Count{invalid: true}

func Number(n int64) Count {
	return Count{value: n}
}

// Int64 returns the number and whether the count holds one.
func (c Count) Int64() (int64, bool) {
	return c.value, !c.invalid
}

func (c Count) IsError() bool {
	return c.invalid
}

func (c Count) String() string {
	if c.invalid {
		return errorLiteral
	}
	return strconv.FormatInt(c.value, 10)
}

func (c Count) MarshalJSON() ([]byte, error) {
	if c.invalid {
		return json.Marshal(errorLiteral)
	}
	return json.Marshal(c.value)
}

func (c *Count) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte(`"`+errorLiteral+`"`)) {
		*c = ErrorCount
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("count must be a number or %q: %w", errorLiteral, err)
	}
	*c = Number(n)
	return nil
}

// Snapshot is one read of the backend status. A new poll replaces it, it is
// never modified.
type Snapshot struct {
	TotalBlocks      Count     `json:"totalBlocks"`
	TotalCredentials Count     `json:"totalCredentials"`
	IPFSConnected    bool      `json:"ipfsConnected"`
	LastBlockHash    string    `json:"lastBlockHash,omitempty"`
	ReceivedAt       time.Time `json:"receivedAt"`
}

// ErrorSnapshot is reported in place of a status that could not be fetched.
func ErrorSnapshot() Snapshot {
	return Snapshot{
		TotalBlocks:      ErrorCount,
		TotalCredentials: ErrorCount,
		IPFSConnected:    false,
	}
}

func (s Snapshot) IsError() bool {
	return s.TotalBlocks.IsError() || s.TotalCredentials.IsError()
}
