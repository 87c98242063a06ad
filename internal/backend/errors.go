package backend

import (
	"errors"
	"fmt"

	reasoncodes "github.com/udaycodespace/credify/pkg/reason_codes"
)

var (
	// ErrNetwork means the request could not be sent or no response was
	// received.
	ErrNetwork = errors.New("network failure")
	// ErrMalformedResponse means a response arrived but its body was not the
	// expected JSON shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// RequestError describes a failed call to the backend. It unwraps to both
// its kind (ErrNetwork or ErrMalformedResponse) and the underlying cause.
type RequestError struct {
	Op         string
	URL        string
	StatusCode int
	Reason     reasoncodes.ReasonCode
	Kind       error
	Err        error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s %s: %v (%s)", e.Op, e.URL, e.Kind, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status=%d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func networkError(op, url string, reason reasoncodes.ReasonCode, err error) *RequestError {
	return &RequestError{Op: op, URL: url, Reason: reason, Kind: ErrNetwork, Err: err}
}

func malformedError(op, url string, status int, reason reasoncodes.ReasonCode, err error) *RequestError {
	return &RequestError{Op: op, URL: url, StatusCode: status, Reason: reason, Kind: ErrMalformedResponse, Err: err}
}

// IsNetwork reports whether err is a network failure.
func IsNetwork(err error) bool { return errors.Is(err, ErrNetwork) }

// IsMalformed reports whether err is a malformed response.
func IsMalformed(err error) bool { return errors.Is(err, ErrMalformedResponse) }
