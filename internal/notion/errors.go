package notion

import (
	"errors"
	"fmt"
)

var (
	ErrTransport = errors.New("transport failure")
	ErrDecode    = errors.New("decode failure")
)

// TransportError wraps a connection-level failure (dial, timeout, DNS).
// The underlying error is preserved for retry policy decisions by callers.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// APIError is a non-2xx response whose body carried the remote service's
// structured error shape. Status, code and message are surfaced verbatim.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// StatusError is a non-2xx response whose body could not be decoded as a
// structured error. BodyPreview holds a truncated copy for diagnostics.
type StatusError struct {
	StatusCode  int
	BodyPreview string
}

func (e *StatusError) Error() string {
	if e.BodyPreview == "" {
		return fmt.Sprintf("notion api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("notion api returned status %d: %s", e.StatusCode, e.BodyPreview)
}

// DecodeError is a 2xx body that failed to match the expected schema.
type DecodeError struct {
	Err        error
	RawPreview string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failure: %v (body: %s)", e.Err, e.RawPreview)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

const previewLimit = 256

func truncatePreview(body []byte) string {
	if len(body) <= previewLimit {
		return string(body)
	}
	return string(body[:previewLimit]) + "..."
}
