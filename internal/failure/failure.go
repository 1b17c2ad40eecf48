// Package failure classifies the errors that can surface while talking to the
// backend, the upload broker or object storage, and turns them into the short
// strings shown to the user.
package failure

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind is the category of a failure.
type Kind string

const (
	// KindTransport covers network failures where no response was received.
	KindTransport Kind = "transport"
	// KindStatus covers non-success HTTP statuses from the backend or storage.
	KindStatus Kind = "status"
	// KindShape covers responses that could not be read into the expected shape.
	KindShape Kind = "shape"
	// KindValidation covers input rejected before any request is made.
	KindValidation Kind = "validation"
)

// Sentinel errors matched by errors.Is against an *Error of the same kind.
var (
	ErrTransport  = errors.New("transport failure")
	ErrStatus     = errors.New("unexpected status")
	ErrShape      = errors.New("malformed response")
	ErrValidation = errors.New("validation failed")
)

// Error is a classified failure. Message, when set, is safe to show to the user verbatim.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrStatus:
		return e.Kind == KindStatus
	case ErrShape:
		return e.Kind == KindShape
	case ErrValidation:
		return e.Kind == KindValidation
	}
	return false
}

// Transport wraps a network error.
func Transport(cause error) *Error {
	return &Error{Kind: KindTransport, Cause: cause}
}

// Status builds a status failure, using message as the user-facing text if non-empty.
func Status(code int, message string) *Error {
	return &Error{Kind: KindStatus, Status: code, Message: message}
}

// Shape wraps a decoding error or a missing required field.
func Shape(message string, cause error) *Error {
	return &Error{Kind: KindShape, Message: message, Cause: cause}
}

// Validation builds a client-side validation failure.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// UserMessage returns the user-facing message carried by err, or fallback when
// err carries none. Validation messages are always shown; status messages are
// shown when the server supplied one.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		switch fe.Kind {
		case KindValidation, KindStatus, KindShape:
			return fe.Message
		}
	}
	return fallback
}

// MessageFromBody extracts a "message" or "error" string from a JSON error body.
func MessageFromBody(body []byte) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
