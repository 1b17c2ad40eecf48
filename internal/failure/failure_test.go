package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("Save: %w", Validation("Merchant is required"))

	if !errors.Is(err, ErrValidation) {
		t.Error("Expected wrapped validation error to match ErrValidation")
	}
	if errors.Is(err, ErrStatus) {
		t.Error("Validation error should not match ErrStatus")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transport(cause)

	if !errors.Is(err, cause) {
		t.Error("Expected transport error to unwrap to its cause")
	}
	if !errors.Is(err, ErrTransport) {
		t.Error("Expected transport error to match ErrTransport")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"status with message", Status(400, "Receipt not found"), "Receipt not found"},
		{"status without message", Status(500, ""), "fallback"},
		{"validation", Validation("Invalid ids"), "Invalid ids"},
		{"transport", Transport(errors.New("dial tcp")), "fallback"},
		{"plain error", errors.New("boom"), "fallback"},
		{"wrapped status", fmt.Errorf("x: %w", Status(422, "Bad total")), "Bad total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, "fallback"); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageFromBody(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"Parse failed"}`, "Parse failed"},
		{`{"error":"Unauthorized"}`, "Unauthorized"},
		{`{"message":"", "error":"Fallback used"}`, "Fallback used"},
		{`{"message":42}`, ""},
		{`not json`, ""},
		{`[]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			if got := MessageFromBody([]byte(tt.body)); got != tt.want {
				t.Errorf("MessageFromBody(%s) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
