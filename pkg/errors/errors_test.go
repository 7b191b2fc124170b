package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedEdge, "bad edge: %s", "A->A")

	if err.Code != ErrCodeMalformedEdge {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMalformedEdge)
	}

	if err.Message != "bad edge: A->A" {
		t.Errorf("Message = %v, want %v", err.Message, "bad edge: A->A")
	}

	expected := "MALFORMED_EDGE: bad edge: A->A"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInvalidConfig, cause, "failed to load")

	if err.Code != ErrCodeInvalidConfig {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidConfig)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeCyclicGraph, "test"),
			code:     ErrCodeCyclicGraph,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeCyclicGraph, "test"),
			code:     ErrCodeMalformedEdge,
			expected: false,
		},
		{
			name:     "wrapped by fmt",
			err:      fmt.Errorf("order: %w", New(ErrCodeCyclicGraph, "inner")),
			code:     ErrCodeCyclicGraph,
			expected: true,
		},
		{
			name:     "outer code wins",
			err:      Wrap(ErrCodeInvalidInput, New(ErrCodeMalformedEdge, "inner"), "outer"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeInvalidDuration, "test"), ErrCodeInvalidDuration},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLine(t *testing.T) {
	err := Wrap(ErrCodeMalformedEdge, &LineError{Line: 7, Text: "nonsense"}, "unrecognised constraint")

	if got := Line(err); got != 7 {
		t.Errorf("Line() = %d, want 7", got)
	}
	if got := Line(errors.New("plain")); got != 0 {
		t.Errorf("Line(plain) = %d, want 0", got)
	}
	want := `MALFORMED_EDGE: unrecognised constraint: line 7: "nonsense"`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}
