package errors

import (
	"strings"
	"testing"
)

func TestValidateTaskID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"single letter", "A", false},
		{"word", "compile-core", false},
		{"unicode", "étape", false},
		{"empty", "", true},
		{"space", "a b", true},
		{"tab", "a\tb", true},
		{"control", "a\x00", true},
		{"too long", strings.Repeat("x", 129), true},
		{"max length", strings.Repeat("x", 128), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTaskID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTaskID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeMalformedEdge) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeMalformedEdge)
			}
		})
	}
}

func TestValidateEdge(t *testing.T) {
	if err := ValidateEdge("A", "B"); err != nil {
		t.Errorf("ValidateEdge(A, B) = %v, want nil", err)
	}
	if err := ValidateEdge("A", "A"); !Is(err, ErrCodeMalformedEdge) {
		t.Errorf("ValidateEdge(A, A) = %v, want MALFORMED_EDGE", err)
	}
	if err := ValidateEdge("", "A"); !Is(err, ErrCodeMalformedEdge) {
		t.Errorf("ValidateEdge(\"\", A) = %v, want MALFORMED_EDGE", err)
	}
}

func TestValidateWorkers(t *testing.T) {
	for _, n := range []int{1, 2, 64, MaxWorkers} {
		if err := ValidateWorkers(n); err != nil {
			t.Errorf("ValidateWorkers(%d) = %v, want nil", n, err)
		}
	}
	for _, n := range []int{0, -1, MaxWorkers + 1, 1 << 40} {
		if err := ValidateWorkers(n); !Is(err, ErrCodeInvalidInput) {
			t.Errorf("ValidateWorkers(%d) = %v, want INVALID_INPUT", n, err)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative", "input.txt", false},
		{"absolute", "/tmp/steps.txt", false},
		{"empty", "", true},
		{"null byte", "a\x00b", true},
		{"padded", " input.txt", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePath(tt.path); (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
