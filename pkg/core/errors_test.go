package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestGeometryError_Is(t *testing.T) {
	err := fmt.Errorf("building surface: %w", InvalidGeometry("need at least %d keyframes, got %d", 2, 1))

	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("Expected errors.Is to match ErrInvalidGeometry, got %v", err)
	}
	var geomErr *GeometryError
	if !errors.As(err, &geomErr) {
		t.Fatalf("Expected errors.As to find *GeometryError")
	}
	if geomErr.Msg != "need at least 2 keyframes, got 1" {
		t.Errorf("Unexpected message %q", geomErr.Msg)
	}
}

func TestParseError_Message(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		contains []string
	}{
		{"with line", &ParseError{Line: 4, Msg: "expected 2 fields"}, []string{"line 4", "expected 2 fields"}},
		{"truncated", &ParseError{Msg: "unexpected end of input"}, []string{"unexpected end of input"}},
		{"wrapped", &ParseError{Line: 2, Msg: "bad number", Err: errors.New("boom")}, []string{"line 2", "bad number", "boom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Expected %q to contain %q", msg, want)
				}
			}
		})
	}
}

func TestFormatError_Message(t *testing.T) {
	var err error = &FormatError{Token: "HERMITE"}
	var formatErr *FormatError
	if !errors.As(err, &formatErr) || formatErr.Token != "HERMITE" {
		t.Fatalf("Expected FormatError with token HERMITE, got %v", err)
	}
	if !strings.Contains(err.Error(), "HERMITE") {
		t.Errorf("Expected message to name the token, got %q", err.Error())
	}
}
