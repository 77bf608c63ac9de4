package services_test

import (
	"errors"
	"strings"
	"testing"

	"animethreads/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "refresh", "comment_count", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"refresh", "comment_count", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		fatal       bool
		rateLimited bool
	}{
		{"nil", nil, false, false},
		{"validation", services.Wrap(services.ErrValidation, "snapshot", "parse", "bad shape", nil), true, false},
		{"missing input", services.Wrap(services.ErrNotFound, "snapshot", "open", "", nil), true, false},
		{"throttled", services.Wrap(services.ErrRateLimited, "reddit", "comments", "429", nil), false, true},
		{"transient", services.Wrap(services.ErrTransient, "reddit", "comments", "", errors.New("eof")), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.IsFatal(tt.err); got != tt.fatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.fatal)
			}
			if got := services.IsRateLimited(tt.err); got != tt.rateLimited {
				t.Errorf("IsRateLimited() = %v, want %v", got, tt.rateLimited)
			}
		})
	}
}
