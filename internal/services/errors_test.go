package services_test

import (
	"errors"
	"strings"
	"testing"

	"takeoutsync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "exiftool", "extract", "failed", base)
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
	for _, fragment := range []string{"exiftool", "extract", "failed"} {
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

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", services.Wrap(services.ErrTimeout, "photos", "search", "slow", nil), true},
		{"transient", services.Wrap(services.ErrTransient, "photos", "import", "busy", nil), true},
		{"validation", services.Wrap(services.ErrValidation, "manifest", "parse", "bad json", nil), false},
		{"plain", errors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Retryable(tt.err); got != tt.want {
				t.Fatalf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHintByMarker(t *testing.T) {
	err := services.Wrap(services.ErrExternalTool, "ffprobe", "inspect", "", nil)
	if hint := services.Hint(err); !strings.Contains(hint, "doctor") {
		t.Fatalf("unexpected hint %q", hint)
	}
	if hint := services.Hint(errors.New("other")); hint != "check logs for details" {
		t.Fatalf("unexpected default hint %q", hint)
	}
}
