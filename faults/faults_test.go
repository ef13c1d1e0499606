package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesExistingClassification(t *testing.T) {
	inner := New(Decode, "payload truncated")
	outer := Wrap(Encoder, fmt.Errorf("stage boundary: %w", inner), "export failed")
	if outer.Kind != Decode {
		t.Fatalf("Kind = %v, want %v (the original classification)", outer.Kind, Decode)
	}
}

func TestWrapClassifiesPlainErrors(t *testing.T) {
	plain := errors.New("connection reset")
	f := Wrap(Fetch, plain, "slide %d failed", 3)
	if f.Kind != Fetch {
		t.Fatalf("Kind = %v, want %v", f.Kind, Fetch)
	}
	if f.Message != "slide 3 failed" {
		t.Fatalf("Message = %q", f.Message)
	}
	if !errors.Is(f, plain) {
		t.Fatal("wrapped error lost its cause")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(New(Busy, "session active")); got != Busy {
		t.Errorf("KindOf fault = %v", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf plain error = %v, want empty", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf nil = %v, want empty", got)
	}
}

func TestErrorString(t *testing.T) {
	f := New(Timeout, "gave up after %d polls", 60)
	if f.Error() != "timeout: gave up after 60 polls" {
		t.Fatalf("Error() = %q", f.Error())
	}
	wrapped := Wrap(Fetch, errors.New("boom"), "fetch failed")
	if wrapped.Error() != "fetch: fetch failed: boom" {
		t.Fatalf("Error() = %q", wrapped.Error())
	}
}
