package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"beatframe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "export", "ffmpeg", "encode failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"export", "ffmpeg", "encode failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToInternal(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrInternal) {
		t.Fatalf("expected internal marker, got %v", err)
	}
	if err.Error() != "internal error: unspecified failure" {
		t.Fatalf("unexpected fallback message %q", err.Error())
	}
}

func TestStageErrorFormatsParts(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "plan", "", "no images", errors.New("empty dir"))
	if got, want := err.Error(), "validation error: plan: no images: empty dir"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	stage, ok := services.StageOf(fmt.Errorf("session: %w", err))
	if !ok || stage != "plan" {
		t.Fatalf("unexpected stage %q ok=%v", stage, ok)
	}
	if _, ok := services.StageOf(errors.New("plain")); ok {
		t.Fatal("plain errors carry no stage")
	}
}

func TestHintSurvivesFurtherWrapping(t *testing.T) {
	err := fmt.Errorf("build session: %w", services.Wrap(services.ErrExternalTool, "analyze", "decode", "", nil))
	if hint := services.Hint(err); !strings.Contains(hint, "doctor") {
		t.Fatalf("unexpected hint %q", hint)
	}
	if hint := services.Hint(services.Wrap(services.ErrValidation, "plan", "", "", nil)); hint == "" {
		t.Fatal("expected hint for validation errors")
	}
	if hint := services.Hint(errors.New("plain")); hint != "" {
		t.Fatalf("expected no hint for unclassified error, got %q", hint)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session id on empty context")
	}
	ctx = services.WithSessionID(ctx, "abc")
	ctx = services.WithStage(ctx, "analyze")
	ctx = services.WithRequestID(ctx, "req-1")
	ctx = services.WithStage(ctx, "")

	if id, _ := services.SessionIDFromContext(ctx); id != "abc" {
		t.Fatalf("unexpected session id %q", id)
	}
	if stage, _ := services.StageFromContext(ctx); stage != "analyze" {
		t.Fatalf("empty stage must not override, got %q", stage)
	}
	if rid, _ := services.RequestIDFromContext(ctx); rid != "req-1" {
		t.Fatalf("unexpected request id %q", rid)
	}
}
