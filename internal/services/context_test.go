package services

import (
	"context"
	"testing"
)

func TestContextHelpersRoundTrip(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithStage(ctx, "archive")
	ctx = WithSeason(ctx, "2025_4_fall")

	if id, ok := RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id %q (ok=%v)", id, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "archive" {
		t.Fatalf("unexpected stage %q (ok=%v)", stage, ok)
	}
	if key, ok := SeasonFromContext(ctx); !ok || key != "2025_4_fall" {
		t.Fatalf("unexpected season %q (ok=%v)", key, ok)
	}
}

func TestContextHelpersIgnoreEmptyValues(t *testing.T) {
	base := context.Background()
	if ctx := WithStage(base, ""); ctx != base {
		t.Fatal("expected empty stage to leave context untouched")
	}
	if _, ok := RunIDFromContext(base); ok {
		t.Fatal("expected no run id on bare context")
	}
}
