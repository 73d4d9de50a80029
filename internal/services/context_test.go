package services_test

import (
	"context"
	"testing"

	"sleeperrecap/internal/services"
)

func TestContextHelpersRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithStep(ctx, "evidence")
	ctx = services.WithLeagueID(ctx, "123")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id %q (%v)", id, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "evidence" {
		t.Fatalf("unexpected step %q (%v)", step, ok)
	}
	if league, ok := services.LeagueIDFromContext(ctx); !ok || league != "123" {
		t.Fatalf("unexpected league %q (%v)", league, ok)
	}
}

func TestContextHelpersIgnoreEmpty(t *testing.T) {
	ctx := services.WithStep(context.Background(), "")
	if _, ok := services.StepFromContext(ctx); ok {
		t.Fatal("expected empty step to be ignored")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id")
	}
}
