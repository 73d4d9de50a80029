package sleeper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sleeperrecap/internal/sleeper"
)

func TestDraftPicksAreOrdered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/draft/d1/picks" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"pick_no":2,"round":1,"draft_slot":2,"player_id":"6794","picked_by":"u2","roster_id":2,"timestamp":1725148800000},
			{"pick_no":1,"round":1,"draft_slot":1,"player_id":"4046","picked_by":"u1","roster_id":1,"is_keeper":true}
		]`))
	}))
	t.Cleanup(server.Close)

	picks, err := sleeper.New(server.URL, sleeper.WithRetryPolicy(noSleepPolicy())).DraftPicks(context.Background(), "d1")
	if err != nil {
		t.Fatalf("DraftPicks returned error: %v", err)
	}
	if len(picks) != 2 || picks[0].PickNo != 1 || picks[1].PlayerID != "6794" {
		t.Fatalf("unexpected picks: %#v", picks)
	}
	if picks[0].IsKeeper == nil || !*picks[0].IsKeeper {
		t.Fatalf("expected keeper flag on first pick")
	}
	if !picks[0].PickedAt().IsZero() {
		t.Fatalf("missing timestamp should be zero, got %v", picks[0].PickedAt())
	}
	if got := picks[1].PickedAt().Format("2006-01-02T15:04:05Z07:00"); got != "2024-09-01T00:00:00Z" {
		t.Fatalf("PickedAt = %s", got)
	}
}

func TestDraftsNotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	drafts, err := sleeper.New(server.URL, sleeper.WithRetryPolicy(noSleepPolicy())).Drafts(context.Background(), "123")
	if err != nil {
		t.Fatalf("expected 404 to be treated as no drafts, got %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("expected no drafts, got %d", len(drafts))
	}
	if _, ok := sleeper.LatestDraft(drafts); ok {
		t.Fatal("expected no latest draft")
	}
}

func TestLatestDraftPrefersCompleted(t *testing.T) {
	drafts := []sleeper.Draft{
		{DraftID: "old", Status: sleeper.DraftStatusComplete, StartTime: 100},
		{DraftID: "mock", Status: "pre_draft", StartTime: 300},
		{DraftID: "new", Status: sleeper.DraftStatusComplete, StartTime: 200},
	}
	if got, ok := sleeper.LatestDraft(drafts); !ok || got.DraftID != "new" {
		t.Fatalf("LatestDraft = %q, %v; want new", got.DraftID, ok)
	}
	pending := []sleeper.Draft{
		{DraftID: "a", Status: "drafting", StartTime: 10},
		{DraftID: "b", Status: "pre_draft", StartTime: 20},
	}
	if got, _ := sleeper.LatestDraft(pending); got.DraftID != "b" {
		t.Fatalf("LatestDraft without completed drafts = %q, want b", got.DraftID)
	}
}
