package stepcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sleeperrecap/internal/services"
)

type sample struct {
	Week int    `json:"week"`
	Note string `json:"note"`
}

func TestDirLayout(t *testing.T) {
	got := Dir("/out", "1048", 2024, 3)
	want := filepath.Join("/out", "1048", "2024_week3")
	if got != want {
		t.Fatalf("Dir = %q, want %q", got, want)
	}
}

func TestJSONAndTextRoundTrip(t *testing.T) {
	w, err := Open(t.TempDir(), "42", 2024, 3, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	var got sample
	if ok, err := w.LoadJSON(FileTruth, &got); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := w.SaveJSON(FileTruth, sample{Week: 3, Note: "x"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ok, err := w.LoadJSON(FileTruth, &got); err != nil || !ok || got.Week != 3 {
		t.Fatalf("unexpected load: %+v ok=%v err=%v", got, ok, err)
	}

	if err := w.SaveText(FilePlan, "\n1. LEDE\n"); err != nil {
		t.Fatalf("save text: %v", err)
	}
	text, ok, err := w.LoadText(FilePlan)
	if err != nil || !ok || text != "1. LEDE" {
		t.Fatalf("unexpected text %q ok=%v err=%v", text, ok, err)
	}
}

func TestCorruptJSONIsMiss(t *testing.T) {
	w, err := Open(t.TempDir(), "42", 2024, 3, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	if err := os.WriteFile(w.Path(FileEvidence), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var got sample
	ok, err := w.LoadJSON(FileEvidence, &got)
	if err != nil || ok {
		t.Fatalf("expected corrupt file to be a miss, got ok=%v err=%v", ok, err)
	}
}

func TestInvalidateRemovesArtifacts(t *testing.T) {
	w, err := Open(t.TempDir(), "42", 2024, 3, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	for _, name := range []string{FileTruth, FileRecap, FileAuditInitial} {
		if err := w.SaveText(name, "x"); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Invalidate(); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	for _, name := range Files {
		if w.Has(name) {
			t.Fatalf("%s survived invalidate", name)
		}
	}
}

func TestOpenFailsWhileLocked(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir, "42", 2024, 3, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = Open(dir, "42", 2024, 3, nil)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	second, err := Open(dir, "42", 2024, 3, nil)
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	_ = second.Close()
}

func TestViewMissingWeek(t *testing.T) {
	_, err := View(t.TempDir(), "42", 2024, 9, nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
