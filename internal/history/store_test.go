package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"meditate/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if err := store.BeginRun(ctx, history.Run{ID: "run-1", Selection: "ids 1-2", StartedAt: started}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.FinishRun(ctx, history.Run{ID: "run-1", FinishedAt: started.Add(time.Minute), Requested: 2, Succeeded: 1, Failed: 1}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	run, err := store.GetRun(ctx, "run-1")
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Requested != 2 || run.Succeeded != 1 || run.Failed != 1 || !run.StartedAt.Equal(started) {
		t.Fatalf("unexpected run %+v", run)
	}
	if missing, err := store.GetRun(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("expected nil for unknown run, got %v %v", missing, err)
	}
	if err := store.FinishRun(ctx, history.Run{ID: "ghost"}); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
	if err := store.BeginRun(ctx, history.Run{}); err == nil {
		t.Fatal("expected error for run without id")
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := store.BeginRun(ctx, history.Run{ID: "run-1", Selection: "ids 1-3", StartedAt: base}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	records := []history.Record{
		{RunID: "run-1", EntryID: 1, EntryName: "人參", Slug: "renshen", Status: history.StatusSucceeded,
			OutputPath: "/out/meditation_01_renshen.mp3", EstimatedSeconds: 240.5, MeasuredSeconds: 236.1,
			FadeOutcome: "full", Elapsed: 1500 * time.Millisecond, FinishedAt: base.Add(time.Second)},
		{RunID: "run-1", EntryID: 2, EntryName: "黃耆", Slug: "huangqi", Status: history.StatusFailed,
			ErrorKind: "synthesis", ErrorMessage: "voice unavailable", FinishedAt: base.Add(2 * time.Second)},
		{RunID: "run-1", EntryID: 1, EntryName: "人參", Slug: "renshen", Status: history.StatusSucceeded,
			OutputPath: "/out/meditation_01_renshen.mp3", FadeOutcome: "fade_in_only", FinishedAt: base.Add(3 * time.Second)},
	}
	for _, rec := range records {
		if _, err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].FadeOutcome != "fade_in_only" || recent[1].ErrorKind != "synthesis" {
		t.Fatalf("unexpected order %+v", recent)
	}
	if recent[1].OutputPath != "" || recent[1].ErrorMessage != "voice unavailable" {
		t.Fatalf("unexpected failure row %+v", recent[1])
	}

	all, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	first := all[len(all)-1]
	if first.Elapsed != 1500*time.Millisecond || first.MeasuredSeconds != 236.1 || first.EntryName != "人參" {
		t.Fatalf("round trip lost data: %+v", first)
	}

	last, err := store.LastSuccess(ctx)
	if err != nil {
		t.Fatalf("LastSuccess: %v", err)
	}
	if len(last) != 1 || last[1].FadeOutcome != "fade_in_only" {
		t.Fatalf("expected newest success for entry 1, got %+v", last)
	}
}

func TestRecordRequiresKnownRun(t *testing.T) {
	store := openStore(t)
	_, err := store.Record(context.Background(), history.Record{RunID: "missing", EntryID: 1, EntryName: "x", Slug: "x", Status: history.StatusFailed})
	if err == nil {
		t.Fatal("expected foreign key failure for unknown run")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}

	reopened, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Exec("UPDATE schema_version SET version = 1"); err != nil {
		t.Fatalf("restore version: %v", err)
	}
	store, err = history.Open(path)
	if err != nil {
		t.Fatalf("reopen after restore: %v", err)
	}
	_ = store.Close()
}
