package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := Run{RunID: "run-1", StartedAt: base, FinishedAt: base.Add(time.Minute), State: "success", Queued: 4, EstimatedCost: 0.25}
	newer := Run{RunID: "run-2", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + 2*time.Second), State: "noop", InputTokens: 1200}
	for _, run := range []Run{older, newer} {
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record(%s): %v", run.RunID, err)
		}
	}

	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "run-2" || runs[1].RunID != "run-1" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if runs[0].InputTokens != 1200 || runs[0].Duration() != 2*time.Second {
		t.Fatalf("newer run = %+v", runs[0])
	}
	if !runs[1].StartedAt.Equal(base) || runs[1].Queued != 4 {
		t.Fatalf("older run = %+v", runs[1])
	}

	limited, err := store.List(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited list = %v, %v", limited, err)
	}

	count, cost, err := store.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if count != 2 || cost != 0.25 {
		t.Fatalf("totals = %d, %v", count, cost)
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	store := openTestStore(t)
	if err := store.Record(context.Background(), Run{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Record(ctx, Run{RunID: "r", StartedAt: time.Now(), FinishedAt: time.Now(), State: "success"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = store.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.List(ctx, 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs = %v, %v", runs, err)
	}
}
