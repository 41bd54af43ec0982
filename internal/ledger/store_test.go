package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Kanjirito/mokuro/internal/batch"
	"github.com/Kanjirito/mokuro/internal/ledger"
	"github.com/Kanjirito/mokuro/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	err := store.BeginRun(ctx, ledger.Run{
		ID:        "run-1",
		StartedAt: started,
		Total:     3,
		Model:     "kha-white/manga-ocr-base",
	})
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	run, err := store.RunByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunByID failed: %v", err)
	}
	if run == nil {
		t.Fatal("expected run to exist")
	}
	if run.Total != 3 || run.Model != "kha-white/manga-ocr-base" || run.OCRDisabled {
		t.Fatalf("unexpected run: %#v", run)
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("expected started_at %v, got %v", started, run.StartedAt)
	}
	if run.Finished() {
		t.Fatalf("run should not be finished yet: %#v", run)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	testsupport.BeginRun(t, store, ledger.Run{ID: "run-1"})
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenLedger(t, cfg)
	run, err := reopened.RunByID(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("RunByID after reopen failed: %v", err)
	}
	if run == nil {
		t.Fatal("expected run to survive reopen")
	}
}

func TestBeginRunRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if err := store.BeginRun(context.Background(), ledger.Run{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestRecordVolumeRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	testsupport.BeginRun(t, store, ledger.Run{ID: "run-1", Total: 2})

	success := batch.VolumeResult{
		Path:      "/manga/Series One/Vol 01",
		Index:     1,
		Attempted: true,
		Pages:     180,
		Duration:  1500 * time.Millisecond,
	}
	if err := store.RecordVolume(ctx, "run-1", success); err != nil {
		t.Fatalf("RecordVolume failed: %v", err)
	}

	failure := batch.VolumeResult{
		Path:      "/manga/Series One/Vol 02",
		Index:     2,
		Attempted: true,
		Duration:  200 * time.Millisecond,
		Err:       errors.New("ocr server unreachable"),
	}
	if err := store.RecordVolume(ctx, "run-1", failure); err != nil {
		t.Fatalf("RecordVolume failed: %v", err)
	}

	volumes, err := store.VolumesForRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("VolumesForRun failed: %v", err)
	}
	if len(volumes) != 2 {
		t.Fatalf("expected 2 volumes, got %d", len(volumes))
	}

	first := volumes[0]
	if first.Status != ledger.StatusSucceeded || first.Title != "Vol 01" {
		t.Fatalf("unexpected first volume: %#v", first)
	}
	if first.Pages != 180 || first.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected first volume: %#v", first)
	}
	if first.ErrorMessage != "" {
		t.Fatalf("success should have no error message: %#v", first)
	}
	if first.ProcessedAt.IsZero() {
		t.Fatalf("expected processed_at to be set: %#v", first)
	}

	second := volumes[1]
	if second.Status != ledger.StatusFailed || second.ErrorMessage != "ocr server unreachable" {
		t.Fatalf("unexpected second volume: %#v", second)
	}
}

func TestFinishRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	testsupport.BeginRun(t, store, ledger.Run{ID: "run-1", Total: 3})

	if err := store.FinishRun(ctx, "run-1", 2); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	run, err := store.RunByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunByID failed: %v", err)
	}
	if !run.Finished() || run.Succeeded != 2 {
		t.Fatalf("unexpected run after finish: %#v", run)
	}

	if err := store.FinishRun(ctx, "missing", 0); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		testsupport.BeginRun(t, store, ledger.Run{
			ID:        fmt.Sprintf("run-%d", i+1),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	runs, err := store.RecentRuns(context.Background(), 2)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Fatalf("expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
}

func TestRunByIDUnknown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	run, err := store.RunByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("RunByID failed: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil for unknown run, got %#v", run)
	}
}

func TestRecordVolumeConcurrent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	ctx := context.Background()
	testsupport.BeginRun(t, store, ledger.Run{ID: "run-1", Total: 8})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.RecordVolume(ctx, "run-1", batch.VolumeResult{
				Path:      fmt.Sprintf("/manga/vol%d", i),
				Index:     i + 1,
				Attempted: true,
				Pages:     1,
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent RecordVolume failed: %v", err)
		}
	}

	volumes, err := store.VolumesForRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("VolumesForRun failed: %v", err)
	}
	if len(volumes) != 8 {
		t.Fatalf("expected 8 volumes, got %d", len(volumes))
	}
}
