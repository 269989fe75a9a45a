package trackerbun

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-invoice/invoice"
)

func TestTracker_StartStatusList(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	runID, err := tracker.Start(ctx, invoice.RunRecord{
		Kind:   invoice.RunExport,
		Target: string(invoice.FormatContactCSV),
		Counts: invoice.RunCounts{Total: 5},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if runID == "" {
		t.Fatalf("expected run id")
	}

	got, err := tracker.Status(ctx, runID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Kind != invoice.RunExport {
		t.Fatalf("kind = %q", got.Kind)
	}
	if got.State != invoice.StateQueued {
		t.Fatalf("state = %q", got.State)
	}
	if got.Counts.Total != 5 {
		t.Fatalf("total = %d", got.Counts.Total)
	}

	list, err := tracker.List(ctx, invoice.RunFilter{Kind: invoice.RunExport})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 run, got %d", len(list))
	}

	empty, err := tracker.List(ctx, invoice.RunFilter{Kind: invoice.RunRender})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no render runs, got %d", len(empty))
	}
}

func TestTracker_StateTransitions(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	runID, err := tracker.Start(ctx, invoice.RunRecord{
		Kind:   invoice.RunRender,
		Target: "default_invoice",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := tracker.SetState(ctx, runID, invoice.StateRunning); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if err := tracker.Complete(ctx, runID, invoice.RunCounts{Processed: 3, Total: 3}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := tracker.Status(ctx, runID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.State != invoice.StateCompleted {
		t.Fatalf("state = %q", got.State)
	}
	if got.Counts.Processed != 3 {
		t.Fatalf("processed = %d", got.Counts.Processed)
	}
	if got.StartedAt.IsZero() || got.CompletedAt.IsZero() {
		t.Fatalf("timestamps missing: %+v", got)
	}
}

func TestTracker_FailRecordsCause(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	runID, err := tracker.Start(ctx, invoice.RunRecord{Kind: invoice.RunReminder})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := tracker.Fail(ctx, runID, errors.New("smtp unreachable")); err != nil {
		t.Fatalf("fail: %v", err)
	}

	got, err := tracker.Status(ctx, runID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.State != invoice.StateFailed {
		t.Fatalf("state = %q", got.State)
	}
	if got.Failure != "smtp unreachable" {
		t.Fatalf("failure = %q", got.Failure)
	}
}

func TestTracker_ArtifactAndDelete(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	runID, err := tracker.Start(ctx, invoice.RunRecord{Kind: invoice.RunExport})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := tracker.SetArtifact(ctx, runID, invoice.ArtifactRef{
		Key: "runs/" + runID + "/export-csv_flat_summary.csv",
		Meta: invoice.ArtifactMeta{
			Filename:    "export-csv_flat_summary.csv",
			ContentType: "text/csv; charset=utf-8",
		},
	}); err != nil {
		t.Fatalf("set artifact: %v", err)
	}

	got, err := tracker.Status(ctx, runID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Artifact.Key == "" {
		t.Fatalf("artifact key missing")
	}
	if got.Artifact.Meta.ContentType != "text/csv; charset=utf-8" {
		t.Fatalf("artifact meta = %+v", got.Artifact.Meta)
	}

	if err := tracker.Delete(ctx, runID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := tracker.Status(ctx, runID); err == nil {
		t.Fatalf("expected not found after delete")
	}
}

func TestTracker_UnknownRun(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	if err := tracker.SetState(ctx, "missing", invoice.StateRunning); err == nil {
		t.Fatal("expected not found")
	} else if invoice.KindFromError(err) != invoice.KindNotFound {
		t.Fatalf("kind = %v", invoice.KindFromError(err))
	}
}

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	tracker := NewTracker(db)
	if err := tracker.CreateSchema(context.Background()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return tracker
}
