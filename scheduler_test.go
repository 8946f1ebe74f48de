package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunBatchWithSampleFeed(t *testing.T) {
	ledger := newTestLedger(t)
	cfg := testPipelineConfig()
	cfg.MaxPostsPerFetch = 20
	clf, err := NewClassifier(Config{ClassifierProvider: "keyword"})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	pipeline := NewPipeline(ledger, clf, cfg)

	summary, err := RunBatch(context.Background(), cfg, NewSampleFeed(), pipeline, nil, ledger)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if summary.Total != 6 {
		t.Fatalf("expected 6 posts processed, got %d", summary.Total)
	}
	if summary.Created == 0 {
		t.Fatal("expected sample feed to produce tickets")
	}
	// The sample post with an embedded card number must land redacted.
	ticket, err := ledger.TicketBySourcePostID("1003")
	if err != nil {
		t.Fatalf("expected ticket for post 1003: %v", err)
	}
	if !strings.Contains(ticket.RedactedText, cardSentinel) {
		t.Fatalf("expected card sentinel in stored text: %q", ticket.RedactedText)
	}
}

func TestRunBatchWritesCSVExport(t *testing.T) {
	ledger := newTestLedger(t)
	cfg := testPipelineConfig()
	cfg.MaxPostsPerFetch = 20
	cfg.CSVExportPath = filepath.Join(t.TempDir(), "tickets.csv")
	clf, err := NewClassifier(Config{ClassifierProvider: "keyword"})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	pipeline := NewPipeline(ledger, clf, cfg)

	if _, err := RunBatch(context.Background(), cfg, NewSampleFeed(), pipeline, nil, ledger); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}

	data, err := os.ReadFile(cfg.CSVExportPath)
	if err != nil {
		t.Fatalf("expected csv export at %s: %v", cfg.CSVExportPath, err)
	}
	if !strings.HasPrefix(string(data), "ticket_id,") {
		t.Fatalf("unexpected csv header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}
}

type failingFeed struct{}

func (failingFeed) FetchRecent(ctx context.Context, maxCount int) ([]InboundPost, error) {
	return nil, fmt.Errorf("rate limited")
}

func TestRunBatchFetchFailure(t *testing.T) {
	ledger := newTestLedger(t)
	cfg := testPipelineConfig()
	pipeline := NewPipeline(ledger, stubClassifier{ranked: rankedWithTop("card issue", 0.8)}, cfg)

	if _, err := RunBatch(context.Background(), cfg, failingFeed{}, pipeline, nil, ledger); err == nil {
		t.Fatal("expected fetch failure to surface")
	}
	count, _ := ledger.Count()
	if count != 0 {
		t.Fatalf("failed fetch must not write tickets, got %d", count)
	}
}

func TestRunPollLoopInvalidSchedule(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.PollSchedule = "not a cron line"
	err := RunPollLoop(context.Background(), cfg, NewSampleFeed(), nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if !strings.Contains(err.Error(), "poll_schedule") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunPollLoopStopsOnCancel(t *testing.T) {
	ledger := newTestLedger(t)
	cfg := testPipelineConfig()
	cfg.PollSchedule = "0 0 1 1 *" // far-future tick; cancellation must win
	pipeline := NewPipeline(ledger, stubClassifier{ranked: rankedWithTop("card issue", 0.8)}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunPollLoop(ctx, cfg, NewSampleFeed(), pipeline, nil, ledger)
	}()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop did not stop on cancel")
	}
}
