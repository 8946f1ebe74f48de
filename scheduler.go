package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// RunBatch fetches recent posts, runs them through the pipeline and reports
// the outcome. Fetch failures are upstream: they abort this run only, and
// the next scheduled run retries from scratch.
func RunBatch(ctx context.Context, cfg Config, feed FeedSource, pipeline *Pipeline, notifier *SlackNotifier, ledger *Ledger) (BatchSummary, error) {
	posts, err := feed.FetchRecent(ctx, cfg.MaxPostsPerFetch)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("fetching posts: %w", err)
	}
	log.Printf("batch start posts=%d threshold=%.2f workers=%d", len(posts), cfg.ConfidenceThreshold, cfg.ClassifyWorkers)

	outcomes := pipeline.ProcessMany(ctx, posts)
	summary := Summarize(outcomes)
	log.Printf("batch done: %s", strings.ReplaceAll(FormatBatchSummary(summary), "\n", " | "))

	if cfg.CSVExportPath != "" && summary.Created > 0 {
		if err := exportLedgerCSV(ledger, cfg.CSVExportPath); err != nil {
			log.Printf("csv export error: %v", err)
		} else {
			log.Printf("csv export written path=%s", cfg.CSVExportPath)
		}
	}

	notifier.PostSummary(FormatBatchSummary(summary))
	return summary, nil
}

func exportLedgerCSV(ledger *Ledger, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ledger.ExportCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RunPollLoop runs batches on a cron schedule, forever. The schedule is a
// standard 5-field cron expression (minute hour day-of-month month
// day-of-week), e.g. "*/15 * * * *" for every 15 minutes.
func RunPollLoop(ctx context.Context, cfg Config, feed FeedSource, pipeline *Pipeline, notifier *SlackNotifier, ledger *Ledger) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(cfg.PollSchedule)
	if err != nil {
		return fmt.Errorf("invalid poll_schedule '%s': %w", cfg.PollSchedule, err)
	}
	log.Printf("poll loop scheduled (cron: %s)", cfg.PollSchedule)

	for {
		now := time.Now()
		next := sched.Next(now)
		wait := next.Sub(now)
		log.Printf("next poll at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Second))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if _, err := RunBatch(ctx, cfg, feed, pipeline, notifier, ledger); err != nil {
			log.Printf("poll run error: %v", err)
		}
	}
}
