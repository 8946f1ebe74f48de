package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := LoadConfig()
	configureExternalHTTP(cfg)

	ledger, err := OpenLedger(cfg.DBPath, cfg.TicketPrefix)
	if err != nil {
		log.Fatalf("Failed to open ticket ledger: %v", err)
	}
	defer ledger.Close()
	log.Printf("Ledger opened at %s", cfg.DBPath)

	classifier, err := NewClassifier(cfg)
	if err != nil {
		log.Fatalf("Failed to build classifier: %v", err)
	}
	log.Printf("Classifier provider=%s threshold=%.2f", cfg.ClassifierProvider, cfg.ConfidenceThreshold)

	var feed FeedSource
	if cfg.TwitterBearerToken != "" {
		feed = NewTwitterFeed(cfg)
	} else {
		log.Println("No twitter_bearer_token configured, using sample feed")
		feed = NewSampleFeed()
	}

	pipeline := NewPipeline(ledger, classifier, cfg)
	notifier := NewSlackNotifier(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runService(ctx, cfg, feed, pipeline, notifier, ledger); err != nil {
		log.Fatalf("Run error: %v", err)
	}
}

// runService runs the startup batch and, when a poll schedule is set, the
// poll loop. In poll mode a failed startup batch is logged and the loop
// still starts: a transient fetch error at boot must not kill a long-lived
// deployment when the same error mid-loop would just be retried next tick.
func runService(ctx context.Context, cfg Config, feed FeedSource, pipeline *Pipeline, notifier *SlackNotifier, ledger *Ledger) error {
	if _, err := RunBatch(ctx, cfg, feed, pipeline, notifier, ledger); err != nil {
		if cfg.PollSchedule == "" {
			return err
		}
		log.Printf("Batch run error: %v", err)
	}

	if cfg.PollSchedule == "" {
		return nil
	}
	if err := RunPollLoop(ctx, cfg, feed, pipeline, notifier, ledger); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
