package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Pipeline sequences redaction, classification, severity scoring and ledger
// append for inbound posts. The ledger is the only duplicate authority; the
// pipeline keeps no tracking state of its own.
type Pipeline struct {
	ledger          *Ledger
	classifier      Classifier
	threshold       float64
	classifyTimeout time.Duration
	workers         int
	language        string
	sourceChannel   string
}

func NewPipeline(ledger *Ledger, classifier Classifier, cfg Config) *Pipeline {
	return &Pipeline{
		ledger:          ledger,
		classifier:      classifier,
		threshold:       cfg.ConfidenceThreshold,
		classifyTimeout: time.Duration(cfg.ClassifyTimeoutSeconds) * time.Second,
		workers:         cfg.ClassifyWorkers,
		language:        cfg.LanguageCode,
		sourceChannel:   cfg.SourceChannel,
	}
}

// ProcessOne handles a single post end to end: duplicate check, redaction,
// classification at the configured threshold, issue gate, severity, append.
// A failed classification leaves the post unprocessed so a later run can
// retry it; a non-issue is not marked processed either, so a revised
// threshold can still promote it.
func (p *Pipeline) ProcessOne(ctx context.Context, post InboundPost) Outcome {
	processed, err := p.ledger.IsProcessed(post.ID)
	if err != nil {
		return Outcome{PostID: post.ID, Status: OutcomeFailed, Err: fmt.Errorf("%w: %v", ErrLedgerWrite, err)}
	}
	if processed {
		return Outcome{PostID: post.ID, Status: OutcomeSkippedDuplicate}
	}

	redaction := Redact(post.Text)
	cls, err := p.classify(ctx, redaction.Text)
	if err != nil {
		return Outcome{PostID: post.ID, Status: OutcomeFailed, Err: err}
	}

	return p.gateAndAppend(post, redaction, cls)
}

// classify runs the classifier on redacted text under the per-call timeout,
// so a stuck external call fails this post instead of stalling the batch.
func (p *Pipeline) classify(ctx context.Context, redactedText string) (ClassificationResult, error) {
	if p.classifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.classifyTimeout)
		defer cancel()
	}
	return ClassifyText(ctx, p.classifier, redactedText, p.threshold)
}

// gateAndAppend applies the issue gate and, for issues, appends a ticket.
// Append re-checks the duplicate atomically, closing the race between the
// upfront IsProcessed check and the write.
func (p *Pipeline) gateAndAppend(post InboundPost, redaction RedactionResult, cls ClassificationResult) Outcome {
	if !cls.IsIssue {
		return Outcome{
			PostID:     post.ID,
			Status:     OutcomeSkippedNonIssue,
			Label:      cls.Label,
			Confidence: cls.Confidence,
		}
	}

	severity := EstimateSeverity(cls.Label, post.Text)

	ticket, err := p.ledger.Append(post, cls, severity, redaction, p.language, p.sourceChannel)
	if errors.Is(err, ErrDuplicatePost) {
		return Outcome{PostID: post.ID, Status: OutcomeSkippedDuplicate, Label: cls.Label, Confidence: cls.Confidence}
	}
	if err != nil {
		return Outcome{PostID: post.ID, Status: OutcomeFailed, Label: cls.Label, Confidence: cls.Confidence, Err: err}
	}

	log.Printf("ticket created id=%s post=%s queue=%s severity=%s confidence=%.4f",
		ticket.TicketID, post.ID, ticket.Queue, ticket.Severity, ticket.Confidence)
	return Outcome{
		PostID:     post.ID,
		Status:     OutcomeTicketCreated,
		Ticket:     &ticket,
		Label:      cls.Label,
		Confidence: cls.Confidence,
	}
}

// ProcessMany handles a batch in input order, one outcome per post. A
// failing post never aborts the batch. With classify_workers > 1 the
// classification stage (the latency-dominant, stateless step) fans out
// concurrently; ledger appends still happen sequentially in input order so
// the audit ordering holds either way. Cancelling ctx stops between posts;
// every returned outcome is fully committed.
func (p *Pipeline) ProcessMany(ctx context.Context, posts []InboundPost) []Outcome {
	if p.workers > 1 {
		return p.processManyParallel(ctx, posts)
	}

	outcomes := make([]Outcome, 0, len(posts))
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			log.Printf("batch aborted after %d/%d posts: %v", len(outcomes), len(posts), err)
			break
		}
		outcomes = append(outcomes, p.ProcessOne(ctx, post))
	}
	return outcomes
}

type classifyStageResult struct {
	redaction RedactionResult
	cls       ClassificationResult
	dup       bool
	err       error
}

func (p *Pipeline) processManyParallel(ctx context.Context, posts []InboundPost) []Outcome {
	results := make([]classifyStageResult, len(posts))
	sem := make(chan struct{}, p.workers)

	var wg sync.WaitGroup
	for i, post := range posts {
		wg.Add(1)
		go func(idx int, post InboundPost) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			processed, err := p.ledger.IsProcessed(post.ID)
			if err != nil {
				results[idx] = classifyStageResult{err: fmt.Errorf("%w: %v", ErrLedgerWrite, err)}
				return
			}
			if processed {
				results[idx] = classifyStageResult{dup: true}
				return
			}

			redaction := Redact(post.Text)
			cls, err := p.classify(ctx, redaction.Text)
			results[idx] = classifyStageResult{redaction: redaction, cls: cls, err: err}
		}(i, post)
	}
	wg.Wait()

	outcomes := make([]Outcome, 0, len(posts))
	for i, post := range posts {
		if err := ctx.Err(); err != nil {
			log.Printf("batch aborted after %d/%d posts: %v", len(outcomes), len(posts), err)
			break
		}
		r := results[i]
		switch {
		case r.dup:
			outcomes = append(outcomes, Outcome{PostID: post.ID, Status: OutcomeSkippedDuplicate})
		case r.err != nil:
			outcomes = append(outcomes, Outcome{PostID: post.ID, Status: OutcomeFailed, Err: r.err})
		default:
			outcomes = append(outcomes, p.gateAndAppend(post, r.redaction, r.cls))
		}
	}
	return outcomes
}
