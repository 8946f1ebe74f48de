package main

import (
	"fmt"
	"strings"
	"time"
)

// InboundPost is a social-media post as fetched from the feed source.
// Immutable once received; ID is the upstream post identifier.
type InboundPost struct {
	ID        string
	Author    string // handle, with or without leading "@"
	Text      string
	CreatedAt time.Time
}

// Permalink returns the public URL for the post.
func (p InboundPost) Permalink() string {
	handle := strings.TrimPrefix(strings.TrimSpace(p.Author), "@")
	if handle == "" {
		handle = "i"
	}
	return fmt.Sprintf("https://twitter.com/%s/status/%s", handle, p.ID)
}

// RedactionSpan records one masked region of the original text, for audit.
type RedactionSpan struct {
	Start   int    // byte offset in the original text
	End     int    // byte offset one past the match
	Pattern string // "card_number", "account_number", "iban", "cvv"
}

type RedactionResult struct {
	Text  string
	Spans []RedactionSpan
}

// ClassificationResult is the adapter's decision for one post.
type ClassificationResult struct {
	Label      string
	Confidence float64
	IsIssue    bool
	Queue      string // "" when non-issue or label unmapped
}

type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Ticket is one immutable ledger row, created at most once per post ID.
type Ticket struct {
	TicketID      string
	SourcePostID  string
	Permalink     string
	AuthorHandle  string
	CreatedAt     time.Time
	IssueFlag     bool
	Label         string
	Queue         string
	Severity      Severity
	Confidence    float64
	Language      string
	RedactedText  string
	SourceChannel string
}

type OutcomeStatus string

const (
	OutcomeTicketCreated    OutcomeStatus = "ticket_created"
	OutcomeSkippedNonIssue  OutcomeStatus = "skipped_non_issue"
	OutcomeSkippedDuplicate OutcomeStatus = "skipped_duplicate"
	OutcomeFailed           OutcomeStatus = "failed"
)

// Outcome is the per-post result of a pipeline run. Ticket is set only for
// ticket_created, Err only for failed; Label and Confidence are populated
// whenever classification completed.
type Outcome struct {
	PostID     string
	Status     OutcomeStatus
	Ticket     *Ticket
	Label      string
	Confidence float64
	Err        error
}
