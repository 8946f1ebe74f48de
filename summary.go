package main

import (
	"fmt"
	"sort"
	"strings"
)

// BatchSummary tracks separate counters for each outcome, plus per-queue
// and per-severity ticket breakdowns for the run report.
type BatchSummary struct {
	Total      int
	Created    int
	NonIssue   int
	Duplicates int
	Failed     int
	ByQueue    map[string]int
	BySeverity map[Severity]int
	Errors     []string
}

// Summarize aggregates a batch's outcomes.
func Summarize(outcomes []Outcome) BatchSummary {
	s := BatchSummary{
		Total:      len(outcomes),
		ByQueue:    make(map[string]int),
		BySeverity: make(map[Severity]int),
	}
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeTicketCreated:
			s.Created++
			if o.Ticket != nil {
				s.ByQueue[o.Ticket.Queue]++
				s.BySeverity[o.Ticket.Severity]++
			}
		case OutcomeSkippedNonIssue:
			s.NonIssue++
		case OutcomeSkippedDuplicate:
			s.Duplicates++
		case OutcomeFailed:
			s.Failed++
			if o.Err != nil {
				s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", o.PostID, o.Err))
			}
		}
	}
	return s
}

// FormatBatchSummary returns a human-readable summary of a batch run.
func FormatBatchSummary(s BatchSummary) string {
	if s.Total == 0 {
		return "No new posts to process."
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d tickets", s.Created))
	if s.NonIssue > 0 {
		parts = append(parts, fmt.Sprintf("%d non-issue", s.NonIssue))
	}
	if s.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicate", s.Duplicates))
	}
	if s.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", s.Failed))
	}

	msg := fmt.Sprintf("Processed %d posts: %s", s.Total, strings.Join(parts, ", "))

	if s.Created > 0 {
		msg += "\nQueues: " + formatCounts(s.ByQueue)
		msg += "\nSeverity: " + formatSeverityCounts(s.BySeverity)
	}
	if len(s.Errors) > 0 {
		msg += "\nErrors:\n" + strings.Join(s.Errors, "\n")
	}
	return msg
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}

func formatSeverityCounts(counts map[Severity]int) string {
	parts := make([]string, 0, 3)
	for _, sev := range []Severity{SeverityHigh, SeverityMedium, SeverityLow} {
		if counts[sev] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", sev, counts[sev]))
		}
	}
	return strings.Join(parts, " ")
}
