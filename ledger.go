package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrDuplicatePost means a ticket already exists for the post ID. A
	// normal skip for callers, not a failure.
	ErrDuplicatePost = errors.New("post already ticketed")

	// ErrTicketIDCollision means a freshly generated ticket ID already
	// exists. With 32 bits of entropy this should never happen; it is
	// surfaced loudly rather than overwriting the existing ticket.
	ErrTicketIDCollision = errors.New("ticket id collision")

	// ErrLedgerWrite wraps I/O failures persisting a ticket. The post is
	// not marked processed, so the next run can retry it.
	ErrLedgerWrite = errors.New("ledger write failure")
)

// Ledger owns the append-only ticket store and the set of already-handled
// post identifiers. It is the sole authority on "already handled": the
// processed set is the tickets table itself, so duplicate suppression
// survives a process restart for free.
type Ledger struct {
	db     *sql.DB
	mu     sync.Mutex
	prefix string
}

// OpenLedger opens (or creates) the ticket ledger at path. prefix is the
// ticket ID prefix, e.g. "TKT".
func OpenLedger(path, prefix string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id        TEXT NOT NULL UNIQUE,
		source_post_id   TEXT NOT NULL UNIQUE,
		permalink        TEXT NOT NULL DEFAULT '',
		author_handle    TEXT NOT NULL DEFAULT '',
		created_at       DATETIME NOT NULL,
		issue_flag       INTEGER NOT NULL DEFAULT 1,
		model_label      TEXT NOT NULL DEFAULT '',
		department_queue TEXT NOT NULL DEFAULT '',
		severity         TEXT NOT NULL DEFAULT '',
		confidence       REAL NOT NULL DEFAULT 0,
		language         TEXT NOT NULL DEFAULT 'en',
		redacted_text    TEXT NOT NULL DEFAULT '',
		source_channel   TEXT NOT NULL DEFAULT 'twitter',
		redaction_spans  TEXT NOT NULL DEFAULT '',
		ingested_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_queue ON tickets(department_queue);
	CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	if prefix == "" {
		prefix = "TKT"
	}
	return &Ledger{db: db, prefix: prefix}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// IsProcessed reports whether a ticket already exists for the post ID.
// Safe to call concurrently with unrelated appends.
func (l *Ledger) IsProcessed(postID string) (bool, error) {
	var count int
	err := l.db.QueryRow("SELECT COUNT(*) FROM tickets WHERE source_post_id = ?", postID).Scan(&count)
	return count > 0, err
}

// Append creates and persists exactly one ticket for the post. The
// duplicate check and the insert run under one lock, so two concurrent
// workers can never both ticket the same post; the UNIQUE constraint on
// source_post_id backstops the invariant at the storage layer.
func (l *Ledger) Append(post InboundPost, cls ClassificationResult, severity Severity, redaction RedactionResult, language, sourceChannel string) (Ticket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	processed, err := l.IsProcessed(post.ID)
	if err != nil {
		return Ticket{}, fmt.Errorf("%w: checking processed: %v", ErrLedgerWrite, err)
	}
	if processed {
		return Ticket{}, ErrDuplicatePost
	}

	ticket := Ticket{
		TicketID:      newTicketID(l.prefix),
		SourcePostID:  post.ID,
		Permalink:     post.Permalink(),
		AuthorHandle:  post.Author,
		CreatedAt:     post.CreatedAt,
		IssueFlag:     cls.IsIssue,
		Label:         cls.Label,
		Queue:         cls.Queue,
		Severity:      severity,
		Confidence:    cls.Confidence,
		Language:      language,
		RedactedText:  redaction.Text,
		SourceChannel: sourceChannel,
	}

	_, err = l.db.Exec(
		`INSERT INTO tickets (ticket_id, source_post_id, permalink, author_handle, created_at,
		                      issue_flag, model_label, department_queue, severity, confidence,
		                      language, redacted_text, source_channel, redaction_spans)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ticket.TicketID, ticket.SourcePostID, ticket.Permalink, ticket.AuthorHandle, ticket.CreatedAt,
		ticket.IssueFlag, ticket.Label, ticket.Queue, string(ticket.Severity), ticket.Confidence,
		ticket.Language, ticket.RedactedText, ticket.SourceChannel, formatSpans(redaction.Spans),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			if strings.Contains(err.Error(), "tickets.ticket_id") {
				return Ticket{}, fmt.Errorf("%w: %s", ErrTicketIDCollision, ticket.TicketID)
			}
			return Ticket{}, ErrDuplicatePost
		}
		return Ticket{}, fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}

	return ticket, nil
}

// Count returns the number of tickets in the ledger.
func (l *Ledger) Count() (int, error) {
	var count int
	err := l.db.QueryRow("SELECT COUNT(*) FROM tickets").Scan(&count)
	return count, err
}

// TicketBySourcePostID loads the ticket created for a post, if any.
func (l *Ledger) TicketBySourcePostID(postID string) (Ticket, error) {
	return l.scanOne("SELECT " + ticketColumns + " FROM tickets WHERE source_post_id = ?", postID)
}

const ticketColumns = `ticket_id, source_post_id, permalink, author_handle, created_at,
	issue_flag, model_label, department_queue, severity, confidence,
	language, redacted_text, source_channel`

func (l *Ledger) scanOne(query string, args ...any) (Ticket, error) {
	var t Ticket
	var severity string
	err := l.db.QueryRow(query, args...).Scan(
		&t.TicketID, &t.SourcePostID, &t.Permalink, &t.AuthorHandle, &t.CreatedAt,
		&t.IssueFlag, &t.Label, &t.Queue, &severity, &t.Confidence,
		&t.Language, &t.RedactedText, &t.SourceChannel,
	)
	t.Severity = Severity(severity)
	return t, err
}

// Tickets returns all tickets in insertion order.
func (l *Ledger) Tickets() ([]Ticket, error) {
	rows, err := l.db.Query("SELECT " + ticketColumns + " FROM tickets ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		var severity string
		err := rows.Scan(
			&t.TicketID, &t.SourcePostID, &t.Permalink, &t.AuthorHandle, &t.CreatedAt,
			&t.IssueFlag, &t.Label, &t.Queue, &severity, &t.Confidence,
			&t.Language, &t.RedactedText, &t.SourceChannel,
		)
		if err != nil {
			return nil, err
		}
		t.Severity = Severity(severity)
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// csvHeader is the fixed export column order consumed by the downstream
// ticketing import.
var csvHeader = []string{
	"ticket_id", "tweet_id", "tweet_url", "handle", "created_at",
	"issue_flag", "model_label", "department_queue", "severity",
	"confidence", "language", "tweet_text_redacted", "source_channel",
}

// ExportCSV writes every ticket to w as CSV, one row per ticket, in
// insertion order. Confidence is rounded to 4 decimal places.
func (l *Ledger) ExportCSV(w io.Writer) error {
	tickets, err := l.Tickets()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tickets {
		row := []string{
			t.TicketID,
			t.SourcePostID,
			t.Permalink,
			t.AuthorHandle,
			t.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(t.IssueFlag),
			t.Label,
			t.Queue,
			string(t.Severity),
			strconv.FormatFloat(t.Confidence, 'f', 4, 64),
			t.Language,
			t.RedactedText,
			t.SourceChannel,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// newTicketID returns "<prefix>-<8 hex>" with 32 bits of entropy.
func newTicketID(prefix string) string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	return prefix + "-" + hex.EncodeToString(b[:])
}

// formatSpans renders redaction spans for the audit column, e.g.
// "card_number:23-42|cvv:58-61".
func formatSpans(spans []RedactionSpan) string {
	if len(spans) == 0 {
		return ""
	}
	parts := make([]string, len(spans))
	for i, s := range spans {
		parts[i] = fmt.Sprintf("%s:%d-%d", s.Pattern, s.Start, s.End)
	}
	return strings.Join(parts, "|")
}
