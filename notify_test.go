package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slack-go/slack"
)

func TestNewSlackNotifierWithoutToken(t *testing.T) {
	if n := NewSlackNotifier(Config{}); n != nil {
		t.Fatal("expected nil notifier without a bot token")
	}
}

func TestPostSummaryNilNotifier(t *testing.T) {
	var n *SlackNotifier
	n.PostSummary("should be a no-op") // must not panic
}

func TestPostSummary(t *testing.T) {
	postCalls := 0
	var gotChannel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		if path == "chat.postMessage" {
			postCalls++
			_ = r.ParseForm()
			gotChannel = r.FormValue("channel")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C123", "ts": "1.0"})
	}))
	defer server.Close()

	n := &SlackNotifier{
		api:       slack.New("xoxb-test", slack.OptionAPIURL(server.URL+"/api/")),
		channelID: "C123",
	}
	n.PostSummary("Processed 3 posts: 1 tickets")

	if postCalls != 1 {
		t.Fatalf("expected 1 chat.postMessage call, got %d", postCalls)
	}
	if gotChannel != "C123" {
		t.Fatalf("expected channel C123, got %q", gotChannel)
	}
}
