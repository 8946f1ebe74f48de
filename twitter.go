package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// FeedSource fetches recent inbound posts. The pipeline treats fetch
// failures as upstream: no internal retry, the scheduler just tries again
// on the next tick.
type FeedSource interface {
	FetchRecent(ctx context.Context, maxCount int) ([]InboundPost, error)
}

// --- Twitter API v2 backend ---

type twitterFeed struct {
	bearerToken string
	handle      string
	baseURL     string // overridable in tests
}

func NewTwitterFeed(cfg Config) FeedSource {
	return &twitterFeed{
		bearerToken: cfg.TwitterBearerToken,
		handle:      cfg.TargetHandle,
		baseURL:     "https://api.twitter.com",
	}
}

type twitterSearchResponse struct {
	Data     []twitterTweet  `json:"data"`
	Includes twitterIncludes `json:"includes"`
	Meta     twitterMeta     `json:"meta"`
}

type twitterTweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	AuthorID  string `json:"author_id"`
	CreatedAt string `json:"created_at"`
}

type twitterIncludes struct {
	Users []twitterUser `json:"users"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type twitterMeta struct {
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token"`
}

// FetchRecent pulls recent mentions of the target handle via the v2 recent
// search endpoint, paging until maxCount posts are collected or the results
// run out.
func (f *twitterFeed) FetchRecent(ctx context.Context, maxCount int) ([]InboundPost, error) {
	query := fmt.Sprintf("@%s -is:retweet", f.handle)
	log.Printf("twitter fetch query=%q max=%d", query, maxCount)

	var all []InboundPost
	nextToken := ""

	for len(all) < maxCount {
		pageSize := maxCount - len(all)
		// The endpoint accepts 10..100 results per page.
		if pageSize > 100 {
			pageSize = 100
		}
		if pageSize < 10 {
			pageSize = 10
		}

		params := url.Values{}
		params.Set("query", query)
		params.Set("max_results", fmt.Sprintf("%d", pageSize))
		params.Set("tweet.fields", "created_at,author_id")
		params.Set("expansions", "author_id")
		params.Set("user.fields", "username")
		if nextToken != "" {
			params.Set("next_token", nextToken)
		}

		apiURL := fmt.Sprintf("%s/2/tweets/search/recent?%s", f.baseURL, params.Encode())
		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+f.bearerToken)

		resp, err := externalHTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("Twitter API returned %d: %s", resp.StatusCode, string(body))
		}

		var result twitterSearchResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}

		usernameByID := make(map[string]string, len(result.Includes.Users))
		for _, u := range result.Includes.Users {
			usernameByID[u.ID] = u.Username
		}

		for _, tweet := range result.Data {
			if len(all) >= maxCount {
				break
			}
			createdAt, _ := time.Parse(time.RFC3339, tweet.CreatedAt)
			author := usernameByID[tweet.AuthorID]
			if author != "" {
				author = "@" + author
			}
			all = append(all, InboundPost{
				ID:        tweet.ID,
				Author:    author,
				Text:      tweet.Text,
				CreatedAt: createdAt,
			})
		}

		if result.Meta.NextToken == "" || len(result.Data) == 0 {
			break
		}
		nextToken = result.Meta.NextToken
	}

	log.Printf("twitter fetch done total=%d", len(all))
	return all, nil
}

// --- Sample backend ---

// sampleFeed returns a fixed batch of representative support posts. Used
// when no bearer token is configured, so the whole pipeline can run and be
// demoed without Twitter access.
type sampleFeed struct{}

func NewSampleFeed() FeedSource {
	return sampleFeed{}
}

func (sampleFeed) FetchRecent(ctx context.Context, maxCount int) ([]InboundPost, error) {
	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	posts := []InboundPost{
		{
			ID:        "1001",
			Author:    "@john_pgh",
			Text:      "My credit card was declined at the store but I know I have enough credit. This is embarrassing!",
			CreatedAt: base,
		},
		{
			ID:        "1002",
			Author:    "@sarah_pitt",
			Text:      "Can't access my checking account through the mobile app. Getting error messages.",
			CreatedAt: base.Add(45 * time.Minute),
		},
		{
			ID:        "1003",
			Author:    "@mike_steel",
			Text:      "I noticed a suspicious charge on my account for $500 that I didn't make. Need help immediately! Card 1234 5678 9012 3456.",
			CreatedAt: base.Add(90 * time.Minute),
		},
		{
			ID:        "1004",
			Author:    "@lisa_downtown",
			Text:      "What are the current mortgage rates? Looking to refinance my home.",
			CreatedAt: base.Add(3 * time.Hour),
		},
		{
			ID:        "1005",
			Author:    "@dave_tech",
			Text:      "Your ATM at Station Square ate my card! Please help, I need it back.",
			CreatedAt: base.Add(4 * time.Hour),
		},
		{
			ID:        "1006",
			Author:    "@emma_family",
			Text:      "Thank you for the excellent customer service today! Your team was amazing.",
			CreatedAt: base.Add(5 * time.Hour),
		},
	}
	if maxCount < len(posts) {
		posts = posts[:maxCount]
	}
	return posts, nil
}
