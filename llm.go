package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultHuggingFaceModel = "facebook/bart-large-mnli"
const huggingFaceBaseURL = "https://api-inference.huggingface.co"

// --- Anthropic backend ---

// anthropicClassifier scores candidate labels with a Claude model prompted
// to act as a zero-shot classifier.
type anthropicClassifier struct {
	client anthropic.Client
	model  string
}

func newAnthropicClassifier(apiKey, model string) *anthropicClassifier {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &anthropicClassifier{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

type anthropicRankedResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func (c *anthropicClassifier) Classify(ctx context.Context, text string, candidateLabels []string) (RankedLabels, error) {
	var labelLines strings.Builder
	for _, label := range candidateLabels {
		labelLines.WriteString("- " + label + "\n")
	}

	systemPrompt := fmt.Sprintf(`You classify a customer's social-media post about their bank into exactly one of these labels:
%s
Score every label between 0 and 1 by how well it fits the post. Scores need not sum to 1.

Respond with JSON only (no markdown):
{"labels": ["best label", "second", ...], "scores": [0.92, 0.31, ...]}
Order both arrays by descending score and include every label exactly once.`, labelLines.String())

	log.Printf("classify provider=anthropic model=%s labels=%d chars=%d", c.model, len(candidateLabels), len(text))

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		log.Printf("classify anthropic error: %v", err)
		return RankedLabels{}, fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return parseRankedResponse(block.Text, candidateLabels)
		}
	}
	return RankedLabels{}, fmt.Errorf("no text content in Anthropic response")
}

func parseRankedResponse(responseText string, candidateLabels []string) (RankedLabels, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var parsed anthropicRankedResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return RankedLabels{}, fmt.Errorf("parsing classifier response: %w (response: %s)", err, responseText)
	}
	if len(parsed.Labels) != len(candidateLabels) || len(parsed.Scores) != len(parsed.Labels) {
		return RankedLabels{}, fmt.Errorf("classifier returned %d labels / %d scores, want %d",
			len(parsed.Labels), len(parsed.Scores), len(candidateLabels))
	}

	return sortRankedDescending(RankedLabels{Labels: parsed.Labels, Scores: parsed.Scores}), nil
}

// sortRankedDescending re-sorts a model response by score. Models usually
// honor the requested ordering but it is not guaranteed.
func sortRankedDescending(r RankedLabels) RankedLabels {
	type pair struct {
		label string
		score float64
	}
	pairs := make([]pair, len(r.Labels))
	for i := range r.Labels {
		pairs[i] = pair{r.Labels[i], r.Scores[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	out := RankedLabels{
		Labels: make([]string, len(pairs)),
		Scores: make([]float64, len(pairs)),
	}
	for i, p := range pairs {
		out.Labels[i] = p.label
		out.Scores[i] = p.score
	}
	return out
}

// --- HuggingFace backend ---

// huggingFaceClassifier calls the HuggingFace Inference API zero-shot
// classification endpoint (the same bart-large-mnli setup the support team
// prototyped with).
type huggingFaceClassifier struct {
	apiKey  string
	model   string
	baseURL string // overridable in tests
}

func newHuggingFaceClassifier(apiKey, model string) *huggingFaceClassifier {
	if model == "" {
		model = defaultHuggingFaceModel
	}
	return &huggingFaceClassifier{apiKey: apiKey, model: model, baseURL: huggingFaceBaseURL}
}

type hfZeroShotRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters hfZeroShotParams `json:"parameters"`
}

type hfZeroShotParams struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type hfZeroShotResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
	Error    string    `json:"error"`
}

func (c *huggingFaceClassifier) Classify(ctx context.Context, text string, candidateLabels []string) (RankedLabels, error) {
	reqBody := hfZeroShotRequest{
		Inputs:     text,
		Parameters: hfZeroShotParams{CandidateLabels: candidateLabels},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return RankedLabels{}, fmt.Errorf("marshaling request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return RankedLabels{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log.Printf("classify provider=huggingface model=%s labels=%d chars=%d", c.model, len(candidateLabels), len(text))

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		log.Printf("classify huggingface error: %v", err)
		return RankedLabels{}, fmt.Errorf("HuggingFace API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return RankedLabels{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return RankedLabels{}, fmt.Errorf("HuggingFace API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed hfZeroShotResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return RankedLabels{}, fmt.Errorf("parsing HuggingFace response: %w", err)
	}
	if parsed.Error != "" {
		return RankedLabels{}, fmt.Errorf("HuggingFace API error: %s", parsed.Error)
	}
	if len(parsed.Labels) == 0 || len(parsed.Labels) != len(parsed.Scores) {
		return RankedLabels{}, fmt.Errorf("HuggingFace returned %d labels / %d scores", len(parsed.Labels), len(parsed.Scores))
	}

	return sortRankedDescending(RankedLabels{Labels: parsed.Labels, Scores: parsed.Scores}), nil
}
