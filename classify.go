package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// RankedLabels is the raw result of the external classification capability:
// candidate labels ordered by descending score.
type RankedLabels struct {
	Labels []string
	Scores []float64
}

// Classifier is the narrow interface over the external text-classification
// capability. Implementations must return one score per candidate label,
// ordered descending.
type Classifier interface {
	Classify(ctx context.Context, text string, candidateLabels []string) (RankedLabels, error)
}

// ErrClassificationUnavailable wraps any transport failure or malformed
// response from the classification capability. The caller decides whether
// to retry or skip; the adapter never defaults to non-issue, since that
// would silently suppress real tickets.
var ErrClassificationUnavailable = errors.New("classification unavailable")

// ClassifyText runs the classifier on redacted text (never raw text - raw
// identifiers must not leak to an external service) and applies the
// issue/threshold gate and department routing.
func ClassifyText(ctx context.Context, clf Classifier, redactedText string, threshold float64) (ClassificationResult, error) {
	ranked, err := clf.Classify(ctx, redactedText, CandidateLabels)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("%w: %v", ErrClassificationUnavailable, err)
	}
	if err := validateRanked(ranked); err != nil {
		return ClassificationResult{}, fmt.Errorf("%w: %v", ErrClassificationUnavailable, err)
	}

	label := ranked.Labels[0]
	score := ranked.Scores[0]
	issue := IsIssueLabel(label) && score >= threshold

	queue := ""
	if issue {
		queue = QueueForLabel(label)
	}

	return ClassificationResult{
		Label:      label,
		Confidence: score,
		IsIssue:    issue,
		Queue:      queue,
	}, nil
}

func validateRanked(r RankedLabels) error {
	if len(r.Labels) == 0 {
		return fmt.Errorf("empty label list")
	}
	if len(r.Labels) != len(r.Scores) {
		return fmt.Errorf("labels/scores length mismatch: %d vs %d", len(r.Labels), len(r.Scores))
	}
	for i, s := range r.Scores {
		if s < 0 || s > 1 {
			return fmt.Errorf("score out of range at %d: %f", i, s)
		}
		if i > 0 && s > r.Scores[i-1] {
			return fmt.Errorf("scores not in descending order at %d", i)
		}
	}
	return nil
}

// NewClassifier builds the configured classification backend.
func NewClassifier(cfg Config) (Classifier, error) {
	switch cfg.ClassifierProvider {
	case "anthropic":
		return newAnthropicClassifier(cfg.AnthropicAPIKey, cfg.ClassifierModel), nil
	case "huggingface":
		return newHuggingFaceClassifier(cfg.HuggingFaceAPIKey, cfg.ClassifierModel), nil
	case "keyword":
		return keywordClassifier{}, nil
	default:
		return nil, fmt.Errorf("unknown classifier_provider '%s'", cfg.ClassifierProvider)
	}
}

// --- Keyword backend ---

// keywordClassifier is a deterministic rule-based backend: no API key, no
// network. It keeps the pipeline runnable locally and makes unit tests
// independent of any model.
type keywordClassifier struct{}

var labelKeywords = map[string][]string{
	"card issue":              {"credit card", "debit card", "card declined", "card ate", "atm", "card blocked"},
	"account issue":           {"checking", "savings", "account", "balance", "deposit", "salary"},
	"loan issue":              {"mortgage", "loan", "refinance", "home loan", "auto loan", "emi"},
	"digital banking issue":   {"app", "online", "mobile", "website", "login", "error", "otp"},
	"fraud or security issue": {"suspicious", "fraud", "unauthorized", "didn't make", "scam", "stolen", "hacked"},
	"praise":                  {"thank", "thanks", "great", "love", "excellent", "amazing", "awesome"},
}

func (keywordClassifier) Classify(ctx context.Context, text string, candidateLabels []string) (RankedLabels, error) {
	if err := ctx.Err(); err != nil {
		return RankedLabels{}, err
	}
	lower := strings.ToLower(text)

	type scored struct {
		label string
		score float64
	}
	ranked := make([]scored, 0, len(candidateLabels))
	for _, label := range candidateLabels {
		hits := 0
		for _, kw := range labelKeywords[label] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		score := 0.10
		if hits > 0 {
			score = 0.60 + 0.10*float64(hits)
			if score > 0.95 {
				score = 0.95
			}
		} else if label == "general inquiry" {
			// Default bucket when nothing else matches.
			score = 0.50
		}
		ranked = append(ranked, scored{label: label, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := RankedLabels{
		Labels: make([]string, len(ranked)),
		Scores: make([]float64, len(ranked)),
	}
	for i, s := range ranked {
		out.Labels[i] = s.label
		out.Scores[i] = s.score
	}
	return out, nil
}
