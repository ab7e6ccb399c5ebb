package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"PolicyScanner/internal/config"
	"PolicyScanner/internal/domain"
	"PolicyScanner/internal/ports"
)

const (
	maxPolicyChars   = 50000
	truncationMarker = "\n[Text truncated at 50,000 characters]"
)

const defaultSystemPrompt = `You are a privacy analyst, an expert in privacy policies and terms of service.

Analyze user rights, data collection, third-party sharing, retention, and consent mechanisms.

Provide your analysis as a JSON object with this exact structure:
{
  "score": <number 0-100>,
  "summary": "<plain-language summary of key points>",
  "red_flags": ["<concerning practice>", ...],
  "user_action_items": [
    {"text": "<actionable recommendation>", "url": "<optional link>", "priority": "<high|medium|low>"}
  ]
}

Scoring guidelines: 80-100 user-friendly, 50-79 moderate concerns, 0-49 significant concerns.
Return ONLY the JSON object, no additional text.`

// Client evaluates policy documents through an OpenAI-compatible
// chat-completions API.
type Client struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
	logger       *slog.Logger
}

var _ ports.Evaluator = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.LLMConfig, logger *slog.Logger) *Client {
	prompt := strings.TrimSpace(cfg.SystemPrompt)
	if prompt == "" {
		prompt = defaultSystemPrompt
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: prompt,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// Provider names the evaluator for health reporting and audit records.
func (c *Client) Provider() string {
	return "remote"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletion struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze sends the truncated text for scoring and decodes the reply.
// Transport failures, timeouts, 429 and 5xx map to ErrRemoteUnavailable;
// anything that fails schema validation maps to ErrMalformedResponse.
func (c *Client) Analyze(ctx context.Context, text, sourceURL string) (domain.AnalysisResult, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: llm client misconfigured", domain.ErrRemoteUnavailable)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: "Analyze this privacy policy:\n\n" + truncate(text)},
		},
		"temperature":     0.3,
		"max_tokens":      2000,
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("marshal llm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return domain.AnalysisResult{}, fmt.Errorf("%w: llm returned %s", domain.ErrRemoteUnavailable, resp.Status)
	case resp.StatusCode != http.StatusOK:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.AnalysisResult{}, fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion chatCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: decode completion: %v", domain.ErrMalformedResponse, err)
	}
	if len(completion.Choices) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("%w: completion has no choices", domain.ErrMalformedResponse)
	}

	result, err := parseAnalysis([]byte(completion.Choices[0].Message.Content), sourceURL)
	if err != nil {
		c.debug("llm reply rejected", "error", err)
		return domain.AnalysisResult{}, err
	}

	c.debug("llm analysis complete",
		"score", result.Score,
		"red_flags", len(result.RedFlags),
		"duration_ms", time.Since(started).Milliseconds())
	return result, nil
}

// wireAnalysis mirrors the reply schema with pointer fields so a missing
// required field is distinguishable from a zero value.
type wireAnalysis struct {
	Score       *int              `json:"score"`
	Summary     *string           `json:"summary"`
	RedFlags    *[]string         `json:"red_flags"`
	ActionItems *[]wireActionItem `json:"user_action_items"`
}

type wireActionItem struct {
	Text     string `json:"text"`
	URL      string `json:"url"`
	Priority string `json:"priority"`
}

// parseAnalysis decodes and validates the model's JSON reply, failing
// closed on any required-field mismatch.
func parseAnalysis(raw []byte, sourceURL string) (domain.AnalysisResult, error) {
	var wire wireAnalysis
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if wire.Score == nil || wire.Summary == nil || wire.RedFlags == nil || wire.ActionItems == nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: missing required fields", domain.ErrMalformedResponse)
	}

	items := make([]domain.ActionItem, 0, len(*wire.ActionItems))
	for _, item := range *wire.ActionItems {
		items = append(items, domain.ActionItem{
			Text:     item.Text,
			URL:      item.URL,
			Priority: domain.Priority(item.Priority),
		})
	}

	result := domain.AnalysisResult{
		Score:       *wire.Score,
		Summary:     *wire.Summary,
		RedFlags:    *wire.RedFlags,
		ActionItems: items,
		Timestamp:   time.Now().UTC(),
		SourceURL:   sourceURL,
	}
	if err := result.Validate(); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	return result, nil
}

// truncate caps the document at the evaluator's input limit, marking the
// cut so the model knows the text is partial. The limit counts characters,
// not bytes, so the cut never lands inside a multi-byte sequence.
func truncate(text string) string {
	if utf8.RuneCountInString(text) <= maxPolicyChars {
		return text
	}
	remaining := maxPolicyChars
	cut := len(text)
	for i := range text {
		if remaining == 0 {
			cut = i
			break
		}
		remaining--
	}
	return text[:cut] + truncationMarker
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
