// Package ai drafts tip analysis and proposes settlements using the Gemini
// generateContent API. Its output is advisory only.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"
)

// Config holds Gemini client configuration
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client implements service.Advisor against Gemini
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	now        func() time.Time
	logger     zerolog.Logger
}

// New creates a new Gemini client
func New(config Config, logger zerolog.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: api key not configured", models.ErrAIUnavailable)
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		apiKey:     config.APIKey,
		model:      config.Model,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		now:        time.Now,
		logger:     logger.With().Str("component", "gemini").Logger(),
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// DraftAnalysis writes a short betting rationale for a single or accumulator tip
func (c *Client) DraftAnalysis(ctx context.Context, req models.AnalysisRequest) (string, error) {
	text, err := c.generate(ctx, analysisPrompt(req), generationConfig{Temperature: 0.7})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// CheckResult asks whether the tip's match(es) have finished and how it settled
func (c *Client) CheckResult(ctx context.Context, tip *models.Tip) (*models.ResultSuggestion, error) {
	text, err := c.generate(ctx, resultPrompt(tip), generationConfig{
		Temperature:      0.1,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	suggestion, err := ParseSuggestion(text)
	if err != nil {
		return nil, err
	}
	suggestion.TipID = tip.ID
	suggestion.CheckedAt = c.now().UTC()
	return suggestion, nil
}

func (c *Client) generate(ctx context.Context, prompt string, cfg generationConfig) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: cfg,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: making request: %w", models.ErrAIUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: gemini API error: status=%d, body=%s", models.ErrAIUnavailable, resp.StatusCode, string(raw))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", models.ErrAIUnavailable, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%w: gemini error %d: %s", models.ErrAIUnavailable, out.Error.Code, out.Error.Message)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", models.ErrAIUnavailable)
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	c.logger.Debug().
		Str("model", c.model).
		Dur("took", time.Since(start)).
		Int("chars", sb.Len()).
		Msg("generation complete")

	return sb.String(), nil
}

type suggestionPayload struct {
	Status     string  `json:"status"`
	Score      string  `json:"score"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// ParseSuggestion decodes the model's JSON verdict. Markdown code fences
// are stripped; a status other than WON, LOST or VOID becomes PENDING.
func ParseSuggestion(text string) (*models.ResultSuggestion, error) {
	raw := stripFences(text)

	var p suggestionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: unparseable verdict %q: %w", models.ErrAIUnavailable, truncate(raw, 200), err)
	}

	st := models.TipStatus(strings.ToUpper(strings.TrimSpace(p.Status)))
	if !st.Terminal() {
		st = models.StatusPending
	}

	confidence := p.Confidence
	if confidence > 1 && confidence <= 100 {
		confidence /= 100
	}
	confidence = min(max(confidence, 0), 1)

	return &models.ResultSuggestion{
		Status:     st,
		Score:      strings.TrimSpace(p.Score),
		Confidence: confidence,
		Reason:     strings.TrimSpace(p.Reason),
	}, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
