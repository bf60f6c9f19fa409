package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// setupTestClient points a client at a fake Gemini endpoint that replies with text
func setupTestClient(t *testing.T, status int, text string) (*Client, func() generateRequest) {
	var (
		mu       sync.Mutex
		captured generateRequest
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		captured = req
		mu.Unlock()

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"role": "model", "parts": []map[string]string{{"text": text}}}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: "test-key", Model: "gemini-test", BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	require.NoError(t, err)
	return c, func() generateRequest {
		mu.Lock()
		defer mu.Unlock()
		return captured
	}
}

// TestDraftAnalysis_Accumulator tests the prompt lists every leg
func TestDraftAnalysis_Accumulator(t *testing.T) {
	c, captured := setupTestClient(t, http.StatusOK, "  Two in-form home sides.  ")

	text, err := c.DraftAnalysis(context.Background(), models.AnalysisRequest{
		Category: models.CategoryOdd2Plus,
		Legs: []models.Leg{
			{Teams: "Napoli vs Roma", League: "Serie A", Prediction: "Home win"},
			{Teams: "Porto vs Braga", League: "Primeira Liga", Prediction: "Over 1.5"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Two in-form home sides.", text)

	req := captured()
	require.Len(t, req.Contents, 1)
	prompt := req.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "2-match accumulator")
	assert.Contains(t, prompt, "Napoli vs Roma")
	assert.Contains(t, prompt, "Porto vs Braga")
}

// TestCheckResult_ParsesVerdict tests JSON verdict decoding and tip id stamping
func TestCheckResult_ParsesVerdict(t *testing.T) {
	c, captured := setupTestClient(t, http.StatusOK, "```json\n{\"status\":\"won\",\"score\":\"2-1\",\"confidence\":0.85,\"reason\":\"Home side won 2-1.\"}\n```")

	tip := &models.Tip{
		ID:          "tip-1",
		Category:    models.CategorySingle,
		Teams:       "Arsenal vs Chelsea",
		League:      "Premier League",
		Prediction:  "Home win",
		Odds:        decimal.RequireFromString("2.1"),
		KickoffTime: time.Date(2026, 5, 2, 17, 30, 0, 0, time.UTC),
		Status:      models.StatusPending,
	}

	s, err := c.CheckResult(context.Background(), tip)
	require.NoError(t, err)
	assert.Equal(t, "tip-1", s.TipID)
	assert.Equal(t, models.StatusWon, s.Status)
	assert.Equal(t, "2-1", s.Score)
	assert.InDelta(t, 0.85, s.Confidence, 1e-9)
	assert.False(t, s.CheckedAt.IsZero())

	req := captured()
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)
	assert.Contains(t, req.Contents[0].Parts[0].Text, "Arsenal vs Chelsea")
}

// TestGenerate_HTTPError tests that API failures surface as ErrAIUnavailable
func TestGenerate_HTTPError(t *testing.T) {
	c, _ := setupTestClient(t, http.StatusTooManyRequests, "")

	_, err := c.DraftAnalysis(context.Background(), models.AnalysisRequest{Teams: "A vs B"})
	assert.ErrorIs(t, err, models.ErrAIUnavailable)
}

// TestNew_RequiresAPIKey tests configuration validation
func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, zerolog.Nop())
	assert.ErrorIs(t, err, models.ErrAIUnavailable)
}

// TestParseSuggestion tests verdict normalization
func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		status     models.TipStatus
		confidence float64
		wantErr    bool
	}{
		{name: "plain json", input: `{"status":"LOST","confidence":0.6}`, status: models.StatusLost, confidence: 0.6},
		{name: "surrounding prose", input: `Here you go: {"status":"VOID","confidence":1} thanks`, status: models.StatusVoid, confidence: 1},
		{name: "unknown status", input: `{"status":"HALF_TIME","confidence":0.4}`, status: models.StatusPending, confidence: 0.4},
		{name: "percentage confidence", input: `{"status":"WON","confidence":90}`, status: models.StatusWon, confidence: 0.9},
		{name: "negative confidence", input: `{"status":"WON","confidence":-3}`, status: models.StatusWon, confidence: 0},
		{name: "not json", input: "I cannot tell", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSuggestion(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrAIUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, s.Status)
			assert.InDelta(t, tt.confidence, s.Confidence, 1e-9)
		})
	}
}
