package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
)

// HTTPSummarizer calls an external text-generation service to phrase the
// risk explanation. It is strictly best-effort; callers bound it with a
// timeout and fall back to the template on any failure.
type HTTPSummarizer struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSummarizer creates a summarizer client for the given endpoint.
func NewHTTPSummarizer(endpoint, apiKey string) *HTTPSummarizer {
	return &HTTPSummarizer{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type summarizeRequest struct {
	Signals   []risk.SignalResult `json:"signals"`
	RiskLevel risk.RiskLevel      `json:"risk_level"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// Summarize posts the signals to the text-generation service and returns
// its one-paragraph summary.
func (s *HTTPSummarizer) Summarize(ctx context.Context, signals []risk.SignalResult, level risk.RiskLevel) (string, error) {
	payload, err := json.Marshal(summarizeRequest{Signals: signals, RiskLevel: level})
	if err != nil {
		return "", fmt.Errorf("encoding summarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building summarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarize call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summarize call: status %d", resp.StatusCode)
	}

	var body summarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding summarize response: %w", err)
	}
	return body.Summary, nil
}
