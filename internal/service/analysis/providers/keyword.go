package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
)

// keywordScorePerMatch is the score contribution of each distinct matched
// pattern, capped at 100.
const keywordScorePerMatch = 20

// DefaultPhishingVocabulary is the fixed phishing keyword set scanned for
// in URLs and page text.
var DefaultPhishingVocabulary = []string{
	"secure-login",
	"verify-account",
	"update-info",
	"suspended-account",
	"urgent-action",
	"confirm-identity",
	"security-alert",
	"account-locked",
	"verify-now",
	"immediate-action",
}

// KeywordProvider scans the URL (and, when a fetcher is configured, the
// page text) for phishing vocabulary.
type KeywordProvider struct {
	vocabulary []string
	fetcher    PageFetcher
}

// NewKeywordProvider creates a keyword provider. A nil vocabulary selects
// the default phishing set; a nil fetcher limits scanning to the URL
// itself.
func NewKeywordProvider(vocabulary []string, fetcher PageFetcher) *KeywordProvider {
	if len(vocabulary) == 0 {
		vocabulary = DefaultPhishingVocabulary
	}
	return &KeywordProvider{
		vocabulary: vocabulary,
		fetcher:    fetcher,
	}
}

// Name returns the fixed signal name.
func (p *KeywordProvider) Name() risk.SignalName {
	return risk.SignalKeyword
}

// Evaluate counts distinct vocabulary matches in the URL and optional page
// text. The page fetch is best-effort: a fetch failure reduces the scan to
// the URL alone rather than failing the signal.
func (p *KeywordProvider) Evaluate(ctx context.Context, target values.NormalizedURL) (risk.SignalResult, error) {
	haystack := strings.ToLower(target.String())

	if p.fetcher != nil {
		if text, err := p.fetcher.FetchText(ctx, target); err == nil {
			haystack += "\n" + strings.ToLower(text)
		}
	}

	var matched []string
	for _, keyword := range p.vocabulary {
		if strings.Contains(haystack, keyword) {
			matched = append(matched, keyword)
		}
	}

	if len(matched) == 0 {
		return risk.SignalResult{
			Name:        risk.SignalKeyword,
			Score:       0,
			Description: "No suspicious keywords detected",
			Status:      risk.StatusOK,
		}, nil
	}

	score := float64(keywordScorePerMatch * len(matched))
	if score > 100 {
		score = 100
	}

	return risk.SignalResult{
		Name:        risk.SignalKeyword,
		Score:       score,
		Description: fmt.Sprintf("Found suspicious keywords: %s", strings.Join(matched, ", ")),
		Status:      risk.StatusOK,
	}, nil
}
