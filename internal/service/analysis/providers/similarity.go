package providers

import (
	"context"
	"fmt"
	"math"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
	"github.com/davidleathers/fraudguard-backend/internal/registry"
)

// DefaultSimilarityFloor is the ratio below which a resemblance is not
// treated as a signal at all.
const DefaultSimilarityFloor = 0.6

// SimilarityProvider scores lexical similarity between the target's
// registrable domain and every known legitimate domain. A near-match that
// is not an exact match is the classic typosquat pattern.
type SimilarityProvider struct {
	registry *registry.Registry
	floor    float64
}

// NewSimilarityProvider creates a similarity provider over the given
// known-domain registry. A floor of 0 selects the default.
func NewSimilarityProvider(reg *registry.Registry, floor float64) *SimilarityProvider {
	if floor <= 0 {
		floor = DefaultSimilarityFloor
	}
	return &SimilarityProvider{registry: reg, floor: floor}
}

// Name returns the fixed signal name.
func (p *SimilarityProvider) Name() risk.SignalName {
	return risk.SignalSimilarity
}

// Evaluate compares the target domain against every registry entry and
// scores the best match. Exact matches score 0: the registered institution
// itself is not a risk.
func (p *SimilarityProvider) Evaluate(_ context.Context, target values.NormalizedURL) (risk.SignalResult, error) {
	domain := target.RegistrableDomain()

	if p.registry.Contains(domain) {
		return risk.SignalResult{
			Name:        risk.SignalSimilarity,
			Score:       0,
			Description: fmt.Sprintf("Domain '%s' is a registered legitimate institution", domain),
			Status:      risk.StatusOK,
		}, nil
	}

	var (
		bestRatio  float64
		bestDomain string
	)
	for _, entry := range p.registry.Entries() {
		ratio := sequenceRatio(domain, entry.Domain)
		// Ties break to the lexicographically first domain so the
		// description text is deterministic.
		if ratio > bestRatio || (ratio == bestRatio && bestDomain != "" && entry.Domain < bestDomain) {
			bestRatio = ratio
			bestDomain = entry.Domain
		}
	}

	if bestRatio <= p.floor {
		return risk.SignalResult{
			Name:        risk.SignalSimilarity,
			Score:       0,
			Description: fmt.Sprintf("Domain '%s' does not resemble any known institution domain", domain),
			Status:      risk.StatusOK,
		}, nil
	}

	return risk.SignalResult{
		Name:  risk.SignalSimilarity,
		Score: math.Round(bestRatio * 100),
		Description: fmt.Sprintf("Domain '%s' shows %.0f%% similarity to legitimate domain '%s'",
			domain, bestRatio*100, bestDomain),
		Status: risk.StatusOK,
	}, nil
}

// sequenceRatio returns a similarity ratio in [0,1] between two strings
// based on the length of their longest common subsequence:
// 2*LCS(a,b) / (len(a)+len(b)). Identical strings score 1.
func sequenceRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	ra, rb := []rune(a), []rune(b)

	// Single-row LCS table; len(rb)+1 cells.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}
