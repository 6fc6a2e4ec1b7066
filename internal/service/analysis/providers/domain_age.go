package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
)

// Domain age score bands. Freshly registered domains are the ones
// typosquatters actually use.
const (
	domainAgeScoreNew    = 100 // registered less than a month ago
	domainAgeScoreRecent = 60  // registered less than six months ago
)

// DomainAgeProvider scores a domain by how recently it was registered.
type DomainAgeProvider struct {
	lookup RegistrationLookup
	now    func() time.Time
}

// NewDomainAgeProvider creates a domain-age provider over the given
// registration lookup.
func NewDomainAgeProvider(lookup RegistrationLookup) *DomainAgeProvider {
	return &DomainAgeProvider{
		lookup: lookup,
		now:    time.Now,
	}
}

// Name returns the fixed signal name.
func (p *DomainAgeProvider) Name() risk.SignalName {
	return risk.SignalDomainAge
}

// Evaluate fetches the registration date and maps the age into score
// bands. An unresolvable registration date is an error, not a zero score;
// the fallback policy decides its contribution.
func (p *DomainAgeProvider) Evaluate(ctx context.Context, target values.NormalizedURL) (risk.SignalResult, error) {
	domain := target.RegistrableDomain()

	registered, err := p.lookup.RegistrationDate(ctx, domain)
	if err != nil {
		return risk.SignalResult{}, fmt.Errorf("registration date for %s: %w", domain, err)
	}
	if registered.IsZero() {
		return risk.SignalResult{}, fmt.Errorf("no registration date resolvable for %s", domain)
	}

	now := p.now()
	var (
		score float64
		desc  string
	)
	switch {
	case registered.After(now.AddDate(0, -1, 0)):
		score = domainAgeScoreNew
		desc = fmt.Sprintf("Domain '%s' was registered less than a month ago (%s)", domain, registered.Format("2006-01-02"))
	case registered.After(now.AddDate(0, -6, 0)):
		score = domainAgeScoreRecent
		desc = fmt.Sprintf("Domain '%s' was registered less than six months ago (%s)", domain, registered.Format("2006-01-02"))
	default:
		score = 0
		desc = fmt.Sprintf("Domain '%s' has an established registration history (since %s)", domain, registered.Format("2006-01-02"))
	}

	return risk.SignalResult{
		Name:        risk.SignalDomainAge,
		Score:       score,
		Description: desc,
		Status:      risk.StatusOK,
	}, nil
}
