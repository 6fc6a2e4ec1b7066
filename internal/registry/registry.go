package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KnownDomain is one entry in the static legitimate-domain reference set.
type KnownDomain struct {
	Domain          string `yaml:"domain"`
	InstitutionName string `yaml:"institution_name"`
}

// Registry holds the known legitimate bank and payment domains. It is built
// once at startup and never mutated afterwards, so concurrent readers need
// no locking.
type Registry struct {
	entries []KnownDomain
}

// Default returns a registry seeded with the built-in bank and payment
// domain list.
func Default() *Registry {
	return &Registry{entries: seedDomains}
}

// New builds a registry from an explicit entry list. Domains are
// lowercased; an empty list or an entry without a domain is an error.
func New(entries []KnownDomain) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("known-domain registry cannot be empty")
	}
	normalized := make([]KnownDomain, len(entries))
	for i, e := range entries {
		e.Domain = strings.ToLower(strings.TrimSpace(e.Domain))
		if e.Domain == "" {
			return nil, fmt.Errorf("known-domain entry %d has no domain", i)
		}
		normalized[i] = e
	}
	return &Registry{entries: normalized}, nil
}

// LoadFile reads a known-domain registry from a YAML file. The file is a
// list of {domain, institution_name} entries.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading known-domain file: %w", err)
	}

	var entries []KnownDomain
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing known-domain file %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("known-domain file %s contains no entries", path)
	}

	for i := range entries {
		entries[i].Domain = strings.ToLower(strings.TrimSpace(entries[i].Domain))
		if entries[i].Domain == "" {
			return nil, fmt.Errorf("known-domain file %s: entry %d has no domain", path, i)
		}
	}

	return &Registry{entries: entries}, nil
}

// Entries returns the full entry list in load order. Callers must treat the
// returned slice as read-only.
func (r *Registry) Entries() []KnownDomain {
	return r.entries
}

// Contains reports whether domain is an exact entry in the registry.
func (r *Registry) Contains(domain string) bool {
	for _, e := range r.entries {
		if e.Domain == domain {
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

var seedDomains = []KnownDomain{
	{Domain: "chase.com", InstitutionName: "Chase"},
	{Domain: "bankofamerica.com", InstitutionName: "Bank of America"},
	{Domain: "wellsfargo.com", InstitutionName: "Wells Fargo"},
	{Domain: "citibank.com", InstitutionName: "Citibank"},
	{Domain: "usbank.com", InstitutionName: "U.S. Bank"},
	{Domain: "pnc.com", InstitutionName: "PNC Bank"},
	{Domain: "capitalone.com", InstitutionName: "Capital One"},
	{Domain: "tdbank.com", InstitutionName: "TD Bank"},
	{Domain: "paypal.com", InstitutionName: "PayPal"},
	{Domain: "stripe.com", InstitutionName: "Stripe"},
	{Domain: "square.com", InstitutionName: "Square"},
	{Domain: "venmo.com", InstitutionName: "Venmo"},
	{Domain: "zelle.com", InstitutionName: "Zelle"},
}
