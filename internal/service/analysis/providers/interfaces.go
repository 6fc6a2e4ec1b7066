package providers

import (
	"context"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
)

// SignalProvider computes one independent fraud signal for a URL.
//
// Implementations must be side-effect-free beyond their own network call
// and must honor ctx cancellation: the coordinator enforces a hard deadline
// and discards anything that arrives after it.
type SignalProvider interface {
	// Name returns the fixed signal name this provider produces.
	Name() risk.SignalName

	// Evaluate computes the signal for the target URL. A returned error
	// means the signal could not be computed; the coordinator substitutes
	// the signal's neutral fallback in that case.
	Evaluate(ctx context.Context, target values.NormalizedURL) (risk.SignalResult, error)
}

// RegistrationLookup resolves the registration date of a domain. The raw
// network call (WHOIS, RDAP) lives behind this contract.
type RegistrationLookup interface {
	RegistrationDate(ctx context.Context, domain string) (time.Time, error)
}

// TLSPosture summarizes the transport-security stance of a host.
type TLSPosture int

const (
	// PostureUnreachable means the host could not be reached over TLS at all
	PostureUnreachable TLSPosture = iota

	// PostureUntrusted means TLS works but the certificate is self-signed
	// or chains to an untrusted issuer
	PostureUntrusted

	// PostureTrusted means a valid certificate from a trusted issuer
	PostureTrusted
)

// Prober checks the transport-security posture of a host. The raw TLS
// handshake lives behind this contract.
type Prober interface {
	Probe(ctx context.Context, host string) (TLSPosture, error)
}

// PageFetcher optionally retrieves page text for keyword scanning. The
// returned text is treated as an opaque blob.
type PageFetcher interface {
	FetchText(ctx context.Context, target values.NormalizedURL) (string, error)
}
