package providers

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
)

// Transport security scores
const (
	transportScoreUnreachable = 100 // no secure transport at all
	transportScoreUntrusted   = 40  // TLS up, certificate not trustworthy
	transportScoreTrusted     = 0
)

// TransportProvider scores the transport-security posture of the target
// host.
type TransportProvider struct {
	prober Prober
}

// NewTransportProvider creates a transport-security provider over the
// given prober.
func NewTransportProvider(prober Prober) *TransportProvider {
	return &TransportProvider{prober: prober}
}

// Name returns the fixed signal name.
func (p *TransportProvider) Name() risk.SignalName {
	return risk.SignalTransportSecurity
}

// Evaluate probes the target host and maps its TLS posture to a score.
func (p *TransportProvider) Evaluate(ctx context.Context, target values.NormalizedURL) (risk.SignalResult, error) {
	host := target.Hostname()

	posture, err := p.prober.Probe(ctx, host)
	if err != nil {
		return risk.SignalResult{}, fmt.Errorf("probing %s: %w", host, err)
	}

	var (
		score float64
		desc  string
	)
	switch posture {
	case PostureUnreachable:
		score = transportScoreUnreachable
		desc = fmt.Sprintf("Host '%s' is not reachable over secure transport", host)
	case PostureUntrusted:
		score = transportScoreUntrusted
		desc = fmt.Sprintf("Host '%s' presents a self-signed or untrusted certificate", host)
	default:
		score = transportScoreTrusted
		desc = fmt.Sprintf("Host '%s' presents a valid certificate from a trusted issuer", host)
	}

	return risk.SignalResult{
		Name:        risk.SignalTransportSecurity,
		Score:       score,
		Description: desc,
		Status:      risk.StatusOK,
	}, nil
}

// TLSProber performs a real TLS handshake against port 443. It implements
// Prober.
type TLSProber struct {
	dialer *tls.Dialer
}

// NewTLSProber creates a prober that dials hosts on the standard HTTPS
// port.
func NewTLSProber() *TLSProber {
	return &TLSProber{
		dialer: &tls.Dialer{
			NetDialer: &net.Dialer{},
			Config:    &tls.Config{},
		},
	}
}

// Probe dials host:443 and classifies the outcome. Certificate
// verification failures are an untrusted posture; anything else that
// prevents the handshake is unreachable.
func (p *TLSProber) Probe(ctx context.Context, host string) (TLSPosture, error) {
	conn, err := p.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "443"))
	if err == nil {
		conn.Close()
		return PostureTrusted, nil
	}

	if isCertificateError(err) {
		return PostureUntrusted, nil
	}

	// Distinguish "host said no TLS" from "we gave up". A deadline hit is
	// the caller's timeout, not a statement about the host.
	if ctx.Err() != nil {
		return PostureUnreachable, ctx.Err()
	}

	return PostureUnreachable, nil
}

func isCertificateError(err error) bool {
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidCert x509.CertificateInvalidError
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) || errors.As(err, &invalidCert) {
		return true
	}
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	// Some platforms only surface the verification failure as text.
	return strings.Contains(err.Error(), "certificate")
}
