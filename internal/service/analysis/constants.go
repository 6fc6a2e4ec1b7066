package analysis

import (
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
)

// Default per-signal weights. Policy values, not derived constants; the
// configuration surface may override them.
const (
	DefaultWeightSimilarity        = 0.35
	DefaultWeightDomainAge         = 0.20
	DefaultWeightTransportSecurity = 0.25
	DefaultWeightKeyword           = 0.20
)

// Classification boundaries. Boundary values belong to the lower band:
// 30 is Safe, 70 is Suspicious.
const (
	DefaultSafeMaxScore       = 30
	DefaultSuspiciousMaxScore = 70
)

// Timeouts
const (
	// DefaultProviderTimeout is the hard per-provider deadline
	DefaultProviderTimeout = 3 * time.Second

	// DefaultSummarizerTimeout bounds the best-effort explanation call
	DefaultSummarizerTimeout = 2 * time.Second
)

// DefaultWeights returns the default weight table keyed by signal name.
func DefaultWeights() map[risk.SignalName]float64 {
	return map[risk.SignalName]float64{
		risk.SignalSimilarity:        DefaultWeightSimilarity,
		risk.SignalDomainAge:         DefaultWeightDomainAge,
		risk.SignalTransportSecurity: DefaultWeightTransportSecurity,
		risk.SignalKeyword:           DefaultWeightKeyword,
	}
}

// fallbackScore is substituted for a signal whose provider timed out or
// failed. A failed lookup must never inflate risk, so every fallback is 0
// except transport security: inability to verify the security posture is
// itself mildly suspicious.
func fallbackScore(name risk.SignalName) float64 {
	if name == risk.SignalTransportSecurity {
		return 50
	}
	return 0
}
