package risk

// SignalName identifies one of the fixed fraud signals. The string value
// is the human-readable name used on the wire.
type SignalName string

const (
	SignalSimilarity        SignalName = "URL Similarity"
	SignalDomainAge         SignalName = "Domain Age"
	SignalTransportSecurity SignalName = "Transport Security"
	SignalKeyword           SignalName = "Keyword Pattern"
)

// SignalNames is the fixed provider declaration order. Reports always carry
// their signals in this order regardless of completion order.
var SignalNames = []SignalName{
	SignalSimilarity,
	SignalDomainAge,
	SignalTransportSecurity,
	SignalKeyword,
}

// SignalStatus describes how a signal result was obtained
type SignalStatus string

const (
	// StatusOK means the provider completed normally
	StatusOK SignalStatus = "ok"

	// StatusTimeout means the provider missed its deadline and the score
	// is the signal's neutral fallback
	StatusTimeout SignalStatus = "timeout"

	// StatusError means the provider failed and the score is the signal's
	// neutral fallback
	StatusError SignalStatus = "error"
)

// SignalResult is one independently computed risk indicator. It is
// immutable once produced. A TIMEOUT or ERROR result still carries a
// usable (fallback) score so scoring never has to branch on missingness.
type SignalResult struct {
	Name        SignalName   `json:"name"`
	Score       float64      `json:"score"`
	Description string       `json:"description"`
	Status      SignalStatus `json:"status"`
}

// OK reports whether the signal was computed rather than synthesized.
func (s SignalResult) OK() bool {
	return s.Status == StatusOK
}
