package risk

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the discrete classification derived from the numeric risk
// score. The string values are the wire serialization.
type RiskLevel string

const (
	LevelSafe       RiskLevel = "Safe"
	LevelSuspicious RiskLevel = "Suspicious"
	LevelDangerous  RiskLevel = "Dangerous"
)

// RiskReport is the outcome of analyzing one normalized URL. It is
// immutable once produced; the report cache owns the canonical copy and
// shares it read-only with callers.
type RiskReport struct {
	ID             uuid.UUID      `json:"id"`
	URL            string         `json:"url"`
	RiskScore      float64        `json:"risk_score"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Signals        []SignalResult `json:"signals"`
	Explanation    string         `json:"explanation"`
	Recommendation string         `json:"recommendation"`
	ComputedAt     time.Time      `json:"computed_at"`
}

// Recommendation wording per risk level
const (
	RecommendationSafe       = "This site appears safe. Proceed with normal caution."
	RecommendationSuspicious = "Exercise caution. Verify the website's authenticity before entering sensitive information."
	RecommendationDangerous  = "Do not enter any personal or financial information. Exit this site immediately and report if possible."
)

// RecommendationFor returns the user recommendation for a risk level.
func RecommendationFor(level RiskLevel) string {
	switch level {
	case LevelDangerous:
		return RecommendationDangerous
	case LevelSuspicious:
		return RecommendationSuspicious
	default:
		return RecommendationSafe
	}
}
