package rest

import (
	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
)

// toAnalyzeResponse flattens a risk report into its wire form. Signal
// status is internal bookkeeping and stays off the wire; failed signals
// already carry fallback scores and descriptions.
func toAnalyzeResponse(report *risk.RiskReport) AnalyzeResponse {
	signals := make([]SignalResponse, len(report.Signals))
	for i, s := range report.Signals {
		signals[i] = SignalResponse{
			Name:        string(s.Name),
			Score:       s.Score,
			Description: s.Description,
		}
	}
	return AnalyzeResponse{
		URL:            report.URL,
		RiskScore:      report.RiskScore,
		RiskLevel:      string(report.RiskLevel),
		Signals:        signals,
		Explanation:    report.Explanation,
		Recommendation: report.Recommendation,
	}
}
