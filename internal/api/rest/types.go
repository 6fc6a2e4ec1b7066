package rest

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// SignalResponse is one signal's contribution in an analysis response.
type SignalResponse struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// AnalyzeResponse is the wire form of a risk report.
type AnalyzeResponse struct {
	URL            string           `json:"url"`
	RiskScore      float64          `json:"risk_score"`
	RiskLevel      string           `json:"risk_level"`
	Signals        []SignalResponse `json:"signals"`
	Explanation    string           `json:"explanation"`
	Recommendation string           `json:"recommendation"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// BannerResponse is the body of GET /.
type BannerResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable error fields.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
