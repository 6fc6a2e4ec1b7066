package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/davidleathers/fraudguard-backend/internal/infrastructure/config"
	"github.com/davidleathers/fraudguard-backend/internal/service/analysis"
)

// Handler serves the REST surface: URL analysis plus liveness probes.
type Handler struct {
	analysis analysis.Service
	logger   *slog.Logger
	validate *validator.Validate
	version  string
	apiCfg   config.APIConfig
}

// NewHandler builds the REST handler around the analysis service.
func NewHandler(svc analysis.Service, version string, apiCfg config.APIConfig, logger *slog.Logger) *Handler {
	return &Handler{
		analysis: svc,
		logger:   logger,
		validate: validator.New(),
		version:  version,
		apiCfg:   apiCfg,
	}
}

// Routes assembles the mux with the standard middleware stack.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", h.handleBanner)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /analyze", h.handleAnalyze)

	return Chain(mux,
		RecoveryMiddleware(h.logger),
		RequestIDMiddleware(),
		LoggingMiddleware(h.logger),
		CORSMiddleware(h.apiCfg.CORSOrigins),
		RateLimitMiddleware(h.apiCfg.RateLimit.RequestsPerSecond, h.apiCfg.RateLimit.BurstSize),
	)
}

func (h *Handler) handleBanner(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	writeJSON(w, http.StatusOK, BannerResponse{Message: "FraudGuard API is running"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Version: h.version})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Field 'url' is required")
		return
	}

	report, err := h.analysis.AnalyzeURL(r.Context(), req.URL)
	if err != nil {
		status, code, message := mapError(err)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "analysis request failed",
				"url", req.URL,
				"error", err,
			)
		}
		writeError(w, status, code, message)
		return
	}

	writeJSON(w, http.StatusOK, toAnalyzeResponse(report))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
