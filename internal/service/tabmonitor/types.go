package tabmonitor

import (
	"context"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
)

// TabID identifies one browsing tab reported by a connected client.
type TabID string

// AnalysisStatus tracks where a tab sits in its analysis lifecycle.
type AnalysisStatus string

const (
	StatusIdle    AnalysisStatus = "IDLE"
	StatusPending AnalysisStatus = "PENDING"
	StatusDone    AnalysisStatus = "DONE"
)

// UserAction is a user's response to a displayed warning.
type UserAction string

const (
	ActionExit     UserAction = "exit"
	ActionReport   UserAction = "report"
	ActionContinue UserAction = "continue"
)

// Analyzer produces a risk report for a raw URL. Satisfied by the
// analysis service.
type Analyzer interface {
	AnalyzeURL(ctx context.Context, rawURL string) (*risk.RiskReport, error)
}

// Notifier delivers warning display commands back to the client that
// owns a tab.
type Notifier interface {
	ShowWarning(tabID string, report *risk.RiskReport)
	HideWarning(tabID string)
}

// TabSnapshot is a read-only view of one tab's state.
type TabSnapshot struct {
	URL            string         `json:"url"`
	Status         AnalysisStatus `json:"status"`
	WarningVisible bool           `json:"warning_visible"`
	RiskLevel      risk.RiskLevel `json:"risk_level,omitempty"`
}
