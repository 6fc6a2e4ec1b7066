package tabmonitor

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
	"github.com/davidleathers/fraudguard-backend/internal/metrics"
)

// Monitor tracks per-tab navigation, drives URL analysis, and decides
// when a warning overlay is shown or cleared. Every tab is handled
// independently; events for one tab are serialized under its own lock.
type Monitor struct {
	analyzer Analyzer
	notifier Notifier
	logger   *zap.Logger
	metrics  *metrics.Registry

	warnOnSuspicious bool

	mu   sync.RWMutex
	tabs map[TabID]*tabState
}

// tabState is the full lifecycle state of one tab. The dismissed set
// lives for the lifetime of the tab, so returning to a dismissed URL
// does not re-warn.
type tabState struct {
	mu sync.Mutex

	current   values.NormalizedURL
	status    AnalysisStatus
	seq       uint64
	report    *risk.RiskReport
	warning   bool
	dismissed map[string]struct{}
}

// NewMonitor builds a tab monitor. The notifier may be nil until a
// client transport registers one via SetNotifier.
func NewMonitor(analyzer Analyzer, notifier Notifier, warnOnSuspicious bool, logger *zap.Logger, reg *metrics.Registry) *Monitor {
	return &Monitor{
		analyzer:         analyzer,
		notifier:         notifier,
		logger:           logger,
		metrics:          reg,
		warnOnSuspicious: warnOnSuspicious,
		tabs:             make(map[TabID]*tabState),
	}
}

// SetNotifier installs the transport used to push warning commands.
func (m *Monitor) SetNotifier(n Notifier) {
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

// HandleNavigation processes a navigation event for a tab. Navigations
// that normalize to the tab's current URL (fragment changes, trailing
// slashes) do not restart analysis. A navigation to a new URL clears
// any visible warning immediately and supersedes in-flight analysis
// for the previous URL.
func (m *Monitor) HandleNavigation(ctx context.Context, tabID TabID, rawURL string) {
	target, err := values.NormalizeURL(rawURL)
	if err != nil {
		m.logger.Warn("ignoring navigation to unanalyzable URL",
			zap.String("tab_id", string(tabID)),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return
	}

	state := m.tab(tabID)

	state.mu.Lock()
	if state.current.Equal(target) && state.status != StatusIdle {
		state.mu.Unlock()
		return
	}

	hideStale := state.warning
	state.current = target
	state.status = StatusPending
	state.report = nil
	state.warning = false
	state.seq++
	seq := state.seq
	state.mu.Unlock()

	if hideStale {
		m.notify(func(n Notifier) { n.HideWarning(string(tabID)) })
	}

	go m.analyze(ctx, tabID, state, target, seq)
}

// analyze runs the analysis for one navigation and applies the result
// unless a newer navigation superseded it.
func (m *Monitor) analyze(ctx context.Context, tabID TabID, state *tabState, target values.NormalizedURL, seq uint64) {
	report, err := m.analyzer.AnalyzeURL(ctx, target.String())

	state.mu.Lock()
	if state.seq != seq {
		// A newer navigation owns this tab now.
		state.mu.Unlock()
		return
	}

	if err != nil {
		// Failed analysis leaves the tab navigable and any prior
		// warning decision untouched.
		state.status = StatusIdle
		state.mu.Unlock()
		m.logger.Error("tab analysis failed",
			zap.String("tab_id", string(tabID)),
			zap.String("url", target.String()),
			zap.Error(err),
		)
		return
	}

	state.status = StatusDone
	state.report = report
	_, dismissed := state.dismissed[target.String()]
	show := m.shouldWarn(report.RiskLevel) && !dismissed
	state.warning = show
	state.mu.Unlock()

	if show {
		m.notify(func(n Notifier) { n.ShowWarning(string(tabID), report) })
		m.metrics.RecordWarningShown(ctx, string(report.RiskLevel))
		m.logger.Info("warning shown",
			zap.String("tab_id", string(tabID)),
			zap.String("url", target.String()),
			zap.String("risk_level", string(report.RiskLevel)),
		)
	}
}

func (m *Monitor) shouldWarn(level risk.RiskLevel) bool {
	switch level {
	case risk.LevelDangerous:
		return true
	case risk.LevelSuspicious:
		return m.warnOnSuspicious
	default:
		return false
	}
}

// HandleAction applies a user's response to a visible warning.
// Continue dismisses the warning for that exact URL for the lifetime
// of the tab. Exit hides the warning and leaves the dismissal state
// alone. Report is recorded for operators.
func (m *Monitor) HandleAction(ctx context.Context, tabID TabID, action UserAction) {
	m.mu.RLock()
	state, ok := m.tabs[tabID]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("action for unknown tab", zap.String("tab_id", string(tabID)))
		return
	}

	state.mu.Lock()
	url := state.current.String()
	hadWarning := state.warning

	switch action {
	case ActionContinue:
		if state.dismissed == nil {
			state.dismissed = make(map[string]struct{})
		}
		state.dismissed[url] = struct{}{}
		state.warning = false
	case ActionExit, ActionReport:
		state.warning = false
	default:
		state.mu.Unlock()
		m.logger.Warn("unknown warning action",
			zap.String("tab_id", string(tabID)),
			zap.String("action", string(action)),
		)
		return
	}
	state.mu.Unlock()

	if hadWarning {
		m.notify(func(n Notifier) { n.HideWarning(string(tabID)) })
	}

	switch action {
	case ActionContinue:
		m.metrics.RecordWarningDismissed(ctx)
		m.logger.Info("warning dismissed",
			zap.String("tab_id", string(tabID)),
			zap.String("url", url),
		)
	case ActionReport:
		m.logger.Warn("user reported suspected fraud site",
			zap.String("tab_id", string(tabID)),
			zap.String("url", url),
		)
	}
}

// HandleTabClosed drops all state for a closed tab.
func (m *Monitor) HandleTabClosed(tabID TabID) {
	m.mu.Lock()
	delete(m.tabs, tabID)
	n := int64(len(m.tabs))
	m.mu.Unlock()
	m.metrics.SetActiveTabs(n)
}

// Snapshot returns the current state of a tab, if it is tracked.
func (m *Monitor) Snapshot(tabID TabID) (TabSnapshot, bool) {
	m.mu.RLock()
	state, ok := m.tabs[tabID]
	m.mu.RUnlock()
	if !ok {
		return TabSnapshot{}, false
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	snap := TabSnapshot{
		URL:            state.current.String(),
		Status:         state.status,
		WarningVisible: state.warning,
	}
	if state.report != nil {
		snap.RiskLevel = state.report.RiskLevel
	}
	return snap, true
}

// ActiveTabCount reports how many tabs are currently tracked.
func (m *Monitor) ActiveTabCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tabs)
}

func (m *Monitor) tab(tabID TabID) *tabState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.tabs[tabID]
	if !ok {
		state = &tabState{
			status:    StatusIdle,
			dismissed: make(map[string]struct{}),
		}
		m.tabs[tabID] = state
		m.metrics.SetActiveTabs(int64(len(m.tabs)))
	}
	return state
}

func (m *Monitor) notify(fn func(Notifier)) {
	m.mu.RLock()
	n := m.notifier
	m.mu.RUnlock()
	if n != nil {
		fn(n)
	}
}
