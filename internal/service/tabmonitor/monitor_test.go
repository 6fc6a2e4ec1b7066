package tabmonitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
)

type scriptedAnalyzer struct {
	mu      sync.Mutex
	levels  map[string]risk.RiskLevel
	errs    map[string]error
	calls   map[string]int
	release chan struct{}
}

func newScriptedAnalyzer() *scriptedAnalyzer {
	return &scriptedAnalyzer{
		levels: make(map[string]risk.RiskLevel),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (a *scriptedAnalyzer) AnalyzeURL(_ context.Context, rawURL string) (*risk.RiskReport, error) {
	a.mu.Lock()
	a.calls[rawURL]++
	level, ok := a.levels[rawURL]
	err := a.errs[rawURL]
	release := a.release
	a.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		level = risk.LevelSafe
	}
	return &risk.RiskReport{
		ID:         uuid.New(),
		URL:        rawURL,
		RiskLevel:  level,
		ComputedAt: time.Now().UTC(),
	}, nil
}

func (a *scriptedAnalyzer) callCount(url string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[url]
}

type notifierEvent struct {
	kind  string
	tabID string
	level risk.RiskLevel
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifierEvent
}

func (n *recordingNotifier) ShowWarning(tabID string, report *risk.RiskReport) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifierEvent{kind: "show", tabID: tabID, level: report.RiskLevel})
}

func (n *recordingNotifier) HideWarning(tabID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifierEvent{kind: "hide", tabID: tabID})
}

func (n *recordingNotifier) last() (notifierEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return notifierEvent{}, false
	}
	return n.events[len(n.events)-1], true
}

func (n *recordingNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.kind == kind {
			c++
		}
	}
	return c
}

func waitForWarning(t *testing.T, m *Monitor, tabID TabID, visible bool) {
	t.Helper()
	assert.Eventually(t, func() bool {
		snap, ok := m.Snapshot(tabID)
		return ok && snap.Status == StatusDone && snap.WarningVisible == visible
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_DangerousNavigationShowsWarning(t *testing.T) {
	analyzer := newScriptedAnalyzer()
	analyzer.levels["https://evil.example.com"] = risk.LevelDangerous
	notifier := &recordingNotifier{}
	m := NewMonitor(analyzer, notifier, false, zap.NewNop(), nil)

	m.HandleNavigation(context.Background(), "tab-1", "https://evil.example.com")
	waitForWarning(t, m, "tab-1", true)

	last, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, "show", last.kind)
	assert.Equal(t, "tab-1", last.tabID)
	assert.Equal(t, risk.LevelDangerous, last.level)
}

func TestMonitor_SafeNavigationShowsNothing(t *testing.T) {
	analyzer := newScriptedAnalyzer()
	analyzer.levels["https://example.com"] = risk.LevelSafe
	notifier := &recordingNotifier{}
	m := NewMonitor(analyzer, notifier, true, zap.NewNop(), nil)

	m.HandleNavigation(context.Background(), "tab-1", "https://example.com")
	waitForWarning(t, m, "tab-1", false)
	assert.Zero(t, notifier.count("show"))
}

func TestMonitor_SuspiciousGatedByPolicy(t *testing.T) {
	tests := []struct {
		name             string
		warnOnSuspicious bool
		wantVisible      bool
	}{
		{"policy off leaves suspicious silent", false, false},
		{"policy on warns on suspicious", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := newScriptedAnalyzer()
			analyzer.levels["https://odd.example.com"] = risk.LevelSuspicious
			notifier := &recordingNotifier{}
			m := NewMonitor(analyzer, notifier, tt.warnOnSuspicious, zap.NewNop(), nil)

			m.HandleNavigation(context.Background(), "tab-1", "https://odd.example.com")
			waitForWarning(t, m, "tab-1", tt.wantVisible)
		})
	}
}

func TestMonitor_ContinueDismissesForTabLifetime(t *testing.T) {
	ctx := context.Background()
	analyzer := newScriptedAnalyzer()
	analyzer.levels["https://evil.example.com"] = risk.LevelDangerous
	analyzer.levels["https://evil.example.com/other-page"] = risk.LevelDangerous
	notifier := &recordingNotifier{}
	m := NewMonitor(analyzer, notifier, false, zap.NewNop(), nil)

	m.HandleNavigation(ctx, "tab-1", "https://evil.example.com")
	waitForWarning(t, m, "tab-1", true)

	m.HandleAction(ctx, "tab-1", ActionContinue)
	snap, ok := m.Snapshot("tab-1")
	require.True(t, ok)
	assert.False(t, snap.WarningVisible)
	assert.Equal(t, 1, notifier.count("hide"))

	// A fragment navigation normalizes to the same URL and must not
	// restart analysis or resurface the warning.
	m.HandleNavigation(ctx, "tab-1", "https://evil.example.com#section")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, analyzer.callCount("https://evil.example.com"))
	snap, _ = m.Snapshot("tab-1")
	assert.False(t, snap.WarningVisible)

	// A different page on the same site is a new URL and warns again.
	m.HandleNavigation(ctx, "tab-1", "https://evil.example.com/other-page")
	waitForWarning(t, m, "tab-1", true)

	// Returning to the dismissed URL stays dismissed.
	m.HandleNavigation(ctx, "tab-1", "https://evil.example.com")
	waitForWarning(t, m, "tab-1", false)
}

func TestMonitor_ExitHidesWithoutDismissing(t *testing.T) {
	ctx := context.Background()
	analyzer := newScriptedAnalyzer()
	analyzer.levels["https://evil.example.com"] = risk.LevelDangerous
	analyzer.levels["https://elsewhere.example.com"] = risk.LevelSafe
	notifier := &recordingNotifier{}
	m := NewMonitor(analyzer, notifier, false, zap.NewNop(), nil)

	m.HandleNavigation(ctx, "tab-1", "https://evil.example.com")
	waitForWarning(t, m, "tab-1", true)

	m.HandleAction(ctx, "tab-1", ActionExit)
	snap, _ := m.Snapshot("tab-1")
	assert.False(t, snap.WarningVisible)

	// The URL was not dismissed, so coming back warns again.
	m.HandleNavigation(ctx, "tab-1", "https://elsewhere.example.com")
	waitForWarning(t, m, "tab-1", false)
	m.HandleNavigation(ctx, "tab-1", "https://evil.example.com")
	waitForWarning(t, m, "tab-1", true)
}

func TestMonitor_NewNavigationClearsVisibleWarning(t *testing.T) {
	ctx := context.Background()
	analyzer := newScriptedAnalyzer()
	analyzer.levels["https://evil.example.com"] = risk.LevelDangerous
	analyzer.levels["https://example.com"] = risk.LevelSafe
	notifier := &recordingNotifier{}
	m := NewMonitor(analyzer, notifier, false, zap.NewNop(), nil)

	m.HandleNavigation(ctx, "tab-1", "https://evil.example.com")
	waitForWarning(t, m, "tab-1", true)

	m.HandleNavigation(ctx, "tab-1", "https://example.com")
	// The warning is cleared synchronously, before the new analysis lands.
	last, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, "hide", last.kind)
	waitForWarning(t, m, "tab-1", false)
}

func TestMonitor_FailedAnalysisLeavesTabIdle(t *testing.T) {
	ctx := context.Background()
	analyzer := newScriptedAnalyzer()
	analyzer.errs["https://flaky.example.com"] = errors.New("computation fault")
	notifier := &recordingNotifier{}
	m := NewMonitor(analyzer, notifier, false, zap.NewNop(), nil)

	m.HandleNavigation(ctx, "tab-1", "https://flaky.example.com")
	assert.Eventually(t, func() bool {
		snap, ok := m.Snapshot("tab-1")
		return ok && snap.Status == StatusIdle
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, notifier.count("show"))

	// An idle tab re-analyzes the same URL on the next navigation event.
	analyzer.mu.Lock()
	delete(analyzer.errs, "https://flaky.example.com")
	analyzer.levels["https://flaky.example.com"] = risk.LevelDangerous
	analyzer.mu.Unlock()

	m.HandleNavigation(ctx, "tab-1", "https://flaky.example.com")
	waitForWarning(t, m, "tab-1", true)
	assert.Equal(t, 2, analyzer.callCount("https://flaky.example.com"))
}

func TestMonitor_SupersededAnalysisIsDiscarded(t *testing.T) {
	ctx := context.Background()
	analyzer := newScriptedAnalyzer()
	analyzer.levels["https://evil.example.com"] = risk.LevelDangerous
	analyzer.levels["https://example.com"] = risk.LevelSafe
	analyzer.release = make(chan struct{})
	notifier := &recordingNotifier{}
	m := NewMonitor(analyzer, notifier, false, zap.NewNop(), nil)

	m.HandleNavigation(ctx, "tab-1", "https://evil.example.com")
	// Supersede the dangerous analysis while it is still in flight.
	m.HandleNavigation(ctx, "tab-1", "https://example.com")
	close(analyzer.release)

	waitForWarning(t, m, "tab-1", false)
	snap, _ := m.Snapshot("tab-1")
	assert.Equal(t, "https://example.com", snap.URL)
	assert.Equal(t, risk.LevelSafe, snap.RiskLevel)
	assert.Zero(t, notifier.count("show"), "superseded dangerous result must not warn")
}

func TestMonitor_TabClosedDropsState(t *testing.T) {
	ctx := context.Background()
	analyzer := newScriptedAnalyzer()
	m := NewMonitor(analyzer, &recordingNotifier{}, false, zap.NewNop(), nil)

	m.HandleNavigation(ctx, "tab-1", "https://example.com")
	m.HandleNavigation(ctx, "tab-2", "https://example.org")
	assert.Equal(t, 2, m.ActiveTabCount())

	m.HandleTabClosed("tab-1")
	assert.Equal(t, 1, m.ActiveTabCount())
	_, ok := m.Snapshot("tab-1")
	assert.False(t, ok)
}

func TestMonitor_InvalidURLIgnored(t *testing.T) {
	analyzer := newScriptedAnalyzer()
	m := NewMonitor(analyzer, &recordingNotifier{}, false, zap.NewNop(), nil)

	m.HandleNavigation(context.Background(), "tab-1", "not a url")
	assert.Zero(t, m.ActiveTabCount())
	_, ok := m.Snapshot("tab-1")
	assert.False(t, ok)
}
