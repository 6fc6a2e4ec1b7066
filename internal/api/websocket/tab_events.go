package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/service/tabmonitor"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ClientMessage is an inbound event from a connected browser extension.
type ClientMessage struct {
	Type   string `json:"type"`
	TabID  string `json:"tab_id,omitempty"`
	URL    string `json:"url,omitempty"`
	Action string `json:"action,omitempty"`
}

// ServerMessage is an outbound command to the extension.
type ServerMessage struct {
	Type   string         `json:"type"`
	TabID  string         `json:"tab_id,omitempty"`
	Report *WarningReport `json:"report,omitempty"`
}

// WarningReport is the warning payload shown in the overlay.
type WarningReport struct {
	URL            string          `json:"url"`
	RiskScore      float64         `json:"risk_score"`
	RiskLevel      string          `json:"risk_level"`
	Signals        []WarningSignal `json:"signals"`
	Explanation    string          `json:"explanation"`
	Recommendation string          `json:"recommendation"`
}

// WarningSignal is one signal line in the warning payload.
type WarningSignal struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// TabEventHub accepts extension connections, routes their tab events to
// the monitor, and pushes warning commands back to the client that owns
// each tab. It implements tabmonitor.Notifier.
type TabEventHub struct {
	monitor *tabmonitor.Monitor
	logger  *zap.Logger

	upgrader websocket.Upgrader

	mu        sync.RWMutex
	clients   map[uuid.UUID]*tabClient
	tabOwners map[string]uuid.UUID
}

type tabClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan ServerMessage

	mu   sync.Mutex
	tabs map[string]struct{}
}

// NewTabEventHub builds the hub. allowedOrigins uses the same prefix
// wildcard form as the REST CORS settings.
func NewTabEventHub(monitor *tabmonitor.Monitor, allowedOrigins []string, logger *zap.Logger) *TabEventHub {
	return &TabEventHub{
		monitor: monitor,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return originAllowed(allowedOrigins, origin)
			},
		},
		clients:   make(map[uuid.UUID]*tabClient),
		tabOwners: make(map[string]uuid.UUID),
	}
}

func originAllowed(patterns []string, origin string) bool {
	for _, p := range patterns {
		if p == "*" || p == origin {
			return true
		}
		if strings.HasSuffix(p, "*") && strings.HasPrefix(origin, strings.TrimSuffix(p, "*")) {
			return true
		}
	}
	return false
}

// HandleTabEvents upgrades the connection and starts the client pumps.
func (h *TabEventHub) HandleTabEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &tabClient{
		id:   uuid.New(),
		conn: conn,
		send: make(chan ServerMessage, 32),
		tabs: make(map[string]struct{}),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	// The request context dies when this handler returns; tab events
	// outlive it for as long as the connection stays open.
	go h.writePump(client)
	go h.readPump(context.Background(), client)

	h.logger.Info("extension connected",
		zap.String("client_id", client.id.String()),
		zap.String("remote_addr", r.RemoteAddr))
}

// ShowWarning pushes a warning overlay command to the tab's owner.
func (h *TabEventHub) ShowWarning(tabID string, report *risk.RiskReport) {
	h.sendToOwner(tabID, ServerMessage{
		Type:   "show_warning",
		TabID:  tabID,
		Report: toWarningReport(report),
	})
}

// HideWarning clears any warning overlay on the tab.
func (h *TabEventHub) HideWarning(tabID string) {
	h.sendToOwner(tabID, ServerMessage{Type: "hide_warning", TabID: tabID})
}

// ClientCount reports connected extension clients.
func (h *TabEventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *TabEventHub) sendToOwner(tabID string, msg ServerMessage) {
	// The read lock is held across the send: disconnect closes
	// client.send under the write lock, so the two cannot interleave.
	h.mu.RLock()
	defer h.mu.RUnlock()

	owner, ok := h.tabOwners[tabID]
	client := h.clients[owner]
	if !ok || client == nil {
		h.logger.Debug("no connected owner for tab", zap.String("tab_id", tabID))
		return
	}

	select {
	case client.send <- msg:
	default:
		h.logger.Warn("dropping message to slow client",
			zap.String("client_id", client.id.String()),
			zap.String("tab_id", tabID))
	}
}

func (h *TabEventHub) readPump(ctx context.Context, client *tabClient) {
	defer func() {
		h.disconnect(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("websocket read error",
					zap.String("client_id", client.id.String()),
					zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Warn("unparseable client message",
				zap.String("client_id", client.id.String()),
				zap.Error(err))
			continue
		}

		h.dispatch(ctx, client, msg)
	}
}

func (h *TabEventHub) dispatch(ctx context.Context, client *tabClient, msg ClientMessage) {
	switch msg.Type {
	case "navigation":
		if msg.TabID == "" {
			return
		}
		h.claimTab(client, msg.TabID)
		h.monitor.HandleNavigation(ctx, tabmonitor.TabID(msg.TabID), msg.URL)

	case "action":
		if msg.TabID == "" {
			return
		}
		h.monitor.HandleAction(ctx, tabmonitor.TabID(msg.TabID), tabmonitor.UserAction(msg.Action))

	case "tab_closed":
		if msg.TabID == "" {
			return
		}
		h.releaseTab(client, msg.TabID)
		h.monitor.HandleTabClosed(tabmonitor.TabID(msg.TabID))

	case "ping":
		select {
		case client.send <- ServerMessage{Type: "pong"}:
		default:
		}

	default:
		h.logger.Warn("unknown client message type",
			zap.String("client_id", client.id.String()),
			zap.String("type", msg.Type))
	}
}

func (h *TabEventHub) writePump(client *tabClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *TabEventHub) claimTab(client *tabClient, tabID string) {
	client.mu.Lock()
	client.tabs[tabID] = struct{}{}
	client.mu.Unlock()

	h.mu.Lock()
	h.tabOwners[tabID] = client.id
	h.mu.Unlock()
}

func (h *TabEventHub) releaseTab(client *tabClient, tabID string) {
	client.mu.Lock()
	delete(client.tabs, tabID)
	client.mu.Unlock()

	h.mu.Lock()
	if owner, ok := h.tabOwners[tabID]; ok && owner == client.id {
		delete(h.tabOwners, tabID)
	}
	h.mu.Unlock()
}

// disconnect drops the client and closes out every tab it owned, so
// the monitor does not accumulate state for tabs nobody can see.
func (h *TabEventHub) disconnect(client *tabClient) {
	client.mu.Lock()
	tabs := make([]string, 0, len(client.tabs))
	for tabID := range client.tabs {
		tabs = append(tabs, tabID)
	}
	client.tabs = make(map[string]struct{})
	client.mu.Unlock()

	h.mu.Lock()
	delete(h.clients, client.id)
	for _, tabID := range tabs {
		if owner, ok := h.tabOwners[tabID]; ok && owner == client.id {
			delete(h.tabOwners, tabID)
		}
	}
	// Closed under the write lock so a concurrent sendToOwner, which
	// sends while holding the read lock, can never hit a closed channel.
	close(client.send)
	h.mu.Unlock()

	for _, tabID := range tabs {
		h.monitor.HandleTabClosed(tabmonitor.TabID(tabID))
	}

	h.logger.Info("extension disconnected",
		zap.String("client_id", client.id.String()),
		zap.Int("tabs_released", len(tabs)))
}

func toWarningReport(report *risk.RiskReport) *WarningReport {
	if report == nil {
		return nil
	}
	signals := make([]WarningSignal, len(report.Signals))
	for i, s := range report.Signals {
		signals[i] = WarningSignal{
			Name:        string(s.Name),
			Score:       s.Score,
			Description: s.Description,
		}
	}
	return &WarningReport{
		URL:            report.URL,
		RiskScore:      report.RiskScore,
		RiskLevel:      string(report.RiskLevel),
		Signals:        signals,
		Explanation:    report.Explanation,
		Recommendation: report.Recommendation,
	}
}
