package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 로컬 대시보드용
	},
}

const writeWait = 5 * time.Second

// StreamMessage is the envelope pushed to WebSocket clients
type StreamMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// RunSummary is the payload of a "selection_run" message
type RunSummary struct {
	RunID      string                     `json:"run_id"`
	TradeDate  string                     `json:"trade_date"`
	Source     string                     `json:"source"`
	Trigger    string                     `json:"trigger"`
	MarketMode contracts.MarketMode       `json:"market_mode"`
	Reason     string                     `json:"reason,omitempty"`
	Selection  []contracts.ScoredRecord   `json:"selection"`
	Enriched   []contracts.EnrichedRecord `json:"enriched,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
}

// StreamHub pushes completed runs to every connected client
// ⭐ SSOT: 선정 결과 실시간 푸시는 여기서만
type StreamHub struct {
	clients map[*websocket.Conn]*sync.Mutex
	mu      sync.RWMutex
	logger  *logger.Logger
}

// NewStreamHub creates an empty hub
func NewStreamHub(log *logger.Logger) *StreamHub {
	return &StreamHub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		logger:  log.Component("stream"),
	}
}

// ClientCount returns the number of connected clients
func (h *StreamHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the connection and keeps it registered until the client leaves
// GET /ws/selection
func (h *StreamHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("total", total).Debug("WebSocket client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.WithField("remaining", remaining).Debug("WebSocket client disconnected")
	}()

	// 클라이언트 메시지는 무시, 연결 유지용 읽기 루프
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).Warn("WebSocket error")
			}
			break
		}
	}
}

// BroadcastRun sends a run summary to all clients
func (h *StreamHub) BroadcastRun(run *contracts.RunRecord) {
	h.broadcast(StreamMessage{
		Type: "selection_run",
		Payload: RunSummary{
			RunID:      run.RunID,
			TradeDate:  run.TradeDate,
			Source:     run.Source,
			Trigger:    run.Trigger,
			MarketMode: run.Stats.MarketMode,
			Reason:     run.Stats.Reason,
			Selection:  run.Selection,
			Enriched:   run.Enriched,
			CreatedAt:  run.CreatedAt,
		},
	})
}

func (h *StreamHub) broadcast(msg StreamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal stream message")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	locks := make([]*sync.Mutex, 0, len(h.clients))
	for conn, lock := range h.clients {
		conns = append(conns, conn)
		locks = append(locks, lock)
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		locks[i].Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.TextMessage, data)
		locks[i].Unlock()

		if err != nil {
			h.logger.WithError(err).Warn("Failed to send message to client")
		}
	}
}
