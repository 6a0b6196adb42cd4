package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/radieske/commitment-bets/pkg/contracts/events"
)

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: ping | snapshot
type ClientMsg struct {
	Type string `json:"type"`
}

// Hub mantém as conexões do painel de leaderboard e o último ranking publicado
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	conns    map[*websocket.Conn]*sync.Mutex // escrita serializada por conexão
	last     []byte
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		conns:    make(map[*websocket.Conn]*sync.Mutex),
	}
}

// HandleWS registra a conexão, envia o último ranking conhecido e responde a pings
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wmu := &sync.Mutex{}
	h.mu.Lock()
	h.conns[conn] = wmu
	last := h.last
	h.mu.Unlock()

	if last != nil {
		h.write(conn, wmu, last)
	}

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "ping":
			b, _ := json.Marshal(map[string]string{"type": "pong"})
			h.write(conn, wmu, b)
		case "snapshot":
			h.mu.RLock()
			last := h.last
			h.mu.RUnlock()
			if last != nil {
				h.write(conn, wmu, last)
			}
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Broadcast envia o ranking para todos os clientes conectados e guarda como último
func (h *Hub) Broadcast(upd events.LeaderboardUpdate) {
	b, err := json.Marshal(upd)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.last = b
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.conns))
	for c, m := range h.conns {
		conns[c] = m
	}
	h.mu.Unlock()

	for c, m := range conns {
		h.write(c, m, b)
	}
}

// Clients retorna o número de conexões abertas
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) write(c *websocket.Conn, m *sync.Mutex, b []byte) {
	m.Lock()
	defer m.Unlock()
	_ = c.WriteMessage(websocket.TextMessage, b)
}
