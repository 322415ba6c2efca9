package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 2 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendQueue  = 8
)

var upgrader = websocket.Upgrader{
	// The preview only listens locally; tabs may be opened from any origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Reload tells preview tabs to refresh. An empty Pages list, or Full,
// reloads every tab; otherwise only tabs showing one of Pages and the
// catalog index reload.
type Reload struct {
	Type  string   `json:"type"`
	Pages []string `json:"pages,omitempty"`
	Full  bool     `json:"full,omitempty"`
}

// affects reports whether a tab showing page must reload. The index tab
// subscribes with an empty page and lists every page.
func (r Reload) affects(page string) bool {
	return r.Full || len(r.Pages) == 0 || page == "" || slices.Contains(r.Pages, page)
}

// tab is one connected preview tab.
type tab struct {
	conn *websocket.Conn
	page string
	send chan []byte
}

// Hub tracks the preview tabs connected over WebSocket. Each tab has its
// own writer goroutine, so a slow tab never delays the others.
type Hub struct {
	mu     sync.Mutex
	tabs   map[*tab]struct{}
	closed bool
	log    zerolog.Logger
}

// NewHub returns an empty Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{tabs: make(map[*tab]struct{}), log: log}
}

// HandleWS upgrades the request and keeps the tab registered until it
// disconnects. The page query parameter names the page the tab shows.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	t := &tab{conn: conn, page: r.URL.Query().Get("page"), send: make(chan []byte, sendQueue)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.tabs[t] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Str("page", t.page).Msg("preview tab connected")

	go h.writeLoop(t)
	go h.readLoop(t)
}

// Notify sends r to every tab it affects and returns how many were told.
// A tab whose queue is full is disconnected; it reconnects and reloads on
// its own.
func (h *Hub) Notify(r Reload) int {
	r.Type = "reload"
	msg, err := json.Marshal(r)
	if err != nil {
		h.log.Error().Err(err).Msg("encoding reload")
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for t := range h.tabs {
		if !r.affects(t.page) {
			continue
		}
		select {
		case t.send <- msg:
			n++
		default:
			h.dropLocked(t)
		}
	}
	return n
}

// Stop disconnects every tab and refuses new ones. It is safe to call more
// than once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for t := range h.tabs {
		h.dropLocked(t)
	}
}

// ClientCount returns the number of connected tabs.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tabs)
}

func (h *Hub) drop(t *tab) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(t)
}

// dropLocked unregisters t and closes its queue, which ends its writer.
func (h *Hub) dropLocked(t *tab) {
	if _, ok := h.tabs[t]; !ok {
		return
	}
	delete(h.tabs, t)
	close(t.send)
}

// readLoop discards client messages and tracks pongs. It ends when the
// connection fails.
func (h *Hub) readLoop(t *tab) {
	defer h.drop(t)
	t.conn.SetReadLimit(512)
	_ = t.conn.SetReadDeadline(time.Now().Add(pongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := t.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop delivers queued messages and keeps the connection alive with
// pings. It owns all writes to the connection.
func (h *Hub) writeLoop(t *tab) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		t.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-t.send:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := t.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.drop(t)
				return
			}
		case <-ticker.C:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(t)
				return
			}
		}
	}
}
