package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shopeetools/revscope/internal/utils"
)

// Conservative buffers; the stream only carries small log entries.
var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  4096,
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin: func(r *http.Request) bool {
		// The UI is served from this process; same-host origins only.
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// handleActivityWS streams activity-log entries: a replay of the retained
// entries, then live updates until the client goes away.
func (s *Server) handleActivityWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for _, e := range s.Activity.Entries() {
		if err := conn.WriteJSON(e); err != nil {
			return
		}
	}

	entries, cancel := s.Activity.Subscribe()
	defer cancel()

	// Reader goroutine: detect client close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-entries:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
