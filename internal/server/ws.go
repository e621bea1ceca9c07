package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/mfreitag/benchhub/internal/hub"
)

// closeSessionNotFound is the application close code sent when a client
// connects to a session that does not exist. It lets clients distinguish
// a rejected subscription from an ordinary closure.
const closeSessionNotFound = 4004

// wsPeer adapts a websocket connection to [hub.Conn]. The mutex
// serializes writers: the broadcaster, the liveness sweep, and the
// receive loop's pong replies all share this connection.
type wsPeer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{conn: conn}
}

// Send writes one text frame. An error means the connection is dead and
// the hub will prune it.
func (p *wsPeer) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return websocket.Message.Send(p.conn, string(data))
}

func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(s.serveChannel).ServeHTTP(w, r)
}

// serveChannel runs one subscriber connection from accept to close.
//
// Lifecycle: validate the session, register with the hub, send the
// handshake to this connection only, then sit in a receive loop that
// answers "ping" with "pong" and ignores everything else. The deferred
// unsubscribe runs on every exit path: client close, receive error, or
// failed write.
func (s *Server) serveChannel(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	sid := conn.Request().PathValue("sid")
	if _, err := s.store.Session(sid); err != nil {
		s.logger.Warn("channel rejected: unknown session", "session_id", sid)
		_ = conn.WriteClose(closeSessionNotFound)
		return
	}

	peer := newWSPeer(conn)
	s.hub.Subscribe(sid, peer)
	defer s.hub.Unsubscribe(sid, peer)

	s.logger.Info("channel opened", "session_id", sid, "remote", conn.Request().RemoteAddr)

	greeting, err := json.Marshal(hub.Envelope{
		Event:     hub.EventConnected,
		SessionID: sid,
		Data:      hub.ConnectedData{Message: fmt.Sprintf("Connected to session %s", sid)},
	})
	if err != nil {
		return
	}
	if err := peer.Send(greeting); err != nil {
		return
	}

	for {
		var msg string
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("channel receive error", "session_id", sid, "error", err)
			} else {
				s.logger.Info("channel closed", "session_id", sid)
			}
			return
		}
		if msg == "ping" {
			if err := peer.Send([]byte("pong")); err != nil {
				return
			}
		}
	}
}
