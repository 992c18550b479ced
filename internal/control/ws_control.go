package control

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/frudas24/ddc-spotlight/internal/session"
	"github.com/frudas24/ddc-spotlight/internal/spotlight"
)

// Controller applies display transitions.
type Controller interface {
	Spotlight(ctx context.Context, names []string, source string) error
	DimAll(ctx context.Context, source string) error
	RestoreAll(ctx context.Context, source string) error
}

// Server handles websocket control input.
type Server struct {
	mu       sync.Mutex
	upgrader websocket.Upgrader
	session  *session.Session
	ctrl     Controller
	log      zerolog.Logger
	conn     *websocket.Conn
}

// NewServer creates a control websocket server.
func NewServer(sess *session.Session, ctrl Controller, log zerolog.Logger) *Server {
	return &Server{
		session: sess,
		ctrl:    ctrl,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and processes control messages.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.session.IsAuthenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if err := s.acceptConn(conn); err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("control: rejecting connection")
		_ = conn.WriteJSON(Reply{T: TypeError, Error: err.Error()})
		_ = conn.Close()
		return
	}
	defer s.cleanupConn(conn)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		reply := s.handleMessage(r.Context(), msg)
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

// acceptConn ensures only one active control connection exists.
func (s *Server) acceptConn(conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return fmt.Errorf("control connection already active")
	}
	s.conn = conn
	return nil
}

// cleanupConn clears the active connection when closed.
func (s *Server) cleanupConn(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = conn.Close()
}

// handleMessage dispatches a single control message and builds its reply.
func (s *Server) handleMessage(ctx context.Context, msg Message) Reply {
	var err error
	switch msg.T {
	case TypeSpotlight:
		err = s.ctrl.Spotlight(ctx, messageNames(msg), session.SourceControl)
	case TypeDimAll:
		err = s.ctrl.DimAll(ctx, session.SourceControl)
	case TypeRestoreAll:
		err = s.ctrl.RestoreAll(ctx, session.SourceControl)
	case TypePing:
		return Reply{T: TypePong, ID: msg.ID}
	default:
		err = fmt.Errorf("unknown message type %q", msg.T)
	}
	if err != nil {
		return Reply{T: TypeError, ID: msg.ID, Error: err.Error()}
	}
	return Reply{T: TypeOK, ID: msg.ID}
}

// messageNames returns the explicit list when present, otherwise the parsed CSV.
func messageNames(msg Message) []string {
	if msg.List != nil {
		return msg.List
	}
	if msg.Names == "" {
		return nil
	}
	return spotlight.ParseNames(msg.Names)
}
