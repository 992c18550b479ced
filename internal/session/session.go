// Package session holds runtime state for the control surfaces.
package session

import (
	"sync"
	"time"
)

// ActionSpotlight keeps the named outputs lit and dims the rest.
const ActionSpotlight = "spotlight"

// ActionDimAll dims every display.
const ActionDimAll = "dimAll"

// ActionRestoreAll restores every display to its baseline.
const ActionRestoreAll = "restoreAll"

// SourceMPV marks requests coming from the mpv IPC client.
const SourceMPV = "mpv"

// SourceControl marks requests coming from the control websocket.
const SourceControl = "control"

// SourceStartup marks requests issued by the daemon itself.
const SourceStartup = "startup"

// Request records one transition request applied to the displays.
type Request struct {
	Action string    `json:"action"`
	Names  []string  `json:"names,omitempty"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
	Error  string    `json:"error,omitempty"`
}

// Snapshot represents a read-only view of the current session state.
type Snapshot struct {
	Authenticated bool     `json:"authenticated"`
	AuthRequired  bool     `json:"authRequired"`
	Requests      int      `json:"requests"`
	Last          *Request `json:"last,omitempty"`
}

// Session holds runtime state shared by the HTTP and websocket handlers.
type Session struct {
	mu            sync.RWMutex
	password      string
	authenticated bool
	requests      int
	last          *Request
}

// New returns a session. An empty password disables authentication.
func New(password string) *Session {
	return &Session{password: password}
}

// AuthRequired reports whether clients must log in.
func (s *Session) AuthRequired() bool {
	return s.password != ""
}

// Authenticate validates the password and marks the session as authenticated.
func (s *Session) Authenticate(pass string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pass != "" && pass == s.password {
		s.authenticated = true
		return true
	}
	s.authenticated = false
	return false
}

// Logout clears authentication state.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
}

// IsAuthenticated reports whether requests may proceed.
func (s *Session) IsAuthenticated() bool {
	if !s.AuthRequired() {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Record stores req as the most recent request.
func (s *Session) Record(req Request) {
	req.Names = append([]string(nil), req.Names...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	s.last = &req
}

// Last returns the most recent request.
func (s *Session) Last() (Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Request{}, false
	}
	last := *s.last
	last.Names = append([]string(nil), last.Names...)
	return last, true
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Authenticated: s.authenticated || s.password == "",
		AuthRequired:  s.password != "",
		Requests:      s.requests,
	}
	if s.last != nil {
		last := *s.last
		last.Names = append([]string(nil), last.Names...)
		snap.Last = &last
	}
	return snap
}
