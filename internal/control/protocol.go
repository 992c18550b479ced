// Package control handles the websocket control protocol.
package control

// Message types accepted from clients.
const (
	TypeSpotlight  = "spotlight"
	TypeDimAll     = "dimAll"
	TypeRestoreAll = "restoreAll"
	TypePing       = "ping"
)

// Reply types sent to clients.
const (
	TypeOK    = "ok"
	TypeError = "error"
	TypePong  = "pong"
)

// Message is a control websocket payload.
type Message struct {
	T     string   `json:"t"`
	ID    int      `json:"id,omitempty"`
	Names string   `json:"names,omitempty"`
	List  []string `json:"list,omitempty"`
}

// Reply answers one Message.
type Reply struct {
	T     string `json:"t"`
	ID    int    `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}
