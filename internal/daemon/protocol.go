package daemon

import "time"

// Request types
const (
	ReqPing     = "ping"
	ReqStatus   = "status"
	ReqScan     = "scan"
	ReqShutdown = "shutdown"
)

// Request is the message sent from client to daemon, one JSON object per
// line.
type Request struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"` // for request/response matching
}

// Response types
const (
	RespOK     = "ok"
	RespError  = "error"
	RespPong   = "pong"
	RespStatus = "status"
)

// Response is the message sent from daemon to client
type Response struct {
	Type   string  `json:"type"`
	ID     string  `json:"id,omitempty"`
	Error  string  `json:"error,omitempty"`
	Status *Status `json:"status,omitempty"`
}

// Status is a snapshot of the running daemon.
type Status struct {
	PID       int       `json:"pid"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
	LastScan  time.Time `json:"last_scan,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Scans     int       `json:"scans"`
}
