// Package ipc carries CLI commands to the running daemon over a unix socket.
// Each connection exchanges one newline-delimited JSON request and response.
package ipc

// Commands understood by the daemon.
const (
	CommandToggle = "toggle"
	CommandCancel = "cancel"
	CommandStatus = "status"
)

// Request asks the daemon to perform Command. PostProcess selects the refining
// binding for toggle.
type Request struct {
	Command     string `json:"command"`
	PostProcess bool   `json:"post_process,omitempty"`
}

// Response reports the outcome and the daemon state after the command was queued.
type Response struct {
	OK    bool   `json:"ok"`
	Stage string `json:"stage,omitempty"`
	Tray  string `json:"tray,omitempty"`
	Error string `json:"error,omitempty"`
}

// Failure builds an error response.
func Failure(msg string) Response {
	return Response{OK: false, Error: msg}
}
