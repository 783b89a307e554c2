// Package tools exposes the charging, transit and traffic services as MCP
// tools.
package tools

// Status is the outcome of a tool call.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNoResult Status = "no_result"
	StatusError    Status = "error"
)

// Envelope is the JSON body of every tool result. A no_result envelope may
// carry partial data, such as a route up to the point it got stuck.
type Envelope struct {
	Status Status     `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes why a call failed or found nothing. Recoverable tells
// the agent whether retrying with different arguments can help.
type ErrorBody struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
	Guidance    string `json:"guidance,omitempty"`
}
