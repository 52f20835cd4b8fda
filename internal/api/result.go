package api

import "net/http"

// Result is what every core operation hands back to the HTTP layer.
type Result struct {
	Status  int
	Body    any
	Message string
	// Err carries the underlying error for logging and audit. It is never
	// rendered to the client.
	Err error
}

// Envelope is the wire shape the front-end expects on every API route.
type Envelope struct {
	Response      any    `json:"api_response"`
	ErrorMessage  string `json:"api_error_message"`
	ServerVersion string `json:"api_server_version"`
	StatusCode    int    `json:"api_status_code"`
}

func OK(body any) Result {
	return Result{Status: http.StatusOK, Body: body}
}

func Fail(status int, message string, err error) Result {
	return Result{Status: status, Message: message, Err: err}
}

// WithBody attaches a payload to a failure, e.g. the login discovery block.
func (r Result) WithBody(body any) Result {
	r.Body = body
	return r
}

func (r Result) Succeeded() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r Result) Envelope(serverVersion string) Envelope {
	body := r.Body
	if body == nil {
		body = struct{}{}
	}
	return Envelope{
		Response:      body,
		ErrorMessage:  r.Message,
		ServerVersion: serverVersion,
		StatusCode:    r.Status,
	}
}

// Success is the body returned by login and logout.
var Success = map[string]bool{"success": true}
