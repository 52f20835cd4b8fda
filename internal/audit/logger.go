package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	ActionLogin        = "auth.login"
	ActionLogout       = "auth.logout"
	ActionListSessions = "auth.sessions"

	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Event is one JSON line in the audit log. SessionID is the server-side
// session id, never the signed cookie value.
type Event struct {
	At        string `json:"at"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Outcome   string `json:"outcome"`
	Status    int    `json:"status"`
	SessionID string `json:"sid,omitempty"`
	RequestID string `json:"rid,omitempty"`
	RemoteIP  string `json:"ip,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

type Logger struct {
	path    string
	nowFunc func() time.Time
	mu      sync.Mutex
}

// NewLogger returns a logger appending to path. An empty path disables it.
func NewLogger(path string) *Logger {
	return &Logger{path: path, nowFunc: time.Now}
}

func (l *Logger) Enabled() bool {
	return l != nil && l.path != ""
}

func (l *Logger) Record(e Event) error {
	if !l.Enabled() {
		return nil
	}
	if e.At == "" {
		e.At = l.nowFunc().UTC().Format(time.RFC3339)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("mkdir audit log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write audit log entry: %w", err)
	}
	return nil
}
