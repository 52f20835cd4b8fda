package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
)

// SessionCookies binds server-side session ids to the browser. The cookie
// value is the id signed with an HMAC key, so a forged or edited cookie
// reads as "no session".
type SessionCookies struct {
	name   string
	secure bool
	sc     *securecookie.SecureCookie
}

// NewSessionCookies signs with hashKey, or with a random per-process key
// when hashKey is empty.
func NewSessionCookies(name string, hashKey []byte, secure bool) (*SessionCookies, error) {
	if name == "" {
		return nil, fmt.Errorf("cookie name is required")
	}
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
		if hashKey == nil {
			return nil, fmt.Errorf("generate cookie hash key")
		}
	}
	sc := securecookie.New(hashKey, nil)
	sc.SetSerializer(securecookie.JSONEncoder{})
	// Sessions have no expiry, so neither does the signature.
	sc.MaxAge(0)

	return &SessionCookies{name: name, secure: secure, sc: sc}, nil
}

func (c *SessionCookies) Name() string { return c.name }

// Read returns the session id carried by r, or "" when there is none.
func (c *SessionCookies) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	var id string
	if err := c.sc.Decode(c.name, cookie.Value, &id); err != nil {
		return ""
	}
	return id
}

func (c *SessionCookies) Write(w http.ResponseWriter, sessionID string) error {
	value, err := c.sc.Encode(c.name, sessionID)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
