package auth

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Credential is what a caller presents at login. It is never stored.
type Credential struct {
	Username string
	Password string
	OTP      string
}

// Account is a configured login. OTP and TOTPSecret are mutually exclusive;
// when both are empty the account logs in with username and password only.
type Account struct {
	Username   string         `toml:"username"`
	Password   string         `toml:"password"`
	Role       Role           `toml:"role"`
	OTP        string         `toml:"otp"`
	TOTPSecret string         `toml:"totp_secret"`
	Profile    map[string]any `toml:"profile"`
}

func (a Account) RequiresOTP() bool {
	return a.OTP != "" || a.TOTPSecret != ""
}

type Identity struct {
	Username string         `json:"username"`
	Role     Role           `json:"role"`
	Profile  map[string]any `json:"profile,omitempty"`
}

func (i Identity) Valid() bool {
	return i.Username != "" && i.Role.Valid()
}

type Session struct {
	ID        string
	Identity  Identity
	CreatedAt time.Time
}

type SessionView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
