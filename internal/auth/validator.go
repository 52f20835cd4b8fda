package auth

import (
	"crypto/subtle"
	"fmt"
	"maps"
	"strings"

	"github.com/pquerna/otp/totp"
)

type OutcomeKind int

const (
	OutcomeRejected OutcomeKind = iota
	OutcomeBadOTP
	OutcomeAccepted
)

type Outcome struct {
	Kind     OutcomeKind
	Identity Identity
	Err      error
}

// Validator decides whether a credential matches one of the configured
// accounts. It holds no mutable state.
type Validator struct {
	accounts map[string]Account
}

func NewValidator(accounts []Account) (*Validator, error) {
	if len(accounts) == 0 {
		return nil, fmt.Errorf("at least one account is required")
	}
	byName := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		a.Username = strings.TrimSpace(a.Username)
		if a.Username == "" {
			return nil, fmt.Errorf("account username is required")
		}
		if a.Password == "" {
			return nil, fmt.Errorf("account %q: password is required", a.Username)
		}
		if !a.Role.Valid() {
			return nil, fmt.Errorf("account %q: unknown role %q", a.Username, a.Role)
		}
		if a.OTP != "" && a.TOTPSecret != "" {
			return nil, fmt.Errorf("account %q: otp and totp_secret are mutually exclusive", a.Username)
		}
		if _, dup := byName[a.Username]; dup {
			return nil, fmt.Errorf("account %q configured twice", a.Username)
		}
		byName[a.Username] = a
	}
	return &Validator{accounts: byName}, nil
}

func (v *Validator) Validate(cred Credential) Outcome {
	a, ok := v.accounts[cred.Username]
	if !ok || !constantTimeEqual(cred.Password, a.Password) {
		return Outcome{Kind: OutcomeRejected, Err: ErrBadCredentials}
	}
	if a.RequiresOTP() && !a.checkOTP(cred.OTP) {
		return Outcome{Kind: OutcomeBadOTP, Err: ErrBadOTP}
	}
	return Outcome{
		Kind: OutcomeAccepted,
		Identity: Identity{
			Username: a.Username,
			Role:     a.Role,
			Profile:  maps.Clone(a.Profile),
		},
	}
}

// Usernames lists the configured accounts.
func (v *Validator) Usernames() []string {
	out := make([]string, 0, len(v.accounts))
	for name := range v.accounts {
		out = append(out, name)
	}
	return out
}

func (a Account) checkOTP(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	if a.TOTPSecret != "" {
		return totp.Validate(code, a.TOTPSecret)
	}
	return constantTimeEqual(code, a.OTP)
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
