package auth

import (
	"errors"
	"fmt"
	"net/http"

	"uimock/mockapi/internal/api"
)

var (
	ErrBadCredentials   = errors.New("bad credentials")
	ErrBadOTP           = errors.New("bad otp")
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("forbidden")
)

const (
	MsgBadCredentials = "Bad username/password"
	MsgBadOTP         = "Wrong OTP token"
	MsgNotLoggedIn    = "Are you even logged in?"
	MsgLoginFirst     = "You must login first"
	MsgForbidden      = "Forbidden"
)

// ProfileSource renders the whoami payload for an authenticated identity.
type ProfileSource interface {
	Profile(identity Identity) api.Result
}

// Service drives the login protocol: Anonymous -> Authenticated(role) on a
// successful login, back to Anonymous on logout.
type Service struct {
	validator *Validator
	sessions  *SessionStore
	profiles  ProfileSource
}

func NewService(validator *Validator, sessions *SessionStore, profiles ProfileSource) (*Service, error) {
	if validator == nil {
		return nil, fmt.Errorf("credential validator is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile source is required")
	}
	return &Service{
		validator: validator,
		sessions:  sessions,
		profiles:  profiles,
	}, nil
}

type LoginResult struct {
	api.Result
	// SessionID is set only on success; the caller binds it to its channel.
	SessionID string
	Identity  Identity
	// Replaced is the session id destroyed by a re-login, if any.
	Replaced string
}

// Login validates cred and opens a session. A failed attempt leaves any
// session the caller already holds untouched; a successful one replaces it.
func (s *Service) Login(cred Credential, currentSessionID string) LoginResult {
	outcome := s.validator.Validate(cred)
	switch outcome.Kind {
	case OutcomeAccepted:
	case OutcomeBadOTP:
		return LoginResult{Result: api.Fail(http.StatusUnauthorized, MsgBadOTP, outcome.Err)}
	default:
		return LoginResult{Result: api.Fail(http.StatusUnauthorized, MsgBadCredentials, outcome.Err)}
	}

	id, err := s.sessions.Create(outcome.Identity)
	if err != nil {
		return LoginResult{Result: api.Fail(http.StatusInternalServerError, "Internal server error", err)}
	}

	res := LoginResult{
		Result:    api.OK(api.Success),
		SessionID: id,
		Identity:  outcome.Identity,
	}
	if currentSessionID != "" && s.sessions.Destroy(currentSessionID) == nil {
		res.Replaced = currentSessionID
	}
	return res
}

func (s *Service) Logout(sessionID string) api.Result {
	if sessionID == "" {
		return api.Fail(http.StatusBadRequest, MsgNotLoggedIn, ErrNotLoggedIn)
	}
	if err := s.sessions.Destroy(sessionID); err != nil {
		return api.Fail(http.StatusBadRequest, MsgNotLoggedIn, err)
	}
	return api.OK(api.Success)
}

func (s *Service) WhoAmI(sessionID string) api.Result {
	identity, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return LoginRequired()
	}
	return s.profiles.Profile(identity)
}

// Identify returns the identity bound to sessionID, if any.
func (s *Service) Identify(sessionID string) (Identity, bool) {
	return s.sessions.Lookup(sessionID)
}

// ListSessions is restricted to admin sessions.
func (s *Service) ListSessions(sessionID string) api.Result {
	identity, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return LoginRequired()
	}
	if identity.Role != RoleAdmin {
		return api.Fail(http.StatusForbidden, MsgForbidden, ErrForbidden)
	}

	sessions := s.sessions.List()
	views := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, SessionView{
			ID:        sess.ID,
			Username:  sess.Identity.Username,
			Role:      sess.Identity.Role,
			CreatedAt: sess.CreatedAt,
		})
	}
	return api.OK(map[string]any{"items": views, "total": len(views)})
}
