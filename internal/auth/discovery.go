package auth

import (
	"net/http"

	"uimock/mockapi/internal/api"
)

// Discovery tells an anonymous front-end which login options to render.
type Discovery struct {
	OAuthProviders     []string `json:"oauth_providers"`
	AllowUserPassLogin bool     `json:"allow_userpass_login"`
	AllowSignup        bool     `json:"allow_signup"`
	AllowPWReset       bool     `json:"allow_pw_reset"`
}

func LoginDiscovery() Discovery {
	return Discovery{
		OAuthProviders:     []string{},
		AllowUserPassLogin: true,
	}
}

// LoginRequired is the 401 returned to callers without a session.
func LoginRequired() api.Result {
	return api.Fail(http.StatusUnauthorized, MsgLoginFirst, ErrNotAuthenticated).WithBody(LoginDiscovery())
}
