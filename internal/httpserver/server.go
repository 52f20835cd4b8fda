package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"uimock/mockapi/internal/api"
	"uimock/mockapi/internal/audit"
	"uimock/mockapi/internal/auth"
	"uimock/mockapi/internal/config"
	"uimock/mockapi/internal/resource"
)

type AuthService interface {
	Login(cred auth.Credential, currentSessionID string) auth.LoginResult
	Logout(sessionID string) api.Result
	WhoAmI(sessionID string) api.Result
	ListSessions(sessionID string) api.Result
	Identify(sessionID string) (auth.Identity, bool)
}

type ResourceResolver interface {
	Resolve(key resource.Key, caller *auth.Identity) api.Result
}

type AuditLogger interface {
	Record(e audit.Event) error
}

type Deps struct {
	Auth          AuthService
	Resources     ResourceResolver
	Audit         AuditLogger
	Cookies       *SessionCookies
	Logger        *slog.Logger
	ServerVersion string
	// Latency delays every /api response; zero disables it.
	Latency            time.Duration
	CORSAllowedOrigins []string
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	deps.Latency = cfg.Latency
	deps.CORSAllowedOrigins = cfg.CORSAllowedOrigins

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewHandler(deps),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if len(deps.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id", "X-XSRF-TOKEN"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api/v4", func(r chi.Router) {
		r.Use(latencyMiddleware(deps.Latency))
		registerAuthHandlers(r, deps)
		registerResourceHandlers(r, deps)
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeResult(w, deps, api.Fail(http.StatusNotFound, "Not found", nil))
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeResult(w, deps, api.Fail(http.StatusMethodNotAllowed, "Method not allowed", nil))
		})
	})

	return r
}

func registerAuthHandlers(r chi.Router, deps Deps) {
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, deps) {
			return
		}
		cred, err := decodeCredential(r)
		if err != nil {
			writeResult(w, deps, api.Fail(http.StatusBadRequest, "Invalid request body", err))
			return
		}
		if cred.Username == "" || cred.Password == "" {
			writeResult(w, deps, api.Fail(http.StatusBadRequest, "Missing username or password", nil))
			return
		}

		res := deps.Auth.Login(cred, deps.Cookies.Read(r))
		if res.SessionID != "" {
			if err := deps.Cookies.Write(w, res.SessionID); err != nil {
				// The caller can never present this session; drop it.
				deps.Auth.Logout(res.SessionID)
				writeResult(w, deps, api.Fail(http.StatusInternalServerError, "Internal server error", err))
				return
			}
		}
		auditReq(deps, r, cred.Username, audit.ActionLogin, res.Result, res.SessionID)
		writeResult(w, deps, res.Result)
	})

	logout := func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, deps) {
			return
		}
		sessionID := deps.Cookies.Read(r)
		identity, _ := deps.Auth.Identify(sessionID)
		res := deps.Auth.Logout(sessionID)
		if res.Succeeded() {
			deps.Cookies.Clear(w)
		}
		auditReq(deps, r, identity.Username, audit.ActionLogout, res, sessionID)
		writeResult(w, deps, res)
	}
	r.Get("/auth/logout", logout)
	r.Post("/auth/logout", logout)

	r.Get("/auth/sessions", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, deps) {
			return
		}
		sessionID := deps.Cookies.Read(r)
		identity, _ := deps.Auth.Identify(sessionID)
		res := deps.Auth.ListSessions(sessionID)
		auditReq(deps, r, identity.Username, audit.ActionListSessions, res, sessionID)
		writeResult(w, deps, res)
	})

	r.Get("/user/whoami", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, deps) {
			return
		}
		writeResult(w, deps, deps.Auth.WhoAmI(deps.Cookies.Read(r)))
	})
}

func registerResourceHandlers(r chi.Router, deps Deps) {
	resolve := func(w http.ResponseWriter, r *http.Request, key resource.Key) {
		if deps.Resources == nil {
			writeResult(w, deps, api.Fail(http.StatusServiceUnavailable, "Resource service unavailable", nil))
			return
		}
		var caller *auth.Identity
		if deps.Auth != nil && deps.Cookies != nil {
			if identity, ok := deps.Auth.Identify(deps.Cookies.Read(r)); ok {
				caller = &identity
			}
		}
		writeResult(w, deps, deps.Resources.Resolve(key, caller))
	}

	r.Get("/user/{username}", func(w http.ResponseWriter, r *http.Request) {
		resolve(w, r, resource.Key{Kind: resource.KindUserProfile, Selector: chi.URLParam(r, "username")})
	})
	r.Get("/submission/list/{listType}/{listValue}", func(w http.ResponseWriter, r *http.Request) {
		selector := chi.URLParam(r, "listType") + "/" + chi.URLParam(r, "listValue")
		resolve(w, r, resource.Key{Kind: resource.KindSubmissionList, Selector: selector})
	})
	r.Get("/alert/grouped/{groupBy}", func(w http.ResponseWriter, r *http.Request) {
		resolve(w, r, resource.Key{Kind: resource.KindAlertGroup, Selector: chi.URLParam(r, "groupBy")})
	})
	r.Get("/alert/labels", func(w http.ResponseWriter, r *http.Request) {
		resolve(w, r, resource.Key{Kind: resource.KindAlertLabels})
	})
	r.Get("/alert/statuses", func(w http.ResponseWriter, r *http.Request) {
		resolve(w, r, resource.Key{Kind: resource.KindAlertStatuses})
	})
	r.Get("/alert/priorities", func(w http.ResponseWriter, r *http.Request) {
		resolve(w, r, resource.Key{Kind: resource.KindAlertPriorities})
	})
}

// decodeCredential accepts the JSON body the UI sends as well as a plain
// form post.
func decodeCredential(r *http.Request) (auth.Credential, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return auth.Credential{}, err
		}
		return auth.Credential{
			Username: strings.TrimSpace(r.PostFormValue("user")),
			Password: r.PostFormValue("password"),
			OTP:      strings.TrimSpace(r.PostFormValue("otp")),
		}, nil
	}

	var req struct {
		User     string `json:"user"`
		Password string `json:"password"`
		OTP      string `json:"otp"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		return auth.Credential{}, err
	}
	return auth.Credential{
		Username: strings.TrimSpace(req.User),
		Password: req.Password,
		OTP:      strings.TrimSpace(req.OTP),
	}, nil
}

func requireAuth(w http.ResponseWriter, deps Deps) bool {
	if deps.Auth == nil || deps.Cookies == nil {
		writeResult(w, deps, api.Fail(http.StatusServiceUnavailable, "Auth service unavailable", nil))
		return false
	}
	return true
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeResult(w http.ResponseWriter, deps Deps, res api.Result) {
	if res.Status >= http.StatusInternalServerError && deps.Logger != nil {
		deps.Logger.Error("request failed", "status", res.Status, "error", res.Err)
	}
	writeJSON(w, res.Status, res.Envelope(deps.ServerVersion))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func auditReq(deps Deps, r *http.Request, actor, action string, res api.Result, sessionID string) {
	if deps.Audit == nil {
		return
	}
	e := audit.Event{
		Actor:     actor,
		Action:    action,
		Outcome:   audit.OutcomeSuccess,
		Status:    res.Status,
		SessionID: sessionID,
		RequestID: requestIDFromContext(r.Context()),
		RemoteIP:  clientIP(r),
	}
	if !res.Succeeded() {
		e.Outcome = audit.OutcomeFailed
		e.Detail = res.Message
	}
	if err := deps.Audit.Record(e); err != nil && deps.Logger != nil {
		deps.Logger.Warn("audit record failed", "action", action, "error", err)
	}
}
