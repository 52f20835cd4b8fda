package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"uimock/mockapi/internal/api"
	"uimock/mockapi/internal/auth"
)

var ErrNotFound = errors.New("not found")

const (
	FixtureSubmissionList  = "submission_list"
	FixtureAlertGroup      = "alert_group"
	FixtureAlertLabels     = "alert_labels"
	FixtureAlertStatuses   = "alert_statuses"
	FixtureAlertPriorities = "alert_priorities"
)

func UserFixture(username string) string { return "get_user_" + username }

func WhoAmIFixture(role auth.Role) string { return "whoami_" + string(role) }

type Kind int

const (
	KindUserProfile Kind = iota
	KindWhoAmI
	KindSubmissionList
	KindAlertGroup
	KindAlertLabels
	KindAlertStatuses
	KindAlertPriorities
)

func (k Kind) String() string {
	switch k {
	case KindUserProfile:
		return "user_profile"
	case KindWhoAmI:
		return "whoami"
	case KindSubmissionList:
		return "submission_list"
	case KindAlertGroup:
		return "alert_group"
	case KindAlertLabels:
		return "alert_labels"
	case KindAlertStatuses:
		return "alert_statuses"
	case KindAlertPriorities:
		return "alert_priorities"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Key names a resource. Selector is the username for KindUserProfile,
// "<listType>/<listValue>" for KindSubmissionList and the group-by field for
// KindAlertGroup.
type Key struct {
	Kind     Kind
	Selector string
}

type FixtureLoader interface {
	Load(key string) (json.RawMessage, error)
}

type Config struct {
	// KnownUsers are the usernames GetUser answers for.
	KnownUsers []string
}

type Resolver struct {
	fixtures   FixtureLoader
	knownUsers []string
	log        *slog.Logger
}

func NewResolver(fixtures FixtureLoader, cfg Config, logger *slog.Logger) (*Resolver, error) {
	if fixtures == nil {
		return nil, fmt.Errorf("fixture loader is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	users := make([]string, 0, len(cfg.KnownUsers))
	for _, u := range cfg.KnownUsers {
		u = strings.TrimSpace(u)
		if u != "" && !slices.Contains(users, u) {
			users = append(users, u)
		}
	}
	slices.Sort(users)
	return &Resolver{fixtures: fixtures, knownUsers: users, log: logger}, nil
}

// RequiredFixtures lists every fixture the resolver may serve, so startup
// can fail before the first request instead of during it.
func (r *Resolver) RequiredFixtures() []string {
	keys := []string{
		WhoAmIFixture(auth.RoleAdmin),
		WhoAmIFixture(auth.RoleUser),
		FixtureSubmissionList,
		FixtureAlertGroup,
		FixtureAlertLabels,
		FixtureAlertStatuses,
		FixtureAlertPriorities,
	}
	for _, u := range r.knownUsers {
		keys = append(keys, UserFixture(u))
	}
	return keys
}

func (r *Resolver) Resolve(key Key, caller *auth.Identity) api.Result {
	switch key.Kind {
	case KindUserProfile:
		// Profiles are readable without a session.
		if !slices.Contains(r.knownUsers, key.Selector) {
			return api.Fail(http.StatusNotFound, "User not found", fmt.Errorf("%w: user %q", ErrNotFound, key.Selector))
		}
		return r.serve(UserFixture(key.Selector))
	case KindWhoAmI:
		if caller == nil {
			return auth.LoginRequired()
		}
		return r.serve(WhoAmIFixture(caller.Role))
	case KindSubmissionList:
		// Every list type and value gets the same canned list.
		r.log.Debug("submission list requested", "selector", key.Selector)
		return r.serve(FixtureSubmissionList)
	case KindAlertGroup:
		r.log.Debug("alert group requested", "group_by", key.Selector)
		return r.serve(FixtureAlertGroup)
	case KindAlertLabels:
		return r.serve(FixtureAlertLabels)
	case KindAlertStatuses:
		return r.serve(FixtureAlertStatuses)
	case KindAlertPriorities:
		return r.serve(FixtureAlertPriorities)
	}
	return api.Fail(http.StatusNotFound, "Resource not found", fmt.Errorf("%w: %s", ErrNotFound, key.Kind))
}

// Profile implements auth.ProfileSource.
func (r *Resolver) Profile(identity auth.Identity) api.Result {
	return r.Resolve(Key{Kind: KindWhoAmI}, &identity)
}

func (r *Resolver) serve(fixture string) api.Result {
	payload, err := r.fixtures.Load(fixture)
	if err != nil {
		r.log.Error("fixture unavailable", "fixture", fixture, "error", err)
		return api.Fail(http.StatusInternalServerError, "Internal server error", err)
	}
	return api.OK(payload)
}
