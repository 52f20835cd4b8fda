package resource

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"uimock/mockapi/internal/auth"
	"uimock/mockapi/internal/fixtures"
)

func newTestResolver(t *testing.T, payloads map[string]json.RawMessage) *Resolver {
	t.Helper()
	if payloads == nil {
		payloads = map[string]json.RawMessage{
			"get_user_admin":   json.RawMessage(`{"uname":"admin"}`),
			"get_user_user":    json.RawMessage(`{"uname":"user"}`),
			"whoami_admin":     json.RawMessage(`{"uname":"admin","is_admin":true}`),
			"whoami_user":      json.RawMessage(`{"uname":"user","is_admin":false}`),
			"submission_list":  json.RawMessage(`{"items":[],"total":0}`),
			"alert_group":      json.RawMessage(`{"items":[]}`),
			"alert_labels":     json.RawMessage(`{"PHISHING":1}`),
			"alert_statuses":   json.RawMessage(`{"TRIAGE":1}`),
			"alert_priorities": json.RawMessage(`{"HIGH":1}`),
		}
	}
	store, err := fixtures.NewStore(payloads)
	if err != nil {
		t.Fatalf("fixtures.NewStore() error: %v", err)
	}
	r, err := NewResolver(store, Config{KnownUsers: []string{"user", "admin", " ", "admin"}}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewResolver() error: %v", err)
	}
	return r
}

func payloadString(t *testing.T, body any) string {
	t.Helper()
	raw, ok := body.(json.RawMessage)
	if !ok {
		t.Fatalf("expected json.RawMessage body, got %T", body)
	}
	return string(raw)
}

func TestResolveUserProfile(t *testing.T) {
	r := newTestResolver(t, nil)

	for _, name := range []string{"admin", "user"} {
		res := r.Resolve(Key{Kind: KindUserProfile, Selector: name}, nil)
		if res.Status != http.StatusOK {
			t.Fatalf("GetUser(%s): expected 200, got %+v", name, res)
		}
		if got := payloadString(t, res.Body); got != `{"uname":"`+name+`"}` {
			t.Fatalf("GetUser(%s): unexpected payload %s", name, got)
		}
	}

	res := r.Resolve(Key{Kind: KindUserProfile, Selector: "ghost"}, nil)
	if res.Status != http.StatusNotFound || res.Message != "User not found" {
		t.Fatalf("expected 404 User not found, got %+v", res)
	}
	if !errors.Is(res.Err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", res.Err)
	}
}

func TestResolveWhoAmIByRole(t *testing.T) {
	r := newTestResolver(t, nil)

	admin := r.Resolve(Key{Kind: KindWhoAmI}, &auth.Identity{Username: "admin", Role: auth.RoleAdmin})
	if got := payloadString(t, admin.Body); got != `{"uname":"admin","is_admin":true}` {
		t.Fatalf("unexpected admin payload %s", got)
	}
	user := r.Profile(auth.Identity{Username: "user", Role: auth.RoleUser})
	if got := payloadString(t, user.Body); got != `{"uname":"user","is_admin":false}` {
		t.Fatalf("unexpected user payload %s", got)
	}
}

func TestResolveWhoAmIAnonymous(t *testing.T) {
	r := newTestResolver(t, nil)

	res := r.Resolve(Key{Kind: KindWhoAmI}, nil)
	if res.Status != http.StatusUnauthorized || res.Message != auth.MsgLoginFirst {
		t.Fatalf("expected 401 login first, got %+v", res)
	}
	if diff := cmp.Diff(auth.LoginDiscovery(), res.Body); diff != "" {
		t.Fatalf("discovery mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveStaticResourcesIgnoreSelectors(t *testing.T) {
	r := newTestResolver(t, nil)

	cases := []struct {
		key  Key
		want string
	}{
		{Key{Kind: KindSubmissionList, Selector: "user/admin"}, `{"items":[],"total":0}`},
		{Key{Kind: KindSubmissionList, Selector: "group/USERS"}, `{"items":[],"total":0}`},
		{Key{Kind: KindAlertGroup, Selector: "file.sha256"}, `{"items":[]}`},
		{Key{Kind: KindAlertLabels}, `{"PHISHING":1}`},
		{Key{Kind: KindAlertStatuses}, `{"TRIAGE":1}`},
		{Key{Kind: KindAlertPriorities}, `{"HIGH":1}`},
	}
	for _, tc := range cases {
		res := r.Resolve(tc.key, nil)
		if res.Status != http.StatusOK {
			t.Fatalf("%s: expected 200, got %+v", tc.key.Kind, res)
		}
		if got := payloadString(t, res.Body); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.key.Kind, got, tc.want)
		}
	}
}

func TestResolveMissingFixtureIsServerError(t *testing.T) {
	r := newTestResolver(t, map[string]json.RawMessage{"whoami_admin": json.RawMessage(`{}`)})

	res := r.Resolve(Key{Kind: KindAlertLabels}, nil)
	if res.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %+v", res)
	}
	if !errors.Is(res.Err, fixtures.ErrMissingFixture) {
		t.Fatalf("expected ErrMissingFixture, got %v", res.Err)
	}
}

func TestRequiredFixtures(t *testing.T) {
	r := newTestResolver(t, nil)

	want := []string{
		"whoami_admin", "whoami_user", "submission_list", "alert_group",
		"alert_labels", "alert_statuses", "alert_priorities",
		"get_user_admin", "get_user_user",
	}
	if diff := cmp.Diff(want, r.RequiredFixtures()); diff != "" {
		t.Fatalf("required fixtures mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownKind(t *testing.T) {
	r := newTestResolver(t, nil)
	if res := r.Resolve(Key{Kind: Kind(99)}, nil); res.Status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown kind, got %d", res.Status)
	}
}

func TestNewResolverRequiresLoader(t *testing.T) {
	if _, err := NewResolver(nil, Config{}, nil); err == nil {
		t.Fatalf("expected error without fixture loader")
	}
}
