package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type staticSource map[string]json.RawMessage

func (s staticSource) Name() string { return "static" }

func (s staticSource) Fetch(context.Context) (map[string]json.RawMessage, error) {
	return s, nil
}

func TestStoreLoadMissing(t *testing.T) {
	store, err := NewStore(map[string]json.RawMessage{"whoami_admin": json.RawMessage(`{"uname":"admin"}`)})
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	if _, err := store.Load("whoami_admin"); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	_, err = store.Load("whoami_ghost")
	if !errors.Is(err, ErrMissingFixture) {
		t.Fatalf("expected ErrMissingFixture, got %v", err)
	}
}

func TestNewStoreRejectsInvalidJSON(t *testing.T) {
	_, err := NewStore(map[string]json.RawMessage{"broken": json.RawMessage(`{"uname":`)})
	if err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestRequireListsAllMissingKeys(t *testing.T) {
	store, err := NewStore(map[string]json.RawMessage{"a": json.RawMessage(`{}`)})
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	err = store.Require("a", "c", "b")
	if !errors.Is(err, ErrMissingFixture) {
		t.Fatalf("expected ErrMissingFixture, got %v", err)
	}
	if !strings.Contains(err.Error(), "b, c") {
		t.Fatalf("expected sorted missing keys in error, got %q", err.Error())
	}
	if err := store.Require("a"); err != nil {
		t.Fatalf("Require() error: %v", err)
	}
}

func TestLoadLaterSourceOverrides(t *testing.T) {
	store, err := Load(context.Background(),
		staticSource{"alert_labels": json.RawMessage(`{"A":1}`), "alert_statuses": json.RawMessage(`{}`)},
		nil,
		staticSource{"alert_labels": json.RawMessage(`{"B":2}`)},
	)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	got, err := store.Load("alert_labels")
	if err != nil {
		t.Fatalf("store.Load() error: %v", err)
	}
	if string(got) != `{"B":2}` {
		t.Fatalf("expected override payload, got %s", got)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 fixtures, got %d", store.Len())
	}
}

func TestDefaultsContainsBuiltInFixtures(t *testing.T) {
	store, err := Load(context.Background(), Defaults())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := []string{
		"alert_group", "alert_labels", "alert_priorities", "alert_statuses",
		"get_user_admin", "get_user_user", "submission_list", "whoami_admin", "whoami_user",
	}
	if err := store.Require(want...); err != nil {
		t.Fatalf("Require() error: %v", err)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "whoami_user.json"), []byte(`{"uname":"custom"}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	store, err := Load(context.Background(), Defaults(), Dir(dir))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	got, err := store.Load("whoami_user")
	if err != nil {
		t.Fatalf("store.Load() error: %v", err)
	}
	if string(got) != `{"uname":"custom"}` {
		t.Fatalf("expected directory fixture to override default, got %s", got)
	}
	if _, err := store.Load("notes"); !errors.Is(err, ErrMissingFixture) {
		t.Fatalf("expected non-json file to be skipped, got %v", err)
	}
}

func TestDirSourceInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alert_labels.json"), []byte(`{"A":`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(context.Background(), Dir(dir)); err == nil {
		t.Fatalf("expected error for invalid fixture file")
	}
}

func TestDirSourceMissingDirectory(t *testing.T) {
	_, err := Load(context.Background(), Dir(filepath.Join(t.TempDir(), "missing")))
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
