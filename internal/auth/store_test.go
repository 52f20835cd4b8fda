package auth

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	id, err := store.Create(Identity{Username: "user", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected non-empty session id")
	}

	identity, ok := store.Lookup(id)
	if !ok || identity.Username != "user" {
		t.Fatalf("Lookup() = %+v, %v", identity, ok)
	}

	if err := store.Destroy(id); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}
	if _, ok := store.Lookup(id); ok {
		t.Fatalf("expected session to be gone after Destroy")
	}
	if err := store.Destroy(id); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn on second Destroy, got %v", err)
	}
}

func TestSessionStoreRejectsInvalidIdentity(t *testing.T) {
	store := NewSessionStore()

	for _, identity := range []Identity{{}, {Username: "x"}, {Role: RoleAdmin}, {Username: "x", Role: "root"}} {
		if _, err := store.Create(identity); err == nil {
			t.Fatalf("expected error creating session for %+v", identity)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d sessions", store.Len())
	}
}

func TestSessionStoreLookupEmptyID(t *testing.T) {
	store := NewSessionStore()
	if _, ok := store.Lookup(""); ok {
		t.Fatalf("expected empty id to be absent")
	}
}

func TestSessionStoreListOrdered(t *testing.T) {
	store := NewSessionStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.nowFunc = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first, _ := store.Create(Identity{Username: "admin", Role: RoleAdmin})
	second, _ := store.Create(Identity{Username: "user", Role: RoleUser})

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].ID != first || list[1].ID != second {
		t.Fatalf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}
}

func TestSessionStoreConcurrentAccess(t *testing.T) {
	store := NewSessionStore()
	const n = 64

	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.Create(Identity{Username: "user", Role: RoleUser})
			if err != nil {
				t.Errorf("Create() error: %v", err)
				return
			}
			ids[i] = id
			if _, ok := store.Lookup(id); !ok {
				t.Errorf("Lookup(%s) missing right after Create", id)
			}
			if i%2 == 0 {
				if err := store.Destroy(id); err != nil {
					t.Errorf("Destroy() error: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != n/2 {
		t.Fatalf("expected %d sessions, got %d", n/2, store.Len())
	}
}
