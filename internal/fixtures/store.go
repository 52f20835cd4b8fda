package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrMissingFixture = errors.New("missing fixture")

// Source yields fixture payloads keyed by name.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (map[string]json.RawMessage, error)
}

// Store is an immutable set of fixture payloads. It is safe for concurrent
// use because nothing writes to it after construction.
type Store struct {
	payloads map[string]json.RawMessage
}

func NewStore(payloads map[string]json.RawMessage) (*Store, error) {
	out := make(map[string]json.RawMessage, len(payloads))
	for key, payload := range payloads {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("fixture key must not be empty")
		}
		if !json.Valid(payload) {
			return nil, fmt.Errorf("fixture %q is not valid JSON", key)
		}
		out[key] = append(json.RawMessage(nil), payload...)
	}
	return &Store{payloads: out}, nil
}

// Load fetches every source in order and merges the results. A key present
// in a later source replaces the earlier payload.
func Load(ctx context.Context, sources ...Source) (*Store, error) {
	merged := make(map[string]json.RawMessage)
	for _, src := range sources {
		if src == nil {
			continue
		}
		payloads, err := src.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("load fixtures from %s: %w", src.Name(), err)
		}
		for key, payload := range payloads {
			merged[key] = payload
		}
	}
	return NewStore(merged)
}

func (s *Store) Load(key string) (json.RawMessage, error) {
	payload, ok := s.payloads[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingFixture, key)
	}
	return payload, nil
}

// Require reports every key that is not configured, not just the first.
func (s *Store) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if _, ok := s.payloads[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingFixture, strings.Join(missing, ", "))
}

func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.payloads))
	for key := range s.payloads {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Len() int {
	return len(s.payloads)
}
