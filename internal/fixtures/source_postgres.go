package fixtures

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresSource reads fixtures from the mock_fixtures table.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) (*PostgresSource, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &PostgresSource{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresSource) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS mock_fixtures (
	key TEXT PRIMARY KEY,
	payload JSONB NOT NULL
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure mock_fixtures schema: %w", err)
	}
	return nil
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Fetch(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, payload FROM mock_fixtures`)
	if err != nil {
		return nil, fmt.Errorf("query fixtures: %w", err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan fixture: %w", err)
		}
		out[key] = json.RawMessage(payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixtures: %w", err)
	}
	return out, nil
}

// Put upserts a fixture. It is used for seeding; the server itself never
// writes fixtures.
func (s *PostgresSource) Put(ctx context.Context, key string, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("fixture %q is not valid JSON", key)
	}
	const q = `
INSERT INTO mock_fixtures (key, payload)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload`
	if _, err := s.db.ExecContext(ctx, q, key, []byte(payload)); err != nil {
		return fmt.Errorf("upsert fixture: %w", err)
	}
	return nil
}
