package authority

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS duel_rooms (
	id uuid PRIMARY KEY,
	state jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

// PGStore keeps room truth in Postgres so a restarted authority resumes
// games in progress.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to dsn and ensures the schema exists.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Get(ctx context.Context, id string) (*gameRoom, error) {
	var state []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM duel_rooms WHERE id = $1`, id).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", id, err)
	}
	var g gameRoom
	if err := json.Unmarshal(state, &g); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", id, err)
	}
	return &g, nil
}

func (s *PGStore) Put(ctx context.Context, g *gameRoom) error {
	state, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", g.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO duel_rooms (id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		g.ID, state)
	if err != nil {
		return fmt.Errorf("save room %s: %w", g.ID, err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM duel_rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context) ([]*gameRoom, error) {
	rows, err := s.pool.Query(ctx, `SELECT state FROM duel_rooms`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()
	var out []*gameRoom
	for rows.Next() {
		var state []byte
		if err := rows.Scan(&state); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		var g gameRoom
		if err := json.Unmarshal(state, &g); err != nil {
			return nil, fmt.Errorf("decode room: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}
