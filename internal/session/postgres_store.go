package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"auth-gateway/internal/db"
)

// PostgresStore persists sessions in the sessions table. Row-level atomicity
// of single-statement upserts and deletes is all the locking it needs.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context) (*Session, error) {
	s, err := New()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(s.Data)
	if err != nil {
		return nil, fmt.Errorf("session: failed to marshal data: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO sessions (id, data, expires_at, last_activity)
		VALUES ($1, $2, $3, $4)
	`, s.ID, data, s.ExpiresAt, s.LastActivity)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	s := &Session{ID: id}

	var data []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT data, expires_at, last_activity
		FROM sessions
		WHERE id = $1 AND expires_at > NOW()
	`, id).Scan(&data, &s.ExpiresAt, &s.LastActivity)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &s.Data); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal data: %w", err)
	}

	return s, nil
}

func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	s.Touch()

	data, err := json.Marshal(s.Data)
	if err != nil {
		return fmt.Errorf("session: failed to marshal data: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO sessions (id, data, expires_at, last_activity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at,
			last_activity = EXCLUDED.last_activity
	`, s.ID, data, s.ExpiresAt, s.LastActivity)

	return err
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE id = $1
	`, id)
	return err
}

func (p *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := p.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}
