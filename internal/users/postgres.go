package users

import (
	"context"
	"database/sql"

	"auth-gateway/internal/db"

	"github.com/google/uuid"
)

// PostgresStore is the canonical user store.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	u := &User{}
	err = p.db.QueryRowContext(ctx, `
		SELECT id, username, COALESCE(github_id, 0)
		FROM users
		WHERE id = $1
	`, userID).Scan(&u.ID, &u.Username, &u.GithubID)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return u, nil
}

// FindOrCreateByGithubID relies on the unique index on github_id: the
// upsert makes concurrent first logins for the same account converge on a
// single row.
func (p *PostgresStore) FindOrCreateByGithubID(
	ctx context.Context,
	githubID int64,
	username string,
) (*User, error) {

	u := &User{GithubID: githubID}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO users (username, github_id)
		VALUES ($1, $2)
		ON CONFLICT (github_id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username
	`, username, githubID).Scan(&u.ID, &u.Username)

	if err != nil {
		return nil, err
	}

	return u, nil
}
