package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertUser records a user and refreshes their last activity time.
func (db *DB) UpsertUser(ctx context.Context, userID int64, username, firstName string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (user_id, username, first_name, last_activity)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		     username = EXCLUDED.username,
		     first_name = COALESCE(EXCLUDED.first_name, users.first_name),
		     last_activity = NOW()`,
		userID, nullIfEmpty(username), nullIfEmpty(firstName),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", userID, err)
	}
	return nil
}

// GetUser retrieves a user by chat user ID
func (db *DB) GetUser(ctx context.Context, userID int64) (*User, error) {
	var u User
	err := db.pool.QueryRow(ctx,
		`SELECT user_id, username, first_name, is_premium, cv_count, last_activity, created_at
		 FROM users WHERE user_id = $1`,
		userID,
	).Scan(&u.UserID, &u.Username, &u.FirstName, &u.IsPremium, &u.CVCount, &u.LastActivity, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &u, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
