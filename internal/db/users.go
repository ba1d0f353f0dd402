package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type CreateUserInput struct {
	Email        string
	PasswordHash string
}

func (db *DB) CreateUser(input CreateUserInput) (*User, error) {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO users (id, email, password_hash)
		VALUES (?, ?, ?)`, id, input.Email, input.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &User{
		ID:    id,
		Email: input.Email,
	}, nil
}

func (db *DB) GetUserByEmail(email string) (*User, string, error) {
	u := &User{}
	var lastSeen sql.NullTime
	var passwordHash string
	err := db.QueryRow(`
		SELECT id, email, password_hash, created_at, last_seen_at
		FROM users WHERE email = ?`, email).Scan(
		&u.ID, &u.Email, &passwordHash, &u.CreatedAt, &lastSeen)
	if err != nil {
		return nil, "", err
	}
	u.LastSeenAt = timePtr(lastSeen)
	return u, passwordHash, nil
}

func (db *DB) GetUserByID(id string) (*User, error) {
	u := &User{}
	var lastSeen sql.NullTime
	err := db.QueryRow(`
		SELECT id, email, created_at, last_seen_at
		FROM users WHERE id = ?`, id).Scan(
		&u.ID, &u.Email, &u.CreatedAt, &lastSeen)
	if err != nil {
		return nil, err
	}
	u.LastSeenAt = timePtr(lastSeen)
	return u, nil
}

// TouchLastSeen updates the user's last_seen_at timestamp.
func (db *DB) TouchLastSeen(userID string) error {
	_, err := db.Exec("UPDATE users SET last_seen_at = datetime('now') WHERE id = ?", userID)
	return err
}
