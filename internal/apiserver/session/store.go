// Package session persists authenticated sessions for the API server.
// A session token is the value of the inkwell_session cookie; the API treats
// any request without a valid token as anonymous.
package session

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/inkwell-web/inkwell/internal/apiserver/storage"
)

const DefaultLifetime = 24 * time.Hour

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Session is an authenticated user session.
type Session struct {
	Token      string    `json:"token"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastActive time.Time `json:"last_active"`
}

// Store manages sessions in the configured database.
type Store struct {
	db       *storage.DB
	lifetime time.Duration
}

// NewStore migrates the sessions schema onto db and returns a store.
// A non-positive lifetime falls back to DefaultLifetime.
func NewStore(db *storage.DB, lifetime time.Duration) (*Store, error) {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token       ` + db.Key() + ` PRIMARY KEY,
		user_id     ` + db.Key() + ` NOT NULL,
		created_at  TEXT NOT NULL,
		expires_at  ` + db.Key() + ` NOT NULL,
		last_active TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	db.CreateIndex("idx_sessions_user", "sessions", "user_id")
	db.CreateIndex("idx_sessions_expiry", "sessions", "expires_at")

	return &Store{db: db, lifetime: lifetime}, nil
}

// Create issues a new session token for userID.
func (s *Store) Create(userID string) (*Session, error) {
	token, err := generateToken(32)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &Session{
		Token:      token,
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.lifetime),
		LastActive: now,
	}

	_, err = s.db.Exec(`INSERT INTO sessions (token, user_id, created_at, expires_at, last_active)
		VALUES (?, ?, ?, ?, ?)`,
		sess.Token,
		sess.UserID,
		sess.CreatedAt.Format(time.RFC3339Nano),
		sess.ExpiresAt.Format(time.RFC3339Nano),
		sess.LastActive.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return sess, nil
}

// Validate checks a token, rejects expired sessions, and refreshes last_active.
func (s *Store) Validate(token string) (*Session, error) {
	sess, err := s.get(token)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if now.After(sess.ExpiresAt) {
		_, _ = s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
		return nil, ErrExpired
	}

	if _, err := s.db.Exec(`UPDATE sessions SET last_active = ? WHERE token = ?`, now.Format(time.RFC3339Nano), token); err != nil {
		return nil, fmt.Errorf("update last_active: %w", err)
	}

	sess.LastActive = now
	return sess, nil
}

// Delete removes a session by token.
func (s *Store) Delete(token string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUser removes every session held by a user, e.g. when the account
// is deleted or its role changes.
func (s *Store) DeleteByUser(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete sessions by user: %w", err)
	}
	return nil
}

// Cleanup deletes expired sessions and returns the deleted row count.
func (s *Store) Cleanup() (int, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup rows affected: %w", err)
	}

	return int(n), nil
}

func (s *Store) get(token string) (*Session, error) {
	var (
		sess       Session
		createdAt  string
		expiresAt  string
		lastActive string
	)

	err := s.db.QueryRow(`SELECT token, user_id, created_at, expires_at, last_active FROM sessions WHERE token = ?`, token).Scan(
		&sess.Token, &sess.UserID, &createdAt, &expiresAt, &lastActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	if sess.LastActive, err = time.Parse(time.RFC3339Nano, lastActive); err != nil {
		return nil, fmt.Errorf("parse last_active: %w", err)
	}

	return &sess, nil
}

func generateToken(size int) (string, error) {
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
