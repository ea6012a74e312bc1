// Package roles persists the role catalog. The three built-in roles are
// seeded at startup and cannot be renamed or deleted.
package roles

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-web/inkwell/internal/apiserver/storage"
)

var (
	ErrNotFound  = errors.New("role not found")
	ErrNameTaken = errors.New("role name already exists")
	ErrBuiltIn   = errors.New("built-in role cannot be modified")
)

// Role is a named permission group.
type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BuiltIn   bool      `json:"builtIn"`
	CreatedAt time.Time `json:"createdAt"`
}

// BuiltInNames lists the roles seeded on startup.
var BuiltInNames = []string{"Administrator", "Moderator", "User"}

// Store manages roles in the configured database.
type Store struct {
	db *storage.DB
}

// NewStore migrates the roles schema, seeds the built-in roles and returns
// a store. Seeding is idempotent.
func NewStore(db *storage.DB) (*Store, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS roles (
		id         ` + db.Key() + ` PRIMARY KEY,
		name       ` + db.Key() + ` NOT NULL UNIQUE,
		built_in   INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create roles table: %w", err)
	}

	s := &Store{db: db}
	for _, name := range BuiltInNames {
		if err := s.seed(name); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) seed(name string) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM roles WHERE name = ?`, name).Scan(&count); err != nil {
		return fmt.Errorf("check role %s: %w", name, err)
	}
	if count > 0 {
		return nil
	}

	_, err := s.db.Exec(`INSERT INTO roles (id, name, built_in, created_at) VALUES (?, ?, 1, ?)`,
		uuid.NewString(), name, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("seed role %s: %w", name, err)
	}
	return nil
}

// Create adds a custom role.
func (s *Store) Create(name string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("role name required")
	}

	r := &Role{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`INSERT INTO roles (id, name, built_in, created_at) VALUES (?, ?, 0, ?)`,
		r.ID, r.Name, r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if s.db.IsUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("create role: %w", err)
	}

	return r, nil
}

// Get fetches a role by ID.
func (s *Store) Get(id string) (*Role, error) {
	return scanRole(s.db.QueryRow(`SELECT id, name, built_in, created_at FROM roles WHERE id = ?`, id))
}

// GetByName fetches a role by name.
func (s *Store) GetByName(name string) (*Role, error) {
	return scanRole(s.db.QueryRow(`SELECT id, name, built_in, created_at FROM roles WHERE name = ?`, name))
}

// List returns all roles, built-ins first.
func (s *Store) List() ([]Role, error) {
	rows, err := s.db.Query(`SELECT id, name, built_in, created_at FROM roles ORDER BY built_in DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	list := make([]Role, 0)
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles rows: %w", err)
	}

	return list, nil
}

// Rename changes a custom role's name. Built-in roles are immutable.
func (s *Store) Rename(id, name string) (*Role, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if r.BuiltIn {
		return nil, ErrBuiltIn
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("role name required")
	}

	if _, err := s.db.Exec(`UPDATE roles SET name = ? WHERE id = ?`, name, id); err != nil {
		if s.db.IsUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("rename role: %w", err)
	}

	r.Name = name
	return r, nil
}

// Delete removes a custom role. Built-in roles are immutable.
func (s *Store) Delete(id string) error {
	r, err := s.Get(id)
	if err != nil {
		return err
	}
	if r.BuiltIn {
		return ErrBuiltIn
	}

	if _, err := s.db.Exec(`DELETE FROM roles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRole(s scanner) (*Role, error) {
	var (
		r         Role
		builtIn   int
		createdAt string
	)

	if err := s.Scan(&r.ID, &r.Name, &builtIn, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}

	r.BuiltIn = builtIn == 1
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = t

	return &r, nil
}
