// Package tags persists the tag catalog. Tag names are unique.
package tags

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
	ErrNotFound  = errors.New("tag not found")
	ErrNameTaken = errors.New("tag name already exists")
)

// Tag labels articles for discovery.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store manages tags in the configured database.
type Store struct {
	db *storage.DB
}

// NewStore migrates the tags schema onto db and returns a store.
func NewStore(db *storage.DB) (*Store, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS tags (
		id         ` + db.Key() + ` PRIMARY KEY,
		name       ` + db.Key() + ` NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create tags table: %w", err)
	}

	return &Store{db: db}, nil
}

// Create adds a new tag.
func (s *Store) Create(name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name required")
	}

	t := &Tag{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?)`,
		t.ID, t.Name, t.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if s.db.IsUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	return t, nil
}

// GetByID fetches one tag.
func (s *Store) GetByID(id string) (*Tag, error) {
	return scanTag(s.db.QueryRow(`SELECT id, name, created_at FROM tags WHERE id = ?`, id))
}

// FindByName fetches a tag by its exact name.
func (s *Store) FindByName(name string) (*Tag, error) {
	return scanTag(s.db.QueryRow(`SELECT id, name, created_at FROM tags WHERE name = ?`, strings.TrimSpace(name)))
}

// GetAll returns every tag ordered by name.
func (s *Store) GetAll() ([]Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	list := make([]Tag, 0)
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tags rows: %w", err)
	}

	return list, nil
}

// Update renames a tag.
func (s *Store) Update(id, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name required")
	}

	res, err := s.db.Exec(`UPDATE tags SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if s.db.IsUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(id)
}

// Delete removes a tag.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTag(s scanner) (*Tag, error) {
	var (
		t         Tag
		createdAt string
	)

	if err := s.Scan(&t.ID, &t.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan tag: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	t.CreatedAt = parsed

	return &t, nil
}
