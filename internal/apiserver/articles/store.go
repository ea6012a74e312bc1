// Package articles persists published articles. Ownership checks live in the
// service layer; the store is plain persistence.
package articles

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell-web/inkwell/internal/apiserver/storage"
)

var ErrNotFound = errors.New("article not found")

// Article is a published post.
type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store manages articles in the configured database.
type Store struct {
	db *storage.DB
}

// NewStore migrates the articles schema onto db and returns a store.
func NewStore(db *storage.DB) (*Store, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS articles (
		id         ` + db.AutoIncrementPK() + `,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		author_id  ` + db.Key() + ` NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create articles table: %w", err)
	}

	db.CreateIndex("idx_articles_author", "articles", "author_id")

	return &Store{db: db}, nil
}

// Create stores a new article for authorID and returns it with its id set.
func (s *Store) Create(title, content, authorID string) (*Article, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("content required")
	}

	now := time.Now().UTC()
	id, err := s.db.InsertID(`INSERT INTO articles (title, content, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		title, content, authorID, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	return &Article{
		ID:        id,
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FindByID fetches one article.
func (s *Store) FindByID(id int64) (*Article, error) {
	return scanArticle(s.db.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id))
}

// FindByTitle returns articles whose title contains the given fragment.
// An empty match is an empty list, not an error.
func (s *Store) FindByTitle(fragment string) ([]Article, error) {
	return s.query(`SELECT `+articleColumns+` FROM articles
		WHERE title LIKE ? ORDER BY created_at DESC`, "%"+fragment+"%")
}

// Latest returns a page of articles ordered newest first.
func (s *Store) Latest(start, count int) ([]Article, error) {
	if start < 0 {
		start = 0
	}
	if count <= 0 {
		count = 10
	}
	return s.query(`SELECT `+articleColumns+` FROM articles
		ORDER BY created_at DESC LIMIT ? OFFSET ?`, count, start)
}

// ByAuthor returns all articles written by authorID, newest first.
func (s *Store) ByAuthor(authorID string) ([]Article, error) {
	return s.query(`SELECT `+articleColumns+` FROM articles
		WHERE author_id = ? ORDER BY created_at DESC`, authorID)
}

// Update replaces title and content and refreshes updated_at.
func (s *Store) Update(id int64, title, content string) (*Article, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title required")
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(`UPDATE articles SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		title, content, now.Format(time.RFC3339Nano), id)
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.FindByID(id)
}

// Delete removes an article.
func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
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

const articleColumns = `id, title, content, author_id, created_at, updated_at`

func (s *Store) query(q string, args ...any) ([]Article, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	list := make([]Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("articles rows: %w", err)
	}

	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (*Article, error) {
	var (
		a                    Article
		createdAt, updatedAt string
	)

	if err := s.Scan(&a.ID, &a.Title, &a.Content, &a.AuthorID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}

	var err error
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &a, nil
}
