// Package comments persists article comments.
package comments

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-web/inkwell/internal/apiserver/storage"
)

var ErrNotFound = errors.New("comment not found")

// Comment is a reader comment attached to an article.
type Comment struct {
	ID        string    `json:"id"`
	ArticleID int64     `json:"articleId"`
	Message   string    `json:"message"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store manages comments in the configured database.
type Store struct {
	db *storage.DB
}

// NewStore migrates the comments schema onto db and returns a store.
func NewStore(db *storage.DB) (*Store, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS comments (
		id         ` + db.Key() + ` PRIMARY KEY,
		article_id BIGINT NOT NULL,
		message    TEXT NOT NULL,
		author_id  TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create comments table: %w", err)
	}

	db.CreateIndex("idx_comments_article", "comments", "article_id")

	return &Store{db: db}, nil
}

// Add stores a new comment for authorID on the given article.
func (s *Store) Add(articleID int64, message, authorID string) (*Comment, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message required")
	}

	now := time.Now().UTC()
	c := &Comment{
		ID:        uuid.NewString(),
		ArticleID: articleID,
		Message:   message,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(`INSERT INTO comments (id, article_id, message, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ArticleID, c.Message, c.AuthorID,
		c.CreatedAt.Format(time.RFC3339Nano), c.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	return c, nil
}

// GetByID fetches one comment.
func (s *Store) GetByID(id string) (*Comment, error) {
	return scanComment(s.db.QueryRow(`SELECT id, article_id, message, author_id, created_at, updated_at
		FROM comments WHERE id = ?`, id))
}

// ListByArticle returns up to count comments on an article, newest first.
// A non-positive count returns all of them.
func (s *Store) ListByArticle(articleID int64, count int) ([]Comment, error) {
	q := `SELECT id, article_id, message, author_id, created_at, updated_at
		FROM comments WHERE article_id = ? ORDER BY created_at DESC`
	args := []any{articleID}
	if count > 0 {
		q += ` LIMIT ?`
		args = append(args, count)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	list := make([]Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("comments rows: %w", err)
	}

	return list, nil
}

// Edit replaces a comment's message and refreshes updated_at.
func (s *Store) Edit(id, message string) (*Comment, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message required")
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(`UPDATE comments SET message = ?, updated_at = ? WHERE id = ?`,
		message, now.Format(time.RFC3339Nano), id)
	if err != nil {
		return nil, fmt.Errorf("edit comment: %w", err)
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

// Delete removes a comment.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
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

// DeleteByArticle removes every comment on an article, used when the article
// itself is deleted.
func (s *Store) DeleteByArticle(articleID int64) error {
	if _, err := s.db.Exec(`DELETE FROM comments WHERE article_id = ?`, articleID); err != nil {
		return fmt.Errorf("delete comments by article: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (*Comment, error) {
	var (
		c                    Comment
		createdAt, updatedAt string
	)

	if err := s.Scan(&c.ID, &c.ArticleID, &c.Message, &c.AuthorID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}

	var err error
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &c, nil
}
