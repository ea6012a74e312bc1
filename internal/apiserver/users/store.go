// Package users persists platform user accounts. Login is keyed by email;
// passwords are bcrypt-hashed and never leave the store.
package users

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-web/inkwell/internal/apiserver/storage"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDisabled           = errors.New("user disabled")
	ErrEmailTaken         = errors.New("email already registered")
)

// Roles assignable to a user. Administrator and Moderator may edit content
// they do not own.
const (
	RoleAdministrator = "Administrator"
	RoleModerator     = "Moderator"
	RoleUser          = "User"
)

// User is a platform account.
type User struct {
	ID           string     `json:"id"`
	UserName     string     `json:"userName"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	FatherName   string     `json:"fatherName,omitempty"`
	BirthDate    string     `json:"birthDate,omitempty"` // YYYY-MM-DD
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Enabled      bool       `json:"enabled"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

// FieldUpdate enumerates the profile fields a partial update may touch.
// Nil fields are left unchanged. This replaces free-form name/value patching
// so only known fields can ever be written.
type FieldUpdate struct {
	UserName   *string `json:"userName,omitempty"`
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	FatherName *string `json:"fatherName,omitempty"`
	BirthDate  *string `json:"birthDate,omitempty"`
}

// NewUser carries the fields required to register an account.
type NewUser struct {
	UserName   string
	Email      string
	Password   string
	FirstName  string
	LastName   string
	FatherName string
	BirthDate  string
}

// Store manages users in the configured database.
type Store struct {
	db *storage.DB
}

// NewStore migrates the users schema onto db and returns a store. Every
// insert supplies the profile columns explicitly, so they carry no DDL
// defaults (MySQL refuses defaults on TEXT anyway).
func NewStore(db *storage.DB) (*Store, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id            ` + db.Key() + ` PRIMARY KEY,
		username      TEXT NOT NULL,
		email         ` + db.Key() + ` NOT NULL UNIQUE,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		father_name   TEXT NOT NULL,
		birth_date    TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('Administrator', 'Moderator', 'User')),
		enabled       INTEGER NOT NULL DEFAULT 1,
		created_at    TEXT NOT NULL,
		last_login    TEXT
	)`); err != nil {
		return nil, fmt.Errorf("create users table: %w", err)
	}

	return &Store{db: db}, nil
}

// Create registers a new account with the User role.
func (s *Store) Create(nu NewUser) (*User, error) {
	return s.createWithRole(nu, RoleUser)
}

// CreateWithRole registers a new account with an explicit role.
func (s *Store) CreateWithRole(nu NewUser, role string) (*User, error) {
	return s.createWithRole(nu, role)
}

func (s *Store) createWithRole(nu NewUser, role string) (*User, error) {
	if !ValidRole(role) {
		return nil, ErrInvalidRole
	}
	email := strings.ToLower(strings.TrimSpace(nu.Email))
	if email == "" {
		return nil, fmt.Errorf("email required")
	}
	username := strings.TrimSpace(nu.UserName)
	if username == "" {
		username = email
	}
	if len(nu.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		UserName:     username,
		Email:        email,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		FatherName:   nu.FatherName,
		BirthDate:    nu.BirthDate,
		PasswordHash: string(hash),
		Role:         role,
		Enabled:      true,
		CreatedAt:    now,
	}

	_, err = s.db.Exec(`INSERT INTO users (id, username, email, first_name, last_name, father_name, birth_date, password_hash, role, enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		u.ID, u.UserName, u.Email, u.FirstName, u.LastName, u.FatherName, u.BirthDate,
		u.PasswordHash, u.Role, u.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		// Email is the only unique column, so any duplicate-key error
		// here means the address is taken.
		if s.db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// Get fetches a user by ID.
func (s *Store) Get(id string) (*User, error) {
	return s.queryOne(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail fetches a user by email.
func (s *Store) GetByEmail(email string) (*User, error) {
	return s.queryOne(`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

// List returns all users ordered by creation time.
func (s *Store) List() ([]User, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	list := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users rows: %w", err)
	}

	return list, nil
}

// Authenticate checks email/password and updates last_login.
func (s *Store) Authenticate(email, password string) (*User, error) {
	u, err := s.GetByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.Enabled {
		return nil, ErrDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if _, err := s.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, now.Format(time.RFC3339Nano), u.ID); err != nil {
		return nil, fmt.Errorf("update last_login: %w", err)
	}

	u.LastLogin = &now
	return u, nil
}

// UpdateFields applies a partial profile update field by field.
func (s *Store) UpdateFields(id string, upd FieldUpdate) (*User, error) {
	u, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if upd.UserName != nil {
		name := strings.TrimSpace(*upd.UserName)
		if name == "" {
			return nil, fmt.Errorf("username cannot be empty")
		}
		u.UserName = name
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.FatherName != nil {
		u.FatherName = *upd.FatherName
	}
	if upd.BirthDate != nil {
		if *upd.BirthDate != "" {
			if _, err := time.Parse("2006-01-02", *upd.BirthDate); err != nil {
				return nil, fmt.Errorf("birth date must be YYYY-MM-DD")
			}
		}
		u.BirthDate = *upd.BirthDate
	}

	res, err := s.db.Exec(`UPDATE users SET username = ?, first_name = ?, last_name = ?, father_name = ?, birth_date = ? WHERE id = ?`,
		u.UserName, u.FirstName, u.LastName, u.FatherName, u.BirthDate, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := checkRowsAffected(res, ErrNotFound); err != nil {
		return nil, err
	}

	return u, nil
}

// UpdateRole changes a user's role.
func (s *Store) UpdateRole(id, role string) error {
	if !ValidRole(role) {
		return ErrInvalidRole
	}

	res, err := s.db.Exec(`UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	return checkRowsAffected(res, ErrNotFound)
}

// SetEnabled enables or disables an account.
func (s *Store) SetEnabled(id string, enabled bool) error {
	enabledInt := 0
	if enabled {
		enabledInt = 1
	}

	res, err := s.db.Exec(`UPDATE users SET enabled = ? WHERE id = ?`, enabledInt, id)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}

	return checkRowsAffected(res, ErrNotFound)
}

// Delete permanently removes an account.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return checkRowsAffected(res, ErrNotFound)
}

// Count returns the total number of accounts.
func (s *Store) Count() int {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0
	}
	return count
}

const userColumns = `id, username, email, first_name, last_name, father_name, birth_date, password_hash, role, enabled, created_at, last_login`

func (s *Store) queryOne(query string, args ...any) (*User, error) {
	return scanUser(s.db.QueryRow(query, args...))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*User, error) {
	var (
		u                    User
		enabled              int
		createdAt, lastLogin sql.NullString
	)

	if err := s.Scan(&u.ID, &u.UserName, &u.Email, &u.FirstName, &u.LastName, &u.FatherName, &u.BirthDate,
		&u.PasswordHash, &u.Role, &enabled, &createdAt, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Enabled = enabled == 1
	if createdAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, createdAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		u.CreatedAt = t
	}
	if lastLogin.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastLogin.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_login: %w", err)
		}
		u.LastLogin = &t
	}

	return &u, nil
}

func checkRowsAffected(res sql.Result, errWhenZero error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errWhenZero
	}
	return nil
}

// ValidRole reports whether role is one of the supported user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdministrator, RoleModerator, RoleUser:
		return true
	default:
		return false
	}
}
