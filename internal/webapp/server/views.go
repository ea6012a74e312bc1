package server

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/inkwell-web/inkwell/internal/webapp/relay"
)

// JSON shapes of the API's responses, mirrored locally so the front-end
// stays decoupled from the API server's internal types.

type apiUser struct {
	ID         string     `json:"id"`
	UserName   string     `json:"userName"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName,omitempty"`
	LastName   string     `json:"lastName,omitempty"`
	FatherName string     `json:"fatherName,omitempty"`
	BirthDate  string     `json:"birthDate,omitempty"`
	Role       string     `json:"role"`
	Enabled    bool       `json:"enabled"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
}

type apiArticle struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type apiComment struct {
	ID        string    `json:"id"`
	ArticleID int64     `json:"articleId"`
	Message   string    `json:"message"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type loginResult struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// userFieldUpdate names each editable profile field explicitly. Only the
// fields the form submitted are sent; the API leaves the rest untouched.
type userFieldUpdate struct {
	UserName   *string `json:"userName,omitempty"`
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	FatherName *string `json:"fatherName,omitempty"`
	BirthDate  *string `json:"birthDate,omitempty"`
}

// relayErrorMessage turns a relay failure into text fit for a flash notice.
func relayErrorMessage(err error) string {
	var apiErr *relay.Error
	if !errors.As(err, &apiErr) {
		return "the service is temporarily unavailable"
	}

	var body struct {
		Errors []string `json:"errors"`
	}
	if jsonErr := json.Unmarshal([]byte(apiErr.Body), &body); jsonErr == nil && len(body.Errors) > 0 {
		return strings.Join(body.Errors, "; ")
	}
	return "the request was rejected"
}
