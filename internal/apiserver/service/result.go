// Package service defines the uniform result shape returned by every
// resource service. Controllers forward StatusCode and Errors as-is and
// never reinterpret them; not-found, forbidden and validation outcomes are
// values, not panics.
package service

import "net/http"

// Result carries a service outcome across the service → handler boundary.
type Result[T any] struct {
	Success    bool     `json:"success"`
	StatusCode int      `json:"statusCode"`
	Errors     []string `json:"errors,omitempty"`
	Data       T        `json:"data,omitempty"`
}

// OK returns a 200 result with data.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, StatusCode: http.StatusOK, Data: data}
}

// Created returns a 201 result with data.
func Created[T any](data T) Result[T] {
	return Result[T]{Success: true, StatusCode: http.StatusCreated, Data: data}
}

// NoContent returns a 204 result with no data.
func NoContent[T any]() Result[T] {
	return Result[T]{Success: true, StatusCode: http.StatusNoContent}
}

// Fail returns a failed result with the given status and messages.
func Fail[T any](status int, errs ...string) Result[T] {
	return Result[T]{StatusCode: status, Errors: errs}
}

// Invalid returns a 400 validation failure.
func Invalid[T any](errs ...string) Result[T] {
	return Fail[T](http.StatusBadRequest, errs...)
}

// Unauthorized returns a 401 failure.
func Unauthorized[T any](msg string) Result[T] {
	return Fail[T](http.StatusUnauthorized, msg)
}

// Forbidden returns a 403 failure.
func Forbidden[T any](msg string) Result[T] {
	return Fail[T](http.StatusForbidden, msg)
}

// NotFound returns a 404 failure.
func NotFound[T any](msg string) Result[T] {
	return Fail[T](http.StatusNotFound, msg)
}

// Internal returns a 500 failure with a generic message. Internal details
// belong in logs, never in the response body.
func Internal[T any]() Result[T] {
	return Fail[T](http.StatusInternalServerError, "internal server error")
}
