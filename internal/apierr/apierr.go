// Package apierr defines the error taxonomy returned to HTTP clients.
//
// Every classified error is rendered as a small JSON envelope:
//
//	{"error": "<message>"}
//
// Unclassified errors are reported as 500 with a fixed message; their cause is
// never sent to the client.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is an error with an HTTP status attached.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// New returns a classified error.
func New(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

var (
	Unauthorized        = New(http.StatusUnauthorized, "unauthorized")
	BadRequest          = New(http.StatusBadRequest, "bad request")
	NotFound            = New(http.StatusNotFound, "not found")
	InternalServerError = New(http.StatusInternalServerError, "internal server error")
)

// Envelope is the JSON body of an error response.
type Envelope struct {
	Error string `json:"error"`
}

// From classifies err. Anything that is not an *Error becomes InternalServerError.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return InternalServerError
}

// Write renders err as a JSON envelope with the matching status code and
// returns the classified error.
func Write(w http.ResponseWriter, err error) *Error {
	e := From(err)
	WriteJSON(w, e.Status, Envelope{Error: e.Message})
	return e
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
