package service

import (
	"errors"
	"strings"
)

var (
	// ErrContactNotFound indicates the contact id does not exist.
	ErrContactNotFound = errors.New("contact not found")
	// ErrNotAuthorized indicates the contact exists but belongs to someone else.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound indicates no user has the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrExportsDisabled is returned when no object storage bucket is configured.
	ErrExportsDisabled = errors.New("export storage not configured")
)

// FieldError is a single complaint about a request field.
type FieldError struct {
	Value    any    `json:"value,omitempty"`
	Msg      string `json:"msg"`
	Param    string `json:"param"`
	Location string `json:"location"`
}

// ValidationError collects every field complaint found in one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Param+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records a complaint about a body field.
func (e *ValidationError) Add(param, msg string, value any) {
	e.Fields = append(e.Fields, FieldError{Value: value, Msg: msg, Param: param, Location: "body"})
}

// OrNil returns e when it holds complaints and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
