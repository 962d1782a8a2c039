package core

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrMissingCredentials is returned before any connection attempt when
	// the username or the password is empty.
	ErrMissingCredentials = errors.New("please enter your database username and password")

	// ErrUnknownQuery is returned when a label is not part of the query catalog.
	ErrUnknownQuery = errors.New("unknown query")
)

type (
	// Credentials are held only for the duration of one connection attempt.
	// They are never logged, persisted or published.
	Credentials struct {
		Username string
		Password string
	}

	// QueryEvent describes one executed catalog entry. It carries no
	// credential material.
	QueryEvent struct {
		Label      string
		Slug       string
		Rows       int
		Columns    int
		Duration   time.Duration
		Success    bool
		Error      string
		ExecutedAt time.Time
	}
)

// Validate reports ErrMissingCredentials when either field is blank.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// String redacts the password so credentials can never leak through %v.
func (c Credentials) String() string {
	if c.Password == "" {
		return c.Username + ":<empty>"
	}
	return c.Username + ":<redacted>"
}

// GoString keeps %#v redacted as well.
func (c Credentials) GoString() string {
	return "core.Credentials{" + c.String() + "}"
}
