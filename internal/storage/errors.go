package storage

import "fmt"

// ConnectError reports a failed connection attempt. No query ran.
type ConnectError struct {
	Driver string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s database: %v", e.Driver, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// QueryError reports a failed catalog query.
type QueryError struct {
	Label string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q failed: %v", e.Label, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
