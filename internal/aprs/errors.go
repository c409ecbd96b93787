package aprs

import "fmt"

// ResolutionError reports a hostname resolution failure. Resolution is
// retried with backoff by the supervisor, the server pool rotates DNS.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve APRS-IS server %s: %v", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func (e *ResolutionError) IsRetryable() bool { return true }

// ConnectError reports a TCP connect failure.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot connect to APRS-IS server %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

func (e *ConnectError) IsRetryable() bool { return true }

// WriteError reports a failed write on the feed socket, either the login
// line or an acknowledgment. It is connection-fatal and triggers a
// reconnect, not a process exit.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("feed socket write failed: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) IsRetryable() bool { return true }
