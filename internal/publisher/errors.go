package publisher

import "fmt"

// AuthError reports a failed one-time login: wrong credentials, or an
// account with interactive second-factor enabled, which the password grant
// cannot satisfy. It is fatal, retrying cannot help.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mastodon login failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("mastodon login failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) IsFatal() bool { return true }

// PublishError reports a failed status post. The pipeline logs it and moves
// on: the message is already recorded as processed and must not be
// re-published on the next replay.
type PublishError struct {
	StatusCode int
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mastodon publish failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("mastodon publish failed: %v", e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

func (e *PublishError) IsRetryable() bool { return true }
