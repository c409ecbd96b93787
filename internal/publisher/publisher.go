// Package publisher is the external posting boundary: a small Mastodon REST
// client with one-time app registration and login, plus the decorators that
// keep a slow or failing instance from wedging message intake.
package publisher

import "context"

// Publisher posts one formatted status to the external service.
type Publisher interface {
	Publish(ctx context.Context, status string) error
}
