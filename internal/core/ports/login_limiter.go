package ports

import "context"

// LoginLimiter throttles repeated failed logins per identity.
type LoginLimiter interface {
	// Allow reports whether another attempt is permitted for this identity.
	Allow(ctx context.Context, identity string) (bool, error)
	// RecordFailure counts one failed attempt.
	RecordFailure(ctx context.Context, identity string) error
	// Reset clears the failure count after a successful login.
	Reset(ctx context.Context, identity string) error
}
