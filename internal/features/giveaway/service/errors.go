package service

import "errors"

var (
	// ErrNotFound reports an entry or lookup against an unknown giveaway id.
	ErrNotFound = errors.New("giveaway not found or already finished")
	// ErrAlreadyFinished reports a duplicate finalize; it is an idempotent
	// no-op, never a crash.
	ErrAlreadyFinished = errors.New("giveaway already finished")
	// ErrEmptyPool reports that no eligible candidates remain after filtering.
	ErrEmptyPool = errors.New("no eligible participants found")
	// ErrStaleToken reports an expired or unknown ephemeral token; the
	// operator has to restart the flow.
	ErrStaleToken = errors.New("session token is stale or expired")
)

// PublishError wraps the failure to post a giveaway announcement. Publishing
// is the hard dependency of creation: on this error nothing was registered.
type PublishError struct {
	Channel string
	Err     error
}

func (e *PublishError) Error() string {
	return "failed to publish announcement to " + e.Channel + ": " + e.Err.Error()
}

func (e *PublishError) Unwrap() error { return e.Err }
