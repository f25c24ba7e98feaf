package out

import (
	"context"

	"murmur/internal/modules/speech/domain"
)

// Device is a platform capture source producing recognition fragments.
type Device interface {
	Supported() bool
	Open(ctx context.Context) (Stream, error)
}

// Stream is one open recognition session. Fragments is closed when the
// device has fully terminated; Err then reports why, or nil on a clean end.
type Stream interface {
	Fragments() <-chan domain.Fragment
	Stop() error
	Err() error
}
