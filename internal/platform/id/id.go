package id

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID issues random v4 identifiers, used for conversation sessions.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// ULID issues lexically sortable identifiers, used to correlate requests.
type ULID struct{}

func (ULID) New() string {
	return ulid.Make().String()
}
