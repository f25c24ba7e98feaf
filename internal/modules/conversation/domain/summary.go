package domain

import "time"

// Summary is one entry of the conversation history listing.
type Summary struct {
	SessionID string
	Title     string
	CreatedAt time.Time
	LastAt    time.Time
	Local     bool
}
