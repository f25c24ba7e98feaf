package dto

import "time"

type StatusOutput struct {
	Supported bool
	State     string
	Listening bool
}

type EventOutput struct {
	Kind       string
	State      string
	Transcript string
	Error      string
	At         time.Time
}

const (
	EventTranscript        = "transcript"
	EventUtteranceComplete = "utterance_complete"
	EventStateChanged      = "state_changed"
	EventError             = "error"
)
