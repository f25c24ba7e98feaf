package domain

import (
	"strings"
	"time"
)

type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateDraining  State = "draining"
)

// Fragment is one recognition result. Interim results for the same Index
// replace each other until a final one arrives.
type Fragment struct {
	Index int
	Text  string
	Final bool
}

// Transcript accumulates fragments into result slots.
type Transcript struct {
	slots []string
}

// Update stores f in its slot and returns the full transcript so far.
func (t *Transcript) Update(f Fragment) string {
	if f.Index < 0 {
		f.Index = len(t.slots)
	}
	for len(t.slots) <= f.Index {
		t.slots = append(t.slots, "")
	}
	t.slots[f.Index] = strings.TrimSpace(f.Text)
	return t.String()
}

func (t *Transcript) String() string {
	parts := make([]string, 0, len(t.slots))
	for _, slot := range t.slots {
		if slot != "" {
			parts = append(parts, slot)
		}
	}
	return strings.Join(parts, " ")
}

// CaptureSession is the state of one activation of the capture device.
type CaptureSession struct {
	State        State
	StartedAt    time.Time
	LastResultAt time.Time
	Transcript   Transcript
}

type EventKind string

const (
	EventTranscript        EventKind = "transcript"
	EventUtteranceComplete EventKind = "utterance_complete"
	EventStateChanged      EventKind = "state_changed"
	EventError             EventKind = "error"
)

type Event struct {
	Kind       EventKind
	State      State
	Transcript string
	Err        error
	At         time.Time
}
