package domain

import (
	"strings"
	"sync"
	"time"
)

type DeliveryState string

const (
	DeliveryPending   DeliveryState = "pending"
	DeliveryConfirmed DeliveryState = "confirmed"
	DeliveryFailed    DeliveryState = "failed"
)

// Delivery annotates an optimistic record without mutating it.
type Delivery struct {
	State     DeliveryState
	RemoteRef string
	Reason    string
}

// Session owns one conversation: an identity assigned at most once and an append-only log.
type Session struct {
	mu         sync.RWMutex
	id         string
	createdAt  time.Time
	title      string
	resumed    bool
	log        []Message
	deliveries map[string]Delivery
}

// NewSession creates an empty session. The id may be empty until the first message.
func NewSession(id string, createdAt time.Time) *Session {
	return &Session{id: id, createdAt: createdAt, deliveries: map[string]Delivery{}}
}

// ResumedSession loads messages verbatim. The caller validates them first.
func ResumedSession(id, title string, createdAt time.Time, messages []Message) *Session {
	s := NewSession(id, createdAt)
	s.title = title
	s.resumed = true
	s.log = append(make([]Message, 0, len(messages)), messages...)
	return s
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// AssignID sets the identity once. It reports false when an id already exists.
func (s *Session) AssignID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != "" {
		return false
	}
	s.id = id
	return true
}

func (s *Session) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Append adds m to the end of the log and returns the new length.
// first is true only for the opening message of a session that was not resumed.
func (s *Session) Append(m Message) (length int, first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, m)
	first = !s.resumed && len(s.log) == 1
	if first {
		s.title = TitleFor(m)
	}
	return len(s.log), first
}

func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.log...)
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log)
}

func (s *Session) Annotate(correlationID string, d Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[correlationID] = d
}

func (s *Session) Delivery(correlationID string) (Delivery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveries[correlationID]
	return d, ok
}

const maxTitleRunes = 60

// TitleFor derives a conversation title from its opening message.
func TitleFor(m Message) string {
	text := m.Payload
	if m.Kind != KindText && m.Attachment != nil && m.Attachment.Name != "" {
		text = m.Attachment.Name
	}
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) > maxTitleRunes {
		return string(runes[:maxTitleRunes-1]) + "…"
	}
	return string(runes)
}
