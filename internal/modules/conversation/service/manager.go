package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"murmur/internal/modules/conversation/domain"
	conversationout "murmur/internal/modules/conversation/port/out"
	"murmur/internal/platform/clock"
	apperrors "murmur/internal/platform/errors"
	"murmur/internal/platform/id"
)

// idRepeatWarning is how many repeated ids in a row are tolerated before
// the generator is reported as stuck.
const idRepeatWarning = 8

// Manager owns the current session and every id it has handed out.
type Manager struct {
	clock  clock.Clock
	idGen  id.Generator
	hook   conversationout.TitleHook
	logger zerolog.Logger

	mu      sync.Mutex
	current *domain.Session
	issued  map[string]struct{}
	changes chan struct{}
}

func NewManager(clock clock.Clock, idGen id.Generator, hook conversationout.TitleHook, logger zerolog.Logger) *Manager {
	return &Manager{
		clock:   clock,
		idGen:   idGen,
		hook:    hook,
		logger:  logger,
		current: domain.NewSession("", clock.Now()),
		issued:  map[string]struct{}{},
		changes: make(chan struct{}, 1),
	}
}

// Current returns the session new user actions bind to.
func (m *Manager) Current() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SessionID returns the current id, which is empty before the first message.
func (m *Manager) SessionID() string {
	return m.Current().ID()
}

// EnsureID returns the current session id, allocating it on first use.
func (m *Manager) EnsureID() string {
	return m.Bind().ID()
}

// Bind ensures the current session has an id and returns it, so a request can
// keep appending there even if a new session is started meanwhile.
func (m *Manager) Bind() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.ID() == "" {
		m.current.AssignID(m.nextIDLocked())
	}
	return m.current
}

// StartNew replaces the current session with an empty one carrying a fresh id.
func (m *Manager) StartNew() string {
	m.mu.Lock()
	sessionID := m.nextIDLocked()
	m.current = domain.NewSession(sessionID, m.clock.Now())
	m.mu.Unlock()

	m.logger.Debug().Str("session_id", sessionID).Msg("session started")
	m.notify()
	return sessionID
}

// Resume loads a stored conversation verbatim and makes it current.
func (m *Manager) Resume(sessionID, title string, messages []domain.Message) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidSession)
	}
	for i, msg := range messages {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}

	m.mu.Lock()
	m.current = domain.ResumedSession(sessionID, title, m.clock.Now(), messages)
	m.issued[sessionID] = struct{}{}
	m.mu.Unlock()

	m.logger.Debug().Str("session_id", sessionID).Int("messages", len(messages)).Msg("session resumed")
	m.notify()
	return nil
}

// Append adds msg to the current session and returns the new log length.
func (m *Manager) Append(msg domain.Message) int {
	return m.AppendTo(m.Current(), msg)
}

// AppendTo adds msg to a specific session, which may no longer be current.
func (m *Manager) AppendTo(session *domain.Session, msg domain.Message) int {
	if msg.At.IsZero() {
		msg.At = m.clock.Now()
	}
	length, first := session.Append(msg)
	if first && m.hook != nil {
		summary := domain.Summary{SessionID: session.ID(), Title: session.Title(), CreatedAt: session.CreatedAt(), LastAt: msg.At, Local: true}
		if err := m.hook.SessionTitled(context.Background(), summary); err != nil {
			m.logger.Warn().Err(err).Str("session_id", summary.SessionID).Msg("title hook failed")
		}
	}
	m.notify()
	return length
}

// Annotate records the delivery state of an optimistic record.
func (m *Manager) Annotate(session *domain.Session, correlationID string, d domain.Delivery) {
	session.Annotate(correlationID, d)
	m.notify()
}

// Messages returns a copy of the current log.
func (m *Manager) Messages() []domain.Message {
	return m.Current().Messages()
}

// Changes signals, coalesced, that the current log or session changed.
func (m *Manager) Changes() <-chan struct{} {
	return m.changes
}

func (m *Manager) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// nextIDLocked draws from the generator until it yields an id never handed out.
func (m *Manager) nextIDLocked() string {
	for repeats := 0; ; repeats++ {
		candidate := m.idGen.New()
		if _, seen := m.issued[candidate]; !seen {
			m.issued[candidate] = struct{}{}
			return candidate
		}
		if repeats > 0 && repeats%idRepeatWarning == 0 {
			m.logger.Warn().Int("repeats", repeats).Msg("session id generator keeps repeating issued ids")
		}
	}
}
