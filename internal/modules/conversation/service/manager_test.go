package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murmur/internal/modules/conversation/domain"
	"murmur/internal/modules/conversation/service"
	apperrors "murmur/internal/platform/errors"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

type seqID struct {
	mu     sync.Mutex
	values []string
	n      int
}

func (s *seqID) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.n < len(s.values) {
		v := s.values[s.n]
		s.n++
		return v
	}
	s.n++
	return fmt.Sprintf("gen-%d", s.n)
}

type recordingHook struct {
	mu    sync.Mutex
	calls []domain.Summary
	err   error
}

func (h *recordingHook) SessionTitled(_ context.Context, s domain.Summary) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, s)
	return h.err
}

func newManager(ids *seqID, hook *recordingHook) *service.Manager {
	clk := fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	if hook == nil {
		return service.NewManager(clk, ids, nil, zerolog.Nop())
	}
	return service.NewManager(clk, ids, hook, zerolog.Nop())
}

func text(origin domain.Origin, payload string) domain.Message {
	return domain.Message{Kind: domain.KindText, Origin: origin, Payload: payload}
}

func TestEnsureIDIsLazyAndStable(t *testing.T) {
	t.Parallel()
	m := newManager(&seqID{values: []string{"a"}}, nil)
	assert.Empty(t, m.SessionID())
	assert.Equal(t, "a", m.EnsureID())
	assert.Equal(t, "a", m.EnsureID())
	assert.Equal(t, "a", m.SessionID())
}

func TestStartNewNeverReusesIDs(t *testing.T) {
	t.Parallel()
	m := newManager(&seqID{values: []string{"a", "a", "b", "b", "c"}}, nil)
	first := m.EnsureID()
	m.Append(text(domain.OriginUser, "hello"))
	second := m.StartNew()
	third := m.StartNew()

	assert.Equal(t, []string{"a", "b", "c"}, []string{first, second, third})
	assert.Empty(t, m.Messages(), "new session starts empty")
}

func TestStartNewOutlastsLongRunsOfRepeatedIDs(t *testing.T) {
	t.Parallel()
	values := []string{"a"}
	for i := 0; i < 20; i++ {
		values = append(values, "a")
	}
	values = append(values, "b")
	ids := &seqID{values: values}
	m := newManager(ids, nil)

	first := m.EnsureID()
	second := m.StartNew()

	assert.Equal(t, "a", first)
	assert.Equal(t, "b", second)
	assert.Equal(t, len(values), ids.n, "every repeat was drawn and discarded")
}

func TestAppendReturnsLengthAndFiresTitleHookOnce(t *testing.T) {
	t.Parallel()
	hook := &recordingHook{}
	m := newManager(&seqID{values: []string{"s-1"}}, hook)
	m.EnsureID()

	assert.Equal(t, 1, m.Append(text(domain.OriginUser, "book flights")))
	assert.Equal(t, 2, m.Append(text(domain.OriginAssistant, "where to?")))
	assert.Equal(t, 3, m.Append(text(domain.OriginUser, "lisbon")))

	require.Len(t, hook.calls, 1)
	assert.Equal(t, "s-1", hook.calls[0].SessionID)
	assert.Equal(t, "book flights", hook.calls[0].Title)
}

func TestTitleHookFailureDoesNotRejectAppend(t *testing.T) {
	t.Parallel()
	hook := &recordingHook{err: errors.New("disk full")}
	m := newManager(&seqID{}, hook)
	m.EnsureID()
	assert.Equal(t, 1, m.Append(text(domain.OriginUser, "hi")))
	assert.Len(t, m.Messages(), 1)
}

func TestResumeValidatesAndSkipsTitleHook(t *testing.T) {
	t.Parallel()
	hook := &recordingHook{}
	m := newManager(&seqID{}, hook)

	err := m.Resume("", "", nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidSession)

	err = m.Resume("old", "", []domain.Message{{Kind: domain.KindText}})
	require.ErrorIs(t, err, apperrors.ErrInvalidSession)
	assert.Empty(t, m.SessionID(), "failed resume leaves the current session alone")

	require.NoError(t, m.Resume("old", "Trip", []domain.Message{text(domain.OriginUser, "hi"), text(domain.OriginAssistant, "hey")}))
	assert.Equal(t, "old", m.SessionID())
	assert.Equal(t, 3, m.Append(text(domain.OriginUser, "again")))
	assert.Empty(t, hook.calls)
}

func TestAppendToBoundSessionAfterStartNew(t *testing.T) {
	t.Parallel()
	m := newManager(&seqID{values: []string{"first", "second"}}, nil)
	bound := m.Bind()
	m.AppendTo(bound, text(domain.OriginUser, "question"))
	m.StartNew()

	m.AppendTo(bound, text(domain.OriginAssistant, "late answer"))

	assert.Len(t, bound.Messages(), 2)
	assert.Empty(t, m.Messages(), "late responses never land in the new session")
	assert.Equal(t, "second", m.SessionID())
}

func TestConcurrentAppendsKeepEveryMessage(t *testing.T) {
	t.Parallel()
	m := newManager(&seqID{}, nil)
	m.EnsureID()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Append(text(domain.OriginAssistant, fmt.Sprintf("reply-%d", i)))
		}(i)
	}
	wg.Wait()
	assert.Len(t, m.Messages(), 50)
}

func TestChangesCoalesce(t *testing.T) {
	t.Parallel()
	m := newManager(&seqID{}, nil)
	m.EnsureID()
	m.Append(text(domain.OriginUser, "one"))
	m.Append(text(domain.OriginUser, "two"))

	select {
	case <-m.Changes():
	default:
		t.Fatalf("expected a pending change notification")
	}
	select {
	case <-m.Changes():
		t.Fatalf("notifications must coalesce")
	default:
	}
}
