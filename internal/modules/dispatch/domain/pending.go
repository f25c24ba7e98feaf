package domain

import (
	"context"
	"sync"
)

// Outcome is how a dispatched request ended. Err is nil on success.
type Outcome struct {
	CorrelationID string
	SessionID     string
	Kind          RequestKind
	Reply         string
	Err           error
}

// Pending correlates one outbound request with its single completion.
type Pending struct {
	CorrelationID string
	SessionID     string
	Kind          RequestKind

	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func NewPending(correlationID, sessionID string, kind RequestKind) *Pending {
	return &Pending{CorrelationID: correlationID, SessionID: sessionID, Kind: kind, done: make(chan struct{})}
}

// Complete records the outcome. Only the first call has an effect.
func (p *Pending) Complete(o Outcome) bool {
	completed := false
	p.once.Do(func() {
		o.CorrelationID, o.SessionID, o.Kind = p.CorrelationID, p.SessionID, p.Kind
		p.outcome = o
		close(p.done)
		completed = true
	})
	return completed
}

func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until completion or until ctx ends.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (p *Pending) Outcome() (Outcome, bool) {
	select {
	case <-p.done:
		return p.outcome, true
	default:
		return Outcome{}, false
	}
}
