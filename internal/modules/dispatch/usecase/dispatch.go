package usecase

import (
	"context"
	"fmt"
	"sync"

	"murmur/internal/modules/dispatch/domain"
	"murmur/internal/modules/dispatch/dto"
	dispatchin "murmur/internal/modules/dispatch/port/in"
	"murmur/internal/modules/dispatch/service"
	apperrors "murmur/internal/platform/errors"
)

type Interactor struct {
	svc *service.Dispatcher

	mu      sync.Mutex
	pending map[string]*domain.Pending
}

func NewInteractor(svc *service.Dispatcher) dispatchin.Usecase {
	return &Interactor{svc: svc, pending: map[string]*domain.Pending{}}
}

func (i *Interactor) SendText(ctx context.Context, input dto.SendTextInput) (dto.SendOutput, error) {
	pending, err := i.svc.SendText(ctx, input.Text)
	if err != nil {
		return dto.SendOutput{}, err
	}
	return i.track(pending), nil
}

func (i *Interactor) SendUtterance(ctx context.Context, input dto.SendTextInput) (dto.SendOutput, error) {
	pending, err := i.svc.SendUtterance(ctx, input.Text)
	if err != nil {
		return dto.SendOutput{}, err
	}
	return i.track(pending), nil
}

func (i *Interactor) SendFile(ctx context.Context, input dto.SendFileInput) (dto.SendOutput, error) {
	pending, err := i.svc.SendFile(ctx, input.Path, input.Prompt)
	if err != nil {
		return dto.SendOutput{}, err
	}
	return i.track(pending), nil
}

// Await blocks until the request completes. Each correlation id can be awaited once.
func (i *Interactor) Await(ctx context.Context, correlationID string) (dto.ReplyOutput, error) {
	i.mu.Lock()
	pending, ok := i.pending[correlationID]
	i.mu.Unlock()
	if !ok {
		return dto.ReplyOutput{}, fmt.Errorf("%w: request %s", apperrors.ErrNotFound, correlationID)
	}

	outcome, err := pending.Wait(ctx)
	if err != nil {
		return dto.ReplyOutput{}, err
	}
	i.mu.Lock()
	delete(i.pending, correlationID)
	i.mu.Unlock()

	out := dto.ReplyOutput{CorrelationID: outcome.CorrelationID, SessionID: outcome.SessionID, Reply: outcome.Reply}
	if outcome.Err != nil {
		out.Failed = true
		out.Error = outcome.Err.Error()
	}
	return out, nil
}

func (i *Interactor) Candidates(_ context.Context) ([]dto.CandidateOutput, error) {
	found := i.svc.Candidates()
	out := make([]dto.CandidateOutput, 0, len(found))
	for _, c := range found {
		out = append(out, dto.CandidateOutput{Text: c.Text, Start: c.Start, End: c.End, Rank: c.Rank, Exact: c.TimeCertain})
	}
	return out, nil
}

func (i *Interactor) Drain(ctx context.Context) error {
	return i.svc.Drain(ctx)
}

func (i *Interactor) track(pending *domain.Pending) dto.SendOutput {
	if pending == nil {
		return dto.SendOutput{Skipped: true}
	}
	i.mu.Lock()
	i.pending[pending.CorrelationID] = pending
	i.mu.Unlock()
	return dto.SendOutput{CorrelationID: pending.CorrelationID, SessionID: pending.SessionID}
}
