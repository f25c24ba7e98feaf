package usecase

import (
	"context"
	"sync"

	"murmur/internal/modules/speech/domain"
	"murmur/internal/modules/speech/dto"
	speechin "murmur/internal/modules/speech/port/in"
	"murmur/internal/modules/speech/service"
	apperrors "murmur/internal/platform/errors"
)

type Interactor struct {
	svc *service.Controller

	once   sync.Once
	events chan dto.EventOutput
}

// NewInteractor accepts a nil controller when the platform has no capture
// device; every operation then reports ErrCaptureUnsupported.
func NewInteractor(svc *service.Controller) speechin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Start(ctx context.Context) error {
	if i.svc == nil {
		return apperrors.ErrCaptureUnsupported
	}
	return i.svc.Start(ctx)
}

func (i *Interactor) Stop(_ context.Context) error {
	if i.svc == nil {
		return apperrors.ErrCaptureUnsupported
	}
	return i.svc.Stop()
}

func (i *Interactor) Toggle(ctx context.Context) (bool, error) {
	if i.svc == nil {
		return false, apperrors.ErrCaptureUnsupported
	}
	return i.svc.Toggle(ctx)
}

func (i *Interactor) Status(_ context.Context) dto.StatusOutput {
	if i.svc == nil {
		return dto.StatusOutput{State: string(domain.StateIdle)}
	}
	state := i.svc.State()
	return dto.StatusOutput{Supported: true, State: string(state), Listening: state == domain.StateListening}
}

// Events returns a nil channel when capture is unsupported.
func (i *Interactor) Events() <-chan dto.EventOutput {
	if i.svc == nil {
		return nil
	}
	i.once.Do(func() {
		i.events = make(chan dto.EventOutput, cap(i.svc.Events()))
		go i.forward()
	})
	return i.events
}

func (i *Interactor) forward() {
	for ev := range i.svc.Events() {
		out := dto.EventOutput{Kind: string(ev.Kind), State: string(ev.State), Transcript: ev.Transcript, At: ev.At}
		if ev.Err != nil {
			out.Error = ev.Err.Error()
		}
		i.events <- out
	}
}
