package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"murmur/internal/modules/speech/domain"
	"murmur/internal/modules/speech/dto"
	speechout "murmur/internal/modules/speech/port/out"
	"murmur/internal/modules/speech/service"
	"murmur/internal/modules/speech/usecase"
	"murmur/internal/platform/clock"
	apperrors "murmur/internal/platform/errors"
)

type closedDevice struct{}

func (closedDevice) Supported() bool { return true }

func (closedDevice) Open(context.Context) (speechout.Stream, error) {
	ch := make(chan domain.Fragment, 1)
	ch <- domain.Fragment{Index: 0, Text: "hello", Final: true}
	close(ch)
	return closedStream{ch: ch}, nil
}

type closedStream struct{ ch chan domain.Fragment }

func (s closedStream) Fragments() <-chan domain.Fragment { return s.ch }
func (closedStream) Stop() error                         { return nil }
func (closedStream) Err() error                          { return nil }

func TestInteractorWithoutDevice(t *testing.T) {
	t.Parallel()
	uc := usecase.NewInteractor(nil)
	if err := uc.Start(context.Background()); err != apperrors.ErrCaptureUnsupported {
		t.Fatalf("expected ErrCaptureUnsupported, got %v", err)
	}
	if _, err := uc.Toggle(context.Background()); err != apperrors.ErrCaptureUnsupported {
		t.Fatalf("expected ErrCaptureUnsupported, got %v", err)
	}
	if status := uc.Status(context.Background()); status.Supported || status.Listening {
		t.Fatalf("unexpected status: %+v", status)
	}
	if uc.Events() != nil {
		t.Fatalf("expected nil events channel")
	}
}

func TestInteractorForwardsUtterance(t *testing.T) {
	t.Parallel()
	ctrl, err := service.NewController(closedDevice{}, clock.SystemClock{}, clock.SystemClock{}, service.Options{SilenceTimeout: time.Minute}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	uc := usecase.NewInteractor(ctrl)
	events := uc.Events()
	if err := uc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind != dto.EventUtteranceComplete {
				continue
			}
			if ev.Transcript != "hello" {
				t.Fatalf("transcript = %q", ev.Transcript)
			}
			if status := uc.Status(context.Background()); status.State != "idle" {
				t.Fatalf("state after utterance = %s", status.State)
			}
			return
		case <-deadline:
			t.Fatalf("no utterance event")
		}
	}
}
