package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"murmur/internal/modules/speech/domain"
	speechout "murmur/internal/modules/speech/port/out"
	"murmur/internal/platform/clock"
	apperrors "murmur/internal/platform/errors"
)

const (
	DefaultSilenceTimeout = 2 * time.Second
	eventBuffer           = 64
)

type Options struct {
	SilenceTimeout time.Duration
}

// capture is one activation of the device, owned by its run goroutine.
type capture struct {
	stream    speechout.Stream
	session   domain.CaptureSession
	cancelled chan struct{}
}

// Controller drives continuous capture and ends an utterance after a
// period without fragments.
type Controller struct {
	device  speechout.Device
	timers  clock.Timers
	clock   clock.Clock
	silence time.Duration
	logger  zerolog.Logger

	mu     sync.Mutex
	state  domain.State
	active *capture
	gen    uint64
	events chan domain.Event
}

// NewController fails with ErrCaptureUnsupported when there is no usable device.
func NewController(device speechout.Device, timers clock.Timers, clk clock.Clock, opts Options, logger zerolog.Logger) (*Controller, error) {
	if device == nil || !device.Supported() {
		return nil, apperrors.ErrCaptureUnsupported
	}
	silence := opts.SilenceTimeout
	if silence <= 0 {
		silence = DefaultSilenceTimeout
	}
	return &Controller{
		device:  device,
		timers:  timers,
		clock:   clk,
		silence: silence,
		logger:  logger,
		state:   domain.StateIdle,
		events:  make(chan domain.Event, eventBuffer),
	}, nil
}

func (c *Controller) Events() <-chan domain.Event {
	return c.events
}

func (c *Controller) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Listening() bool {
	return c.State() == domain.StateListening
}

// Start opens the device and begins listening.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("%w: capture is %s", apperrors.ErrCaptureBusy, c.state)
	}
	c.gen++
	gen := c.gen
	c.setStateLocked(domain.StateListening)
	c.mu.Unlock()

	stream, err := c.device.Open(ctx)

	c.mu.Lock()
	if err != nil {
		if c.gen == gen {
			c.setStateLocked(domain.StateIdle)
		}
		c.mu.Unlock()
		return fmt.Errorf("open capture stream: %w", err)
	}
	if c.gen != gen {
		// stopped while the device was opening
		c.mu.Unlock()
		_ = stream.Stop()
		go discard(stream)
		return nil
	}
	active := &capture{
		stream:    stream,
		session:   domain.CaptureSession{State: domain.StateListening, StartedAt: c.clock.Now()},
		cancelled: make(chan struct{}),
	}
	c.active = active
	c.mu.Unlock()

	c.logger.Debug().Msg("capture started")
	go c.run(active)
	return nil
}

// Stop cancels listening without completing the utterance. Trailing device
// output is discarded. Stop is a no-op unless listening.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state != domain.StateListening {
		c.mu.Unlock()
		return nil
	}
	active := c.active
	c.active = nil
	c.gen++
	c.setStateLocked(domain.StateIdle)
	c.mu.Unlock()

	if active == nil {
		return nil
	}
	close(active.cancelled)
	c.logger.Debug().Msg("capture cancelled")
	if err := active.stream.Stop(); err != nil {
		return fmt.Errorf("stop capture stream: %w", err)
	}
	return nil
}

// Toggle stops an active capture or starts a new one, and reports whether
// the controller is listening afterwards.
func (c *Controller) Toggle(ctx context.Context) (bool, error) {
	switch c.State() {
	case domain.StateListening:
		return false, c.Stop()
	case domain.StateDraining:
		return false, fmt.Errorf("%w: capture is draining", apperrors.ErrCaptureBusy)
	default:
		if err := c.Start(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
}

func (c *Controller) run(active *capture) {
	var (
		timer  clock.Timer
		expiry <-chan time.Time
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		expiry = nil
	}
	defer stopTimer()

	fragments := active.stream.Fragments()
	cancelled := active.cancelled
	for {
		select {
		case f, ok := <-fragments:
			if !ok {
				c.finish(active)
				return
			}
			if !c.record(active, f) {
				continue
			}
			if timer == nil {
				timer = c.timers.NewTimer(c.silence)
			} else {
				timer.Stop()
				timer.Reset(c.silence)
			}
			expiry = timer.C()
		case <-expiry:
			expiry = nil
			c.drain(active)
		case <-cancelled:
			cancelled = nil
			stopTimer()
		}
	}
}

// record applies f to the transcript and reports whether the silence timer
// should be rearmed.
func (c *Controller) record(active *capture, f domain.Fragment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != active {
		return false
	}
	now := c.clock.Now()
	active.session.LastResultAt = now
	text := active.session.Transcript.Update(f)
	c.emitLocked(domain.Event{Kind: domain.EventTranscript, State: c.state, Transcript: text, At: now})
	return c.state == domain.StateListening
}

func (c *Controller) drain(active *capture) {
	c.mu.Lock()
	if c.active != active || c.state != domain.StateListening {
		c.mu.Unlock()
		return
	}
	active.session.State = domain.StateDraining
	c.setStateLocked(domain.StateDraining)
	c.mu.Unlock()

	c.logger.Debug().Dur("silence", c.silence).Msg("silence detected, stopping capture")
	if err := active.stream.Stop(); err != nil {
		c.logger.Warn().Err(err).Msg("stop capture stream")
	}
}

// finish runs once the device has closed the stream. Only a capture that was
// not cancelled completes an utterance.
func (c *Controller) finish(active *capture) {
	c.mu.Lock()
	if c.active != active {
		c.mu.Unlock()
		return
	}
	c.active = nil
	active.session.State = domain.StateIdle
	transcript := active.session.Transcript.String()
	streamErr := active.stream.Err()
	c.setStateLocked(domain.StateIdle)
	now := c.clock.Now()
	if streamErr != nil {
		c.emitLocked(domain.Event{Kind: domain.EventError, State: domain.StateIdle, Transcript: transcript, Err: streamErr, At: now})
		c.mu.Unlock()
		c.logger.Error().Err(streamErr).Msg("capture stream failed")
		return
	}
	c.mu.Unlock()

	c.logger.Debug().Str("transcript", transcript).Msg("utterance complete")
	c.events <- domain.Event{Kind: domain.EventUtteranceComplete, State: domain.StateIdle, Transcript: transcript, At: now}
}

func (c *Controller) setStateLocked(state domain.State) {
	if c.state == state {
		return
	}
	c.state = state
	c.emitLocked(domain.Event{Kind: domain.EventStateChanged, State: state, At: c.clock.Now()})
}

// emitLocked never blocks; when the consumer lags, progress events are dropped.
func (c *Controller) emitLocked(ev domain.Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Warn().Str("event", string(ev.Kind)).Msg("speech event dropped")
	}
}

func discard(stream speechout.Stream) {
	for range stream.Fragments() {
	}
}
