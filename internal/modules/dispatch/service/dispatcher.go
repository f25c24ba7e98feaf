package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	conversationdomain "murmur/internal/modules/conversation/domain"
	"murmur/internal/modules/dispatch/domain"
	dispatchout "murmur/internal/modules/dispatch/port/out"
	temporaldomain "murmur/internal/modules/temporal/domain"
	"murmur/internal/platform/clock"
	apperrors "murmur/internal/platform/errors"
	"murmur/internal/platform/id"
)

const defaultRequestTimeout = 60 * time.Second

type Options struct {
	RequestTimeout time.Duration
}

// Dispatcher turns user actions into remote requests and reconciles their
// completions into the session each request was bound to when issued.
type Dispatcher struct {
	transport dispatchout.Transport
	creds     dispatchout.Credentials
	conv      dispatchout.Conversation
	inspector dispatchout.AttachmentInspector
	extractor dispatchout.CandidateExtractor
	clock     clock.Clock
	ids       id.Generator
	logger    zerolog.Logger
	timeout   time.Duration

	inflight   sync.WaitGroup
	mu         sync.Mutex
	candidates []temporaldomain.Candidate
}

func NewDispatcher(
	transport dispatchout.Transport,
	creds dispatchout.Credentials,
	conv dispatchout.Conversation,
	inspector dispatchout.AttachmentInspector,
	extractor dispatchout.CandidateExtractor,
	clock clock.Clock,
	ids id.Generator,
	logger zerolog.Logger,
	opts Options,
) *Dispatcher {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Dispatcher{
		transport: transport,
		creds:     creds,
		conv:      conv,
		inspector: inspector,
		extractor: extractor,
		clock:     clock,
		ids:       ids,
		logger:    logger,
		timeout:   timeout,
	}
}

// SendText appends the user's text and sends it. Blank input is ignored and
// returns a nil Pending. A missing credential fails before anything is appended.
func (d *Dispatcher) SendText(ctx context.Context, text string) (*domain.Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	token, err := d.creds.Token(ctx)
	if err != nil {
		return nil, err
	}

	session := d.conv.Bind()
	pending := domain.NewPending(d.ids.New(), session.ID(), domain.RequestText)
	d.conv.AppendTo(session, conversationdomain.Message{
		Kind:          conversationdomain.KindText,
		Origin:        conversationdomain.OriginUser,
		Payload:       text,
		CorrelationID: pending.CorrelationID,
	})
	d.publishCandidates(text)

	req := domain.TextRequest{Message: text, Token: token, SessionID: session.ID()}
	d.launch(ctx, func(callCtx context.Context) {
		reply, err := d.transport.SendText(callCtx, req)
		if err != nil {
			d.fail(session, pending, err)
			return
		}
		d.succeed(session, pending, reply.Text(), "")
	})
	return pending, nil
}

// SendUtterance sends a completed speech transcript like typed text.
func (d *Dispatcher) SendUtterance(ctx context.Context, transcript string) (*domain.Pending, error) {
	return d.SendText(ctx, transcript)
}

// SendFile appends a provisional attachment record before the upload starts.
// The record is never retracted; its delivery annotation tracks the upload.
func (d *Dispatcher) SendFile(ctx context.Context, path, prompt string) (*domain.Pending, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: attachment path is required", apperrors.ErrInvalidInput)
	}
	token, err := d.creds.Token(ctx)
	if err != nil {
		return nil, err
	}
	attachment, err := d.inspector.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = domain.DefaultUploadPrompt
	}

	session := d.conv.Bind()
	pending := domain.NewPending(d.ids.New(), session.ID(), domain.RequestUpload)
	d.conv.AppendTo(session, conversationdomain.Message{
		Kind:          conversationdomain.KindForMIME(attachment.MIMEType),
		Origin:        conversationdomain.OriginUser,
		Payload:       path,
		CorrelationID: pending.CorrelationID,
		Attachment:    &attachment,
	})
	d.conv.Annotate(session, pending.CorrelationID, conversationdomain.Delivery{State: conversationdomain.DeliveryPending})

	req := domain.UploadRequest{
		Path:      path,
		Name:      attachment.Name,
		MIMEType:  attachment.MIMEType,
		Prompt:    prompt,
		Token:     token,
		SessionID: session.ID(),
	}
	d.launch(ctx, func(callCtx context.Context) {
		reply, err := d.transport.Upload(callCtx, req)
		if err != nil {
			d.conv.Annotate(session, pending.CorrelationID, conversationdomain.Delivery{State: conversationdomain.DeliveryFailed, Reason: err.Error()})
			d.fail(session, pending, err)
			return
		}
		d.conv.Annotate(session, pending.CorrelationID, conversationdomain.Delivery{State: conversationdomain.DeliveryConfirmed, RemoteRef: reply.RemoteRef})
		d.succeed(session, pending, reply.Text(), reply.RemoteRef)
	})
	return pending, nil
}

// Candidates returns the temporal candidates found in the latest user text.
func (d *Dispatcher) Candidates() []temporaldomain.Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]temporaldomain.Candidate(nil), d.candidates...)
}

// Drain waits for in-flight requests, or for ctx to end.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// launch runs call detached from the caller's cancellation but bounded by the request timeout.
func (d *Dispatcher) launch(ctx context.Context, call func(ctx context.Context)) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		call(callCtx)
	}()
}

func (d *Dispatcher) succeed(session *conversationdomain.Session, pending *domain.Pending, reply, remoteRef string) {
	d.conv.AppendTo(session, conversationdomain.Message{
		Kind:          conversationdomain.KindText,
		Origin:        conversationdomain.OriginAssistant,
		Payload:       reply,
		CorrelationID: pending.CorrelationID,
	})
	pending.Complete(domain.Outcome{Reply: reply})
	d.logger.Debug().
		Str("correlation_id", pending.CorrelationID).
		Str("session_id", pending.SessionID).
		Str("kind", string(pending.Kind)).
		Str("remote_ref", remoteRef).
		Msg("request completed")
}

func (d *Dispatcher) fail(session *conversationdomain.Session, pending *domain.Pending, err error) {
	text := domain.FailureText(pending.Kind, err)
	d.logger.Error().Err(err).
		Str("correlation_id", pending.CorrelationID).
		Str("session_id", pending.SessionID).
		Str("kind", string(pending.Kind)).
		Msg("request failed")
	d.conv.AppendTo(session, conversationdomain.Message{
		Kind:          conversationdomain.KindText,
		Origin:        conversationdomain.OriginAssistant,
		Payload:       text,
		CorrelationID: pending.CorrelationID,
		Synthetic:     true,
	})
	pending.Complete(domain.Outcome{Reply: text, Err: err})
}

func (d *Dispatcher) publishCandidates(text string) {
	if d.extractor == nil {
		return
	}
	found := d.extractor.Extract(text, d.clock.Now())
	d.mu.Lock()
	d.candidates = found
	d.mu.Unlock()
}
