package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conversationdomain "murmur/internal/modules/conversation/domain"
	conversationservice "murmur/internal/modules/conversation/service"
	"murmur/internal/modules/dispatch/domain"
	"murmur/internal/modules/dispatch/service"
	temporalservice "murmur/internal/modules/temporal/service"
	"murmur/internal/platform/backend"
	apperrors "murmur/internal/platform/errors"
)

type fakeClock struct{}

func (fakeClock) Now() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) }

type seqID struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (s *seqID) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

type fakeCreds struct{ token string }

func (f fakeCreds) Token(context.Context) (string, error) {
	if f.token == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return f.token, nil
}

type fakeTransport struct {
	mu       sync.Mutex
	texts    []domain.TextRequest
	uploads  []domain.UploadRequest
	onText   func(ctx context.Context, req domain.TextRequest) (domain.TextReply, error)
	onUpload func(ctx context.Context, req domain.UploadRequest) (domain.UploadReply, error)
}

func (f *fakeTransport) SendText(ctx context.Context, req domain.TextRequest) (domain.TextReply, error) {
	f.mu.Lock()
	f.texts = append(f.texts, req)
	f.mu.Unlock()
	return f.onText(ctx, req)
}

func (f *fakeTransport) Upload(ctx context.Context, req domain.UploadRequest) (domain.UploadReply, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, req)
	f.mu.Unlock()
	return f.onUpload(ctx, req)
}

func (f *fakeTransport) textCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

type fakeInspector struct {
	attachment conversationdomain.Attachment
	err        error
}

func (f fakeInspector) Inspect(context.Context, string) (conversationdomain.Attachment, error) {
	return f.attachment, f.err
}

type fixture struct {
	manager    *conversationservice.Manager
	transport  *fakeTransport
	dispatcher *service.Dispatcher
}

func newFixture(token string, inspector fakeInspector) *fixture {
	manager := conversationservice.NewManager(fakeClock{}, &seqID{prefix: "session"}, nil, zerolog.Nop())
	transport := &fakeTransport{
		onText: func(_ context.Context, req domain.TextRequest) (domain.TextReply, error) {
			return domain.TextReply{Reply: "echo: " + req.Message}, nil
		},
		onUpload: func(context.Context, domain.UploadRequest) (domain.UploadReply, error) {
			return domain.UploadReply{Response: "a cat"}, nil
		},
	}
	dispatcher := service.NewDispatcher(
		transport,
		fakeCreds{token: token},
		manager,
		inspector,
		temporalservice.NewExtractor(),
		fakeClock{},
		&seqID{prefix: "req"},
		zerolog.Nop(),
		service.Options{RequestTimeout: 5 * time.Second},
	)
	return &fixture{manager: manager, transport: transport, dispatcher: dispatcher}
}

func wait(t *testing.T, p *domain.Pending) domain.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := p.Wait(ctx)
	require.NoError(t, err)
	return out
}

func payloads(msgs []conversationdomain.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Payload)
	}
	return out
}

func TestSendTextIgnoresBlankInput(t *testing.T) {
	t.Parallel()
	f := newFixture("tok", fakeInspector{})
	for _, text := range []string{"", "   ", "\n\t"} {
		p, err := f.dispatcher.SendText(context.Background(), text)
		require.NoError(t, err)
		assert.Nil(t, p)
	}
	assert.Empty(t, f.manager.Messages())
	assert.Equal(t, 0, f.transport.textCalls())
	assert.Empty(t, f.manager.SessionID(), "no id is allocated for ignored input")
}

func TestSendTextWithoutTokenAppendsNothing(t *testing.T) {
	t.Parallel()
	f := newFixture("", fakeInspector{})
	p, err := f.dispatcher.SendText(context.Background(), "hello")
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.Nil(t, p)
	assert.Empty(t, f.manager.Messages())
	assert.Equal(t, 0, f.transport.textCalls())
}

func TestSendTextAppendsUserThenReply(t *testing.T) {
	t.Parallel()
	f := newFixture("tok", fakeInspector{})
	release := make(chan struct{})
	f.transport.onText = func(_ context.Context, req domain.TextRequest) (domain.TextReply, error) {
		<-release
		return domain.TextReply{Reply: "hi there"}, nil
	}

	p, err := f.dispatcher.SendText(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, p)

	msgs := f.manager.Messages()
	require.Len(t, msgs, 1, "user record is visible before the reply")
	assert.Equal(t, conversationdomain.OriginUser, msgs[0].Origin)
	assert.Equal(t, p.CorrelationID, msgs[0].CorrelationID)

	close(release)
	out := wait(t, p)
	require.NoError(t, out.Err)
	assert.Equal(t, "hi there", out.Reply)
	assert.Equal(t, f.manager.SessionID(), out.SessionID)

	msgs = f.manager.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, conversationdomain.OriginAssistant, msgs[1].Origin)
	assert.Equal(t, "hi there", msgs[1].Payload)
	assert.False(t, msgs[1].Synthetic)

	f.transport.mu.Lock()
	defer f.transport.mu.Unlock()
	assert.Equal(t, domain.TextRequest{Message: "hello", Token: "tok", SessionID: out.SessionID}, f.transport.texts[0])
}

func TestSendTextReplyFallbacks(t *testing.T) {
	t.Parallel()
	cases := []struct {
		reply domain.TextReply
		want  string
	}{
		{domain.TextReply{Response: "from response"}, "from response"},
		{domain.TextReply{}, domain.MsgNoReply},
	}
	for _, tc := range cases {
		f := newFixture("tok", fakeInspector{})
		reply := tc.reply
		f.transport.onText = func(context.Context, domain.TextRequest) (domain.TextReply, error) { return reply, nil }
		p, err := f.dispatcher.SendText(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, tc.want, wait(t, p).Reply)
	}
}

func TestSendTextFailuresBecomeSyntheticMessages(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		err     error
		want    string
		wantErr error
	}{
		{"remote rejection", &backend.RemoteError{Status: 502}, domain.MsgBackendUnreachable, apperrors.ErrRemoteRejection},
		{"refused", fmt.Errorf("%w: %w", apperrors.ErrTransportFailure, syscall.ECONNREFUSED), domain.MsgBackendUnreachable, apperrors.ErrTransportFailure},
		{"reset", fmt.Errorf("%w: %w", apperrors.ErrTransportFailure, syscall.ECONNRESET), domain.MsgConnectionLost, apperrors.ErrTransportFailure},
		{"proxy", fmt.Errorf("%w: proxyconnect tcp: dial failed", apperrors.ErrTransportFailure), domain.MsgConnectionLost, apperrors.ErrTransportFailure},
		{"rejection body mentions proxy", &backend.RemoteError{Status: 502, Body: "upstream proxy error"}, domain.MsgBackendUnreachable, apperrors.ErrRemoteRejection},
		{"refused on a proxy path", fmt.Errorf("POST /proxy/chat/: %w: %w", apperrors.ErrTransportFailure, syscall.ECONNREFUSED), domain.MsgBackendUnreachable, apperrors.ErrTransportFailure},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture("tok", fakeInspector{})
			failure := tc.err
			f.transport.onText = func(context.Context, domain.TextRequest) (domain.TextReply, error) { return domain.TextReply{}, failure }

			p, err := f.dispatcher.SendText(context.Background(), "hello")
			require.NoError(t, err, "remote failures never escape as errors")
			out := wait(t, p)
			require.ErrorIs(t, out.Err, tc.wantErr)

			msgs := f.manager.Messages()
			require.Len(t, msgs, 2)
			assert.Equal(t, tc.want, msgs[1].Payload)
			assert.True(t, msgs[1].Synthetic)
			assert.Equal(t, conversationdomain.OriginAssistant, msgs[1].Origin)
		})
	}
}

func TestResponsesAppendInCompletionOrder(t *testing.T) {
	t.Parallel()
	f := newFixture("tok", fakeInspector{})
	gates := map[string]chan struct{}{"first": make(chan struct{}), "second": make(chan struct{})}
	f.transport.onText = func(_ context.Context, req domain.TextRequest) (domain.TextReply, error) {
		<-gates[req.Message]
		return domain.TextReply{Reply: "re:" + req.Message}, nil
	}

	p1, err := f.dispatcher.SendText(context.Background(), "first")
	require.NoError(t, err)
	p2, err := f.dispatcher.SendText(context.Background(), "second")
	require.NoError(t, err)

	close(gates["second"])
	wait(t, p2)
	close(gates["first"])
	wait(t, p1)

	assert.Equal(t, []string{"first", "second", "re:second", "re:first"}, payloads(f.manager.Messages()))
}

func TestLateReplyLandsInSessionBoundAtIssuance(t *testing.T) {
	t.Parallel()
	f := newFixture("tok", fakeInspector{})
	release := make(chan struct{})
	f.transport.onText = func(context.Context, domain.TextRequest) (domain.TextReply, error) {
		<-release
		return domain.TextReply{Reply: "late"}, nil
	}

	bound := f.manager.Current()
	p, err := f.dispatcher.SendText(context.Background(), "question")
	require.NoError(t, err)
	oldID := f.manager.SessionID()
	newID := f.manager.StartNew()
	require.NotEqual(t, oldID, newID)

	close(release)
	out := wait(t, p)
	assert.Equal(t, oldID, out.SessionID)
	assert.Equal(t, []string{"question", "late"}, payloads(bound.Messages()))
	assert.Empty(t, f.manager.Messages())
}

func TestCallerCancellationDoesNotAbortRequest(t *testing.T) {
	t.Parallel()
	f := newFixture("tok", fakeInspector{})
	release := make(chan struct{})
	f.transport.onText = func(ctx context.Context, _ domain.TextRequest) (domain.TextReply, error) {
		<-release
		if err := ctx.Err(); err != nil {
			return domain.TextReply{}, err
		}
		return domain.TextReply{Reply: "still here"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p, err := f.dispatcher.SendText(ctx, "hello")
	require.NoError(t, err)
	cancel()
	close(release)

	assert.Equal(t, "still here", wait(t, p).Reply)
}

func TestSendFileAppendsProvisionalRecordBeforeUpload(t *testing.T) {
	t.Parallel()
	f := newFixture("tok", fakeInspector{attachment: conversationdomain.Attachment{Name: "cat.png", MIMEType: "image/png", Size: 10}})
	release := make(chan struct{})
	f.transport.onUpload = func(context.Context, domain.UploadRequest) (domain.UploadReply, error) {
		<-release
		return domain.UploadReply{Response: "a cat", RemoteRef: "https://files.test/cat.png"}, nil
	}

	p, err := f.dispatcher.SendFile(context.Background(), "/tmp/cat.png", "")
	require.NoError(t, err)

	session := f.manager.Current()
	msgs := session.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, conversationdomain.KindImage, msgs[0].Kind)
	assert.Equal(t, "/tmp/cat.png", msgs[0].Payload)
	d, ok := session.Delivery(p.CorrelationID)
	require.True(t, ok)
	assert.Equal(t, conversationdomain.DeliveryPending, d.State)

	close(release)
	out := wait(t, p)
	require.NoError(t, out.Err)
	assert.Equal(t, "a cat", out.Reply)

	d, _ = session.Delivery(p.CorrelationID)
	assert.Equal(t, conversationdomain.DeliveryConfirmed, d.State)
	assert.Equal(t, "https://files.test/cat.png", d.RemoteRef)
	assert.Equal(t, []string{"/tmp/cat.png", "a cat"}, payloads(session.Messages()))

	f.transport.mu.Lock()
	defer f.transport.mu.Unlock()
	assert.Equal(t, domain.DefaultUploadPrompt, f.transport.uploads[0].Prompt)
	assert.Equal(t, "image/png", f.transport.uploads[0].MIMEType)
}

func TestSendFileFailureKeepsRecordAndAddsOneError(t *testing.T) {
	t.Parallel()
	f := newFixture("tok", fakeInspector{attachment: conversationdomain.Attachment{Name: "doc.pdf", MIMEType: "application/pdf", Pages: 3}})
	f.transport.onUpload = func(context.Context, domain.UploadRequest) (domain.UploadReply, error) {
		return domain.UploadReply{}, &backend.RemoteError{Status: 413}
	}

	p, err := f.dispatcher.SendFile(context.Background(), "/tmp/doc.pdf", "summarise")
	require.NoError(t, err)
	out := wait(t, p)
	require.ErrorIs(t, out.Err, apperrors.ErrRemoteRejection)

	session := f.manager.Current()
	msgs := session.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, conversationdomain.KindFile, msgs[0].Kind)
	assert.Equal(t, 3, msgs[0].Attachment.Pages)
	assert.Equal(t, domain.MsgUploadFailed, msgs[1].Payload)
	assert.True(t, msgs[1].Synthetic)

	d, _ := session.Delivery(p.CorrelationID)
	assert.Equal(t, conversationdomain.DeliveryFailed, d.State)
}

func TestSendFilePreconditions(t *testing.T) {
	t.Parallel()
	unauth := newFixture("", fakeInspector{})
	_, err := unauth.dispatcher.SendFile(context.Background(), "/tmp/x.png", "")
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.Empty(t, unauth.manager.Messages())

	broken := newFixture("tok", fakeInspector{err: errors.New("stat attachment: no such file")})
	_, err = broken.dispatcher.SendFile(context.Background(), "/tmp/missing.png", "")
	require.Error(t, err)
	assert.Empty(t, broken.manager.Messages())

	_, err = broken.dispatcher.SendFile(context.Background(), " ", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCandidatesFollowLatestUserText(t *testing.T) {
	t.Parallel()
	f := newFixture("tok", fakeInspector{})
	p, err := f.dispatcher.SendText(context.Background(), "dentist tomorrow at 5pm")
	require.NoError(t, err)

	got := f.dispatcher.Candidates()
	require.Len(t, got, 1)
	assert.Equal(t, "tomorrow at 5pm", got[0].Text)
	assert.True(t, got[0].Start.Equal(time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC)))

	wait(t, p)
	_, err = f.dispatcher.SendText(context.Background(), "thanks")
	require.NoError(t, err)
	assert.Empty(t, f.dispatcher.Candidates())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.dispatcher.Drain(ctx))
}

func TestPendingCompletesOnce(t *testing.T) {
	t.Parallel()
	p := domain.NewPending("c-1", "s-1", domain.RequestText)
	_, done := p.Outcome()
	assert.False(t, done)
	assert.True(t, p.Complete(domain.Outcome{Reply: "first"}))
	assert.False(t, p.Complete(domain.Outcome{Reply: "second"}))
	out, done := p.Outcome()
	assert.True(t, done)
	assert.Equal(t, "first", out.Reply)
	assert.Equal(t, "c-1", out.CorrelationID)
}
