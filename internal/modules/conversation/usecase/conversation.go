package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"murmur/internal/modules/conversation/domain"
	"murmur/internal/modules/conversation/dto"
	conversationin "murmur/internal/modules/conversation/port/in"
	conversationout "murmur/internal/modules/conversation/port/out"
	"murmur/internal/modules/conversation/service"
	apperrors "murmur/internal/platform/errors"
)

const defaultHistoryLimit = 50

type Interactor struct {
	manager *service.Manager
	remote  conversationout.HistorySource
	local   conversationout.HistoryIndex
	creds   conversationout.Credentials
	logger  zerolog.Logger
}

func NewInteractor(
	manager *service.Manager,
	remote conversationout.HistorySource,
	local conversationout.HistoryIndex,
	creds conversationout.Credentials,
	logger zerolog.Logger,
) conversationin.Usecase {
	return &Interactor{manager: manager, remote: remote, local: local, creds: creds, logger: logger}
}

func (i *Interactor) Current(_ context.Context) (dto.SessionOutput, error) {
	return sessionOutput(i.manager.Current()), nil
}

func (i *Interactor) StartNew(_ context.Context) (dto.SessionOutput, error) {
	i.manager.StartNew()
	return sessionOutput(i.manager.Current()), nil
}

func (i *Interactor) ListHistory(ctx context.Context, input dto.ListHistoryInput) ([]dto.SummaryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var summaries []domain.Summary
	if input.Local {
		if i.local == nil {
			return nil, fmt.Errorf("local history index is not configured")
		}
		local, err := i.local.ListSummaries(ctx, limit)
		if err != nil {
			return nil, err
		}
		summaries = local
	} else {
		token, err := i.creds.Token(ctx)
		if err != nil {
			return nil, err
		}
		remote, err := i.remote.ListConversations(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("list history: %w", err)
		}
		summaries = remote
		sort.SliceStable(summaries, func(a, b int) bool { return summaries[a].LastAt.After(summaries[b].LastAt) })
		if len(summaries) > limit {
			summaries = summaries[:limit]
		}
	}

	out := make([]dto.SummaryOutput, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, dto.SummaryOutput{SessionID: s.SessionID, Title: s.Title, LastAt: s.LastAt, Local: s.Local})
	}
	return out, nil
}

// OpenHistory resumes a stored conversation. Malformed history falls back to a
// fresh session, reported through Fallback rather than an error.
func (i *Interactor) OpenHistory(ctx context.Context, input dto.OpenHistoryInput) (dto.SessionOutput, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return dto.SessionOutput{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	token, err := i.creds.Token(ctx)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	messages, err := i.remote.LoadConversation(ctx, token, input.SessionID)
	if err != nil && !errors.Is(err, apperrors.ErrInvalidSession) {
		return dto.SessionOutput{}, fmt.Errorf("load conversation: %w", err)
	}
	if err == nil {
		err = i.manager.Resume(input.SessionID, input.Title, messages)
	}
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidSession) {
			return dto.SessionOutput{}, err
		}
		i.logger.Warn().Err(err).Str("session_id", input.SessionID).Msg("history unusable, starting a new session")
		i.manager.StartNew()
		out := sessionOutput(i.manager.Current())
		out.Fallback = true
		out.FallbackReason = err.Error()
		return out, nil
	}
	return sessionOutput(i.manager.Current()), nil
}

func (i *Interactor) Changes() <-chan struct{} {
	return i.manager.Changes()
}

func sessionOutput(session *domain.Session) dto.SessionOutput {
	messages := session.Messages()
	out := dto.SessionOutput{SessionID: session.ID(), Title: session.Title(), Messages: make([]dto.MessageOutput, 0, len(messages))}
	for _, m := range messages {
		item := dto.MessageOutput{
			Kind:          string(m.Kind),
			Origin:        string(m.Origin),
			Payload:       m.Payload,
			CorrelationID: m.CorrelationID,
			Synthetic:     m.Synthetic,
			At:            m.At,
		}
		if m.Attachment != nil {
			item.AttachmentName = m.Attachment.Name
			item.MIMEType = m.Attachment.MIMEType
			item.Pages = m.Attachment.Pages
		}
		if m.CorrelationID != "" && m.Origin == domain.OriginUser {
			if d, ok := session.Delivery(m.CorrelationID); ok {
				item.Delivery = string(d.State)
			}
		}
		out.Messages = append(out.Messages, item)
	}
	return out
}
