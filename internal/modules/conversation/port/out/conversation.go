package out

import (
	"context"

	"murmur/internal/modules/conversation/domain"
)

// TitleHook is notified once, when a brand-new session receives its first message.
type TitleHook interface {
	SessionTitled(ctx context.Context, summary domain.Summary) error
}

// HistoryIndex is the local record of sessions started on this machine.
type HistoryIndex interface {
	TitleHook
	ListSummaries(ctx context.Context, limit int) ([]domain.Summary, error)
}

// HistorySource reads conversations persisted by the remote service.
type HistorySource interface {
	ListConversations(ctx context.Context, token string) ([]domain.Summary, error)
	LoadConversation(ctx context.Context, token, sessionID string) ([]domain.Message, error)
}

type Credentials interface {
	Token(ctx context.Context) (string, error)
}
