package out

import (
	"context"
	"fmt"
	"strings"
	"time"

	"murmur/internal/modules/conversation/domain"
	conversationout "murmur/internal/modules/conversation/port/out"
	"murmur/internal/platform/backend"
)

var lastAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"}

type BackendHistory struct {
	client *backend.Client
}

func NewBackendHistory(client *backend.Client) conversationout.HistorySource {
	return &BackendHistory{client: client}
}

func (h *BackendHistory) ListConversations(ctx context.Context, token string) ([]domain.Summary, error) {
	raw, err := h.client.Conversations(ctx, token)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Summary, 0, len(raw))
	for _, c := range raw {
		out = append(out, domain.Summary{SessionID: c.ChatID, Title: c.Title, LastAt: parseLastAt(c.LastAt)})
	}
	return out, nil
}

// LoadConversation maps wire records onto messages. Records with an unknown
// shape are reported as an invalid session instead of being dropped.
func (h *BackendHistory) LoadConversation(ctx context.Context, token, sessionID string) ([]domain.Message, error) {
	raw, err := h.client.Conversation(ctx, token, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(raw))
	for i, r := range raw {
		msg := domain.Message{
			Kind:    domain.Kind(strings.ToLower(strings.TrimSpace(r.Type))),
			Origin:  domain.ParseOrigin(r.Sender),
			Payload: r.Content,
		}
		if msg.Kind == "" && r.Content != "" {
			msg.Kind = domain.KindText
		}
		if err := msg.Validate(); err != nil {
			return nil, fmt.Errorf("history record %d: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func parseLastAt(raw string) time.Time {
	for _, layout := range lastAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
