package in

import (
	"context"

	conversationdto "murmur/internal/modules/conversation/dto"
	conversationin "murmur/internal/modules/conversation/port/in"
)

type CLIHandler struct {
	usecase conversationin.Usecase
}

func NewCLIHandler(usecase conversationin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Current(ctx context.Context) (conversationdto.SessionOutput, error) {
	return h.usecase.Current(ctx)
}

func (h CLIHandler) StartNew(ctx context.Context) (conversationdto.SessionOutput, error) {
	return h.usecase.StartNew(ctx)
}

func (h CLIHandler) ListHistory(ctx context.Context, local bool, limit int) ([]conversationdto.SummaryOutput, error) {
	return h.usecase.ListHistory(ctx, conversationdto.ListHistoryInput{Local: local, Limit: limit})
}

func (h CLIHandler) OpenHistory(ctx context.Context, sessionID, title string) (conversationdto.SessionOutput, error) {
	return h.usecase.OpenHistory(ctx, conversationdto.OpenHistoryInput{SessionID: sessionID, Title: title})
}

func (h CLIHandler) Changes() <-chan struct{} {
	return h.usecase.Changes()
}
