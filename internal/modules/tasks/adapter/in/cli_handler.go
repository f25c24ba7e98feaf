package in

import (
	"context"
	"time"

	tasksdto "murmur/internal/modules/tasks/dto"
	tasksin "murmur/internal/modules/tasks/port/in"
)

type CLIHandler struct {
	usecase tasksin.Usecase
}

func NewCLIHandler(usecase tasksin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, status string, refresh bool) (tasksdto.ListOutput, error) {
	return h.usecase.List(ctx, tasksdto.ListInput{Status: status, Refresh: refresh})
}

func (h CLIHandler) Delete(ctx context.Context, id string) error {
	return h.usecase.Delete(ctx, id)
}

func (h CLIHandler) Drafts(ctx context.Context, text string, reference time.Time) ([]tasksdto.DraftOutput, error) {
	return h.usecase.Drafts(ctx, tasksdto.DraftInput{Text: text, Reference: reference})
}
