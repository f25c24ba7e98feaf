package in

import (
	"context"

	dispatchdto "murmur/internal/modules/dispatch/dto"
	dispatchin "murmur/internal/modules/dispatch/port/in"
)

type CLIHandler struct {
	usecase dispatchin.Usecase
}

func NewCLIHandler(usecase dispatchin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) SendText(ctx context.Context, text string) (dispatchdto.SendOutput, error) {
	return h.usecase.SendText(ctx, dispatchdto.SendTextInput{Text: text})
}

func (h CLIHandler) SendUtterance(ctx context.Context, transcript string) (dispatchdto.SendOutput, error) {
	return h.usecase.SendUtterance(ctx, dispatchdto.SendTextInput{Text: transcript})
}

func (h CLIHandler) SendFile(ctx context.Context, path, prompt string) (dispatchdto.SendOutput, error) {
	return h.usecase.SendFile(ctx, dispatchdto.SendFileInput{Path: path, Prompt: prompt})
}

func (h CLIHandler) Await(ctx context.Context, correlationID string) (dispatchdto.ReplyOutput, error) {
	return h.usecase.Await(ctx, correlationID)
}

func (h CLIHandler) Candidates(ctx context.Context) ([]dispatchdto.CandidateOutput, error) {
	return h.usecase.Candidates(ctx)
}

func (h CLIHandler) Drain(ctx context.Context) error {
	return h.usecase.Drain(ctx)
}
