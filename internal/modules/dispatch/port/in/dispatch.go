package in

import (
	"context"

	"murmur/internal/modules/dispatch/dto"
)

type Usecase interface {
	SendText(ctx context.Context, input dto.SendTextInput) (dto.SendOutput, error)
	SendUtterance(ctx context.Context, input dto.SendTextInput) (dto.SendOutput, error)
	SendFile(ctx context.Context, input dto.SendFileInput) (dto.SendOutput, error)
	Await(ctx context.Context, correlationID string) (dto.ReplyOutput, error)
	Candidates(ctx context.Context) ([]dto.CandidateOutput, error)
	Drain(ctx context.Context) error
}
