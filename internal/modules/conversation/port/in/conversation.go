package in

import (
	"context"

	"murmur/internal/modules/conversation/dto"
)

type Usecase interface {
	Current(ctx context.Context) (dto.SessionOutput, error)
	StartNew(ctx context.Context) (dto.SessionOutput, error)
	ListHistory(ctx context.Context, input dto.ListHistoryInput) ([]dto.SummaryOutput, error)
	OpenHistory(ctx context.Context, input dto.OpenHistoryInput) (dto.SessionOutput, error)
	Changes() <-chan struct{}
}
