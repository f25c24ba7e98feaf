package in

import (
	"context"

	"murmur/internal/modules/tasks/dto"
)

type Usecase interface {
	List(ctx context.Context, input dto.ListInput) (dto.ListOutput, error)
	Delete(ctx context.Context, id string) error
	Drafts(ctx context.Context, input dto.DraftInput) ([]dto.DraftOutput, error)
}
