package in

import (
	"context"

	"murmur/internal/modules/temporal/dto"
)

type Usecase interface {
	Extract(ctx context.Context, input dto.ExtractInput) ([]dto.CandidateOutput, error)
}
