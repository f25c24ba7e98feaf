package in

import (
	"context"
	"time"

	"murmur/internal/modules/temporal/dto"
	temporalin "murmur/internal/modules/temporal/port/in"
)

type CLIHandler struct {
	usecase temporalin.Usecase
}

func NewCLIHandler(usecase temporalin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Extract(ctx context.Context, text string, reference time.Time) ([]dto.CandidateOutput, error) {
	return h.usecase.Extract(ctx, dto.ExtractInput{Text: text, Reference: reference})
}
