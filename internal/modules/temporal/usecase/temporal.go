package usecase

import (
	"context"
	"strings"

	"murmur/internal/modules/temporal/dto"
	temporalin "murmur/internal/modules/temporal/port/in"
	"murmur/internal/modules/temporal/service"
	"murmur/internal/platform/clock"
)

type Interactor struct {
	extractor *service.Extractor
	clock     clock.Clock
}

func NewInteractor(extractor *service.Extractor, clock clock.Clock) temporalin.Usecase {
	return &Interactor{extractor: extractor, clock: clock}
}

func (i *Interactor) Extract(_ context.Context, input dto.ExtractInput) ([]dto.CandidateOutput, error) {
	ref := input.Reference
	if ref.IsZero() {
		ref = i.clock.Now()
	}
	if strings.TrimSpace(input.Text) == "" {
		return []dto.CandidateOutput{}, nil
	}
	candidates := i.extractor.Extract(input.Text, ref)
	out := make([]dto.CandidateOutput, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, dto.CandidateOutput{Text: c.Text, Start: c.Start, End: c.End, Rank: c.Rank, Exact: c.TimeCertain})
	}
	return out, nil
}
