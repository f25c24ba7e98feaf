package usecase

import (
	"context"
	"fmt"
	"strings"

	"murmur/internal/modules/tasks/domain"
	"murmur/internal/modules/tasks/dto"
	tasksin "murmur/internal/modules/tasks/port/in"
	tasksout "murmur/internal/modules/tasks/port/out"
	"murmur/internal/modules/tasks/service"
	"murmur/internal/platform/clock"
	apperrors "murmur/internal/platform/errors"
)

type Interactor struct {
	svc       *service.Service
	extractor tasksout.CandidateExtractor
	clock     clock.Clock
}

func NewInteractor(svc *service.Service, extractor tasksout.CandidateExtractor, clock clock.Clock) tasksin.Usecase {
	return &Interactor{svc: svc, extractor: extractor, clock: clock}
}

// List serves the cached board unless a refresh is requested or nothing is cached yet.
func (i *Interactor) List(ctx context.Context, input dto.ListInput) (dto.ListOutput, error) {
	status, ok := domain.ParseStatus(input.Status)
	if !ok {
		return dto.ListOutput{}, fmt.Errorf("%w: unknown task status %q", apperrors.ErrInvalidInput, input.Status)
	}
	pending, completed := i.svc.Counts()
	tasks := i.svc.Cached(status)
	if input.Refresh || pending+completed == 0 {
		fresh, err := i.svc.List(ctx, status)
		if err != nil {
			return dto.ListOutput{}, err
		}
		tasks = fresh
		pending, completed = i.svc.Counts()
	}

	out := dto.ListOutput{Tasks: make([]dto.TaskOutput, 0, len(tasks)), Pending: pending, Completed: completed}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, dto.TaskOutput{
			ID:       t.ID,
			Title:    t.Title,
			Due:      t.Due,
			DueRaw:   t.DueRaw,
			Status:   string(t.Status()),
			Priority: t.Priority,
			Category: t.Category,
			Notes:    t.Notes,
		})
	}
	return out, nil
}

func (i *Interactor) Delete(ctx context.Context, id string) error {
	return i.svc.Delete(ctx, id)
}

func (i *Interactor) Drafts(_ context.Context, input dto.DraftInput) ([]dto.DraftOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return []dto.DraftOutput{}, nil
	}
	ref := input.Reference
	if ref.IsZero() {
		ref = i.clock.Now()
	}
	candidates := i.extractor.Extract(input.Text, ref)
	out := make([]dto.DraftOutput, 0, len(candidates))
	for _, c := range candidates {
		d := service.DraftFromCandidate(input.Text, c)
		out = append(out, dto.DraftOutput{Title: d.Title, Start: d.Start, End: d.End, Source: d.Source, Exact: d.Exact})
	}
	return out, nil
}
