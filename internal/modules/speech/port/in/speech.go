package in

import (
	"context"

	"murmur/internal/modules/speech/dto"
)

type Usecase interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Toggle(ctx context.Context) (bool, error)
	Status(ctx context.Context) dto.StatusOutput
	Events() <-chan dto.EventOutput
}
