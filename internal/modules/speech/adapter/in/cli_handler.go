package in

import (
	"context"

	speechdto "murmur/internal/modules/speech/dto"
	speechin "murmur/internal/modules/speech/port/in"
)

type CLIHandler struct {
	usecase speechin.Usecase
}

func NewCLIHandler(usecase speechin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context) error {
	return h.usecase.Start(ctx)
}

func (h CLIHandler) Stop(ctx context.Context) error {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Toggle(ctx context.Context) (bool, error) {
	return h.usecase.Toggle(ctx)
}

func (h CLIHandler) Status(ctx context.Context) speechdto.StatusOutput {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Events() <-chan speechdto.EventOutput {
	return h.usecase.Events()
}
