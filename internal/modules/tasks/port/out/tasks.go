package out

import (
	"context"
	"time"

	"murmur/internal/modules/tasks/domain"
	temporaldomain "murmur/internal/modules/temporal/domain"
)

type TaskSource interface {
	ListTasks(ctx context.Context, token string) ([]domain.Task, error)
	DeleteTask(ctx context.Context, token, taskID string) error
}

type Credentials interface {
	Token(ctx context.Context) (string, error)
}

type CandidateExtractor interface {
	Extract(text string, ref time.Time) []temporaldomain.Candidate
}
