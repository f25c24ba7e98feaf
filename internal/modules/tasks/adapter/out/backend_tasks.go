package out

import (
	"context"
	"fmt"
	"strings"
	"time"

	"murmur/internal/modules/tasks/domain"
	tasksout "murmur/internal/modules/tasks/port/out"
	"murmur/internal/platform/backend"
)

var dueLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

type BackendTasks struct {
	client *backend.Client
}

func NewBackendTasks(client *backend.Client) tasksout.TaskSource {
	return &BackendTasks{client: client}
}

func (b *BackendTasks) ListTasks(ctx context.Context, token string) ([]domain.Task, error) {
	remote, err := b.client.Tasks(ctx, token)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(remote))
	for _, t := range remote {
		out = append(out, domain.Task{
			ID:       string(t.ID),
			Title:    t.Title,
			Due:      parseDue(t.DateTime),
			DueRaw:   t.DateTime,
			Priority: t.Priority,
			Category: t.Category,
			Notes:    t.Notes,
			Notified: t.Notified,
		})
	}
	return out, nil
}

func (b *BackendTasks) DeleteTask(ctx context.Context, token, taskID string) error {
	if err := b.client.DeleteTask(ctx, token, taskID); err != nil {
		return fmt.Errorf("delete remote task: %w", err)
	}
	return nil
}

// parseDue returns the zero time when the backend sends a format it does not know.
func parseDue(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dueLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
