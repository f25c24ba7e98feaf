package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"murmur/internal/modules/tasks/domain"
	tasksout "murmur/internal/modules/tasks/port/out"
	temporaldomain "murmur/internal/modules/temporal/domain"
	apperrors "murmur/internal/platform/errors"
)

type Service struct {
	source tasksout.TaskSource
	creds  tasksout.Credentials
	board  *domain.Board
	logger zerolog.Logger
}

func NewService(source tasksout.TaskSource, creds tasksout.Credentials, logger zerolog.Logger) *Service {
	return &Service{source: source, creds: creds, board: &domain.Board{}, logger: logger}
}

// List refreshes the board from the backend and returns the tasks matching status.
func (s *Service) List(ctx context.Context, status domain.Status) ([]domain.Task, error) {
	token, err := s.creds.Token(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.source.ListTasks(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	s.board.Replace(tasks)
	return s.board.Tasks(status), nil
}

// Cached returns the board as of the last List without calling the backend.
func (s *Service) Cached(status domain.Status) []domain.Task {
	return s.board.Tasks(status)
}

func (s *Service) Counts() (pending, completed int) {
	return s.board.Counts()
}

// Delete removes the task locally before asking the backend, and puts it
// back where it was if the backend refuses.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: task id is required", apperrors.ErrInvalidInput)
	}
	token, err := s.creds.Token(ctx)
	if err != nil {
		return err
	}

	task, index, found := s.board.Remove(id)
	if err := s.source.DeleteTask(ctx, token, id); err != nil {
		if found {
			s.board.Restore(task, index)
		}
		s.logger.Warn().Err(err).Str("task_id", id).Msg("task delete rejected, restored")
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	s.logger.Debug().Str("task_id", id).Bool("cached", found).Msg("task deleted")
	return nil
}

// DraftFromCandidate suggests a task for the time mentioned in text. The
// time expression is cut out of the title.
func DraftFromCandidate(text string, c temporaldomain.Candidate) domain.Draft {
	title := text
	if c.Index >= 0 && c.Index+len(c.Text) <= len(text) && text[c.Index:c.Index+len(c.Text)] == c.Text {
		title = text[:c.Index] + " " + text[c.Index+len(c.Text):]
	}
	title = strings.Trim(strings.Join(strings.Fields(title), " "), " ,.;:!?-")
	if title == "" {
		title = strings.TrimSpace(text)
	}
	return domain.Draft{Title: title, Start: c.Start, End: c.End, Source: c.Text, Exact: c.TimeCertain}
}
