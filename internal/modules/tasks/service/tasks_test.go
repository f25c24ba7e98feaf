package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murmur/internal/modules/tasks/domain"
	"murmur/internal/modules/tasks/service"
	temporalservice "murmur/internal/modules/temporal/service"
	apperrors "murmur/internal/platform/errors"
)

type fakeCreds struct{ token string }

func (f fakeCreds) Token(context.Context) (string, error) {
	if f.token == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return f.token, nil
}

type fakeSource struct {
	tasks     []domain.Task
	deleteErr error
	deleted   []string
	tokens    []string
}

func (f *fakeSource) ListTasks(_ context.Context, token string) ([]domain.Task, error) {
	f.tokens = append(f.tokens, token)
	return f.tasks, nil
}

func (f *fakeSource) DeleteTask(_ context.Context, token, id string) error {
	f.tokens = append(f.tokens, token)
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func ids(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func seeded() *fakeSource {
	return &fakeSource{tasks: []domain.Task{
		{ID: "7", Title: "dentist"},
		{ID: "8", Title: "call mom", Notified: true},
		{ID: "9", Title: "gym"},
	}}
}

func TestListFiltersByStatus(t *testing.T) {
	t.Parallel()
	source := seeded()
	svc := service.NewService(source, fakeCreds{token: "tok"}, zerolog.Nop())

	pending, err := svc.List(context.Background(), domain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "9"}, ids(pending))
	assert.Equal(t, []string{"tok"}, source.tokens)
	assert.Equal(t, []string{"8"}, ids(svc.Cached(domain.StatusCompleted)))
}

func TestDeleteRemovesLocallyOnSuccess(t *testing.T) {
	t.Parallel()
	source := seeded()
	svc := service.NewService(source, fakeCreds{token: "tok"}, zerolog.Nop())
	_, err := svc.List(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "8"))
	assert.Equal(t, []string{"7", "9"}, ids(svc.Cached("")))
	assert.Equal(t, []string{"8"}, source.deleted)
}

func TestDeleteRestoresTaskWhenBackendRefuses(t *testing.T) {
	t.Parallel()
	source := seeded()
	source.deleteErr = errors.New("backend returned status 500")
	svc := service.NewService(source, fakeCreds{token: "tok"}, zerolog.Nop())
	_, err := svc.List(context.Background(), "")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "8")
	require.Error(t, err)
	assert.ErrorIs(t, err, source.deleteErr)
	assert.Equal(t, []string{"7", "8", "9"}, ids(svc.Cached("")), "restored at its original position")
}

func TestDeleteUncachedTaskStillCallsBackend(t *testing.T) {
	t.Parallel()
	source := seeded()
	svc := service.NewService(source, fakeCreds{token: "tok"}, zerolog.Nop())

	require.NoError(t, svc.Delete(context.Background(), " 42 "))
	assert.Equal(t, []string{"42"}, source.deleted)
}

func TestDeletePreconditions(t *testing.T) {
	t.Parallel()
	source := seeded()
	svc := service.NewService(source, fakeCreds{}, zerolog.Nop())

	require.ErrorIs(t, svc.Delete(context.Background(), "7"), apperrors.ErrUnauthenticated)
	require.ErrorIs(t, svc.Delete(context.Background(), ""), apperrors.ErrInvalidInput)
	assert.Empty(t, source.deleted)
}

func TestDraftFromCandidateCutsTimeExpression(t *testing.T) {
	t.Parallel()
	ref := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	text := "dentist appointment tomorrow at 5pm."
	candidates := temporalservice.NewExtractor().Extract(text, ref)
	require.Len(t, candidates, 1)

	draft := service.DraftFromCandidate(text, candidates[0])
	assert.Equal(t, "dentist appointment", draft.Title)
	assert.Equal(t, "tomorrow at 5pm", draft.Source)
	assert.True(t, draft.Start.Equal(time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Hour, draft.End.Sub(draft.Start))
	assert.True(t, draft.Exact)
}
