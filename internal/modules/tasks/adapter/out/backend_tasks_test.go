package out_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tasksout "murmur/internal/modules/tasks/adapter/out"
	"murmur/internal/platform/backend"
	apperrors "murmur/internal/platform/errors"
)

func TestBackendTasksMapsRemoteShape(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		_, _ = w.Write([]byte(`{"success":true,"tasks":[
			{"id":12,"title":"dentist","datetime":"2026-10-20T17:00:00","priority":"high","notified":false},
			{"id":"abc","title":"call mom","datetime":"someday","notified":true}
		]}`))
	}))
	defer server.Close()

	source := tasksout.NewBackendTasks(backend.NewClient(server.URL, server.Client(), 5*time.Second))
	tasks, err := source.ListTasks(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "12", tasks[0].ID)
	assert.Equal(t, "high", tasks[0].Priority)
	assert.True(t, tasks[0].Due.Equal(time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC)))
	assert.Equal(t, "abc", tasks[1].ID)
	assert.True(t, tasks[1].Due.IsZero())
	assert.Equal(t, "someday", tasks[1].DueRaw)
	assert.True(t, tasks[1].Notified)
}

func TestBackendTasksDeleteRejection(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/tasks/12", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	source := tasksout.NewBackendTasks(backend.NewClient(server.URL, server.Client(), 5*time.Second))
	err := source.DeleteTask(context.Background(), "tok", "12")
	require.ErrorIs(t, err, apperrors.ErrRemoteRejection)
}
