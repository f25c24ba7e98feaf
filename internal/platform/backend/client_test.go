package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murmur/internal/platform/backend"
	apperrors "murmur/internal/platform/errors"
)

func TestChatPostsJSONBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"user_message": "hi", "token": "tok", "chat_id": "c-1"}, body)
		_, _ = io.WriteString(w, `{"reply":"hello back"}`)
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL+"/", nil, time.Second)
	out, err := client.Chat(context.Background(), backend.ChatRequest{UserMessage: "hi", Token: "tok", ChatID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, "hello back", out.Reply)
}

func TestUploadSendsMultipartFields(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("attachment body"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat-with-upload/", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "tok", r.FormValue("token"))
		assert.Equal(t, "c-9", r.FormValue("chat_id"))
		assert.JSONEq(t, `{"sender":"user","text":"what is this?"}`, r.FormValue("prompt"))
		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			raw, _ := io.ReadAll(file)
			assert.Equal(t, "attachment body", string(raw))
			assert.Equal(t, "note.txt", header.Filename)
			assert.Equal(t, "text/plain", header.Header.Get("Content-Type"))
		}
		_, _ = io.WriteString(w, `{"response":"a note"}`)
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, nil, time.Second)
	out, err := client.Upload(context.Background(), backend.UploadRequest{
		Path: path, MIMEType: "text/plain", Prompt: "what is this?", Token: "tok", ChatID: "c-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "a note", out.Response)
}

func TestNonSuccessStatusIsRemoteRejection(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := backend.NewClient(srv.URL, nil, time.Second).Chat(context.Background(), backend.ChatRequest{UserMessage: "x"})
	require.ErrorIs(t, err, apperrors.ErrRemoteRejection)
	var remote *backend.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadGateway, remote.Status)
	assert.Equal(t, "boom", remote.Body)
}

func TestUnreachableBackendIsTransportFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := backend.NewClient(url, nil, time.Second).Chat(context.Background(), backend.ChatRequest{UserMessage: "x"})
	require.ErrorIs(t, err, apperrors.ErrTransportFailure)
}

func TestHistoryAndTasksDecodeWireShapes(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/conversations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		_, _ = io.WriteString(w, `{"success":true,"conversations":[{"chat_id":"c-1","title":"Trip","last_at":"2026-10-18T09:00:00"}]}`)
	})
	mux.HandleFunc("/api/conversations/c-1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"messages":[{"type":"text","sender":"user","content":"hi"},{"type":"text","sender":"ai","content":"hey"}]}`)
	})
	mux.HandleFunc("/api/tasks", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"tasks":[{"id":7,"title":"Dentist","datetime":"2026-10-20T17:00:00","priority":"high","category":"health","notes":"","notified":false},{"id":"t-8","title":"Call","datetime":"","notified":true}]}`)
	})
	mux.HandleFunc("/api/tasks/7", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	client := backend.NewClient(srv.URL, nil, time.Second)
	ctx := context.Background()

	summaries, err := client.Conversations(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "c-1", summaries[0].ChatID)

	messages, err := client.Conversation(ctx, "tok", "c-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "ai", messages[1].Sender)

	tasks, err := client.Tasks(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, backend.FlexibleID("7"), tasks[0].ID)
	assert.Equal(t, backend.FlexibleID("t-8"), tasks[1].ID)

	require.NoError(t, client.DeleteTask(ctx, "tok", "7"))
}

func TestUnsuccessfulEnvelopeIsRejected(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":false}`)
	}))
	defer srv.Close()

	_, err := backend.NewClient(srv.URL, nil, time.Second).Tasks(context.Background(), "tok")
	require.ErrorIs(t, err, apperrors.ErrRemoteRejection)
}
