package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "murmur/internal/platform/errors"
)

const maxErrorBody = 2048

// RemoteError is a non-success answer from the backend.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error { return apperrors.ErrRemoteRejection }

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client against baseURL. A nil httpClient uses a client with timeout.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type ChatRequest struct {
	UserMessage string `json:"user_message"`
	Token       string `json:"token"`
	ChatID      string `json:"chat_id"`
}

type ChatResponse struct {
	Reply    string `json:"reply"`
	Response string `json:"response"`
}

type UploadRequest struct {
	Path     string
	FileName string
	MIMEType string
	Prompt   string
	Token    string
	ChatID   string
}

type UploadResponse struct {
	Response string `json:"response"`
	FileURL  string `json:"file_url"`
}

type ConversationSummary struct {
	ChatID string `json:"chat_id"`
	Title  string `json:"title"`
	LastAt string `json:"last_at"`
}

type ConversationMessage struct {
	Type    string `json:"type"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type Task struct {
	ID       FlexibleID `json:"id"`
	Title    string     `json:"title"`
	DateTime string     `json:"datetime"`
	Priority string     `json:"priority"`
	Category string     `json:"category"`
	Notes    string     `json:"notes"`
	Notified bool       `json:"notified"`
}

// FlexibleID accepts both numeric and string identifiers.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

type promptEnvelope struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

func (c *Client) Chat(ctx context.Context, in ChatRequest) (ChatResponse, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("encode chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/", bytes.NewReader(payload))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	var out ChatResponse
	if err := c.do(req, &out); err != nil {
		return ChatResponse{}, err
	}
	return out, nil
}

func (c *Client) Upload(ctx context.Context, in UploadRequest) (UploadResponse, error) {
	prompt, err := json.Marshal(promptEnvelope{Sender: "user", Text: in.Prompt})
	if err != nil {
		return UploadResponse{}, fmt.Errorf("encode prompt: %w", err)
	}
	file, err := os.Open(in.Path)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("open attachment: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	name := in.FileName
	if name == "" {
		name = filepath.Base(in.Path)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	contentType := in.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return UploadResponse{}, fmt.Errorf("copy attachment: %w", err)
	}
	for _, field := range [][2]string{{"prompt", string(prompt)}, {"token", in.Token}, {"chat_id", in.ChatID}} {
		if err := form.WriteField(field[0], field[1]); err != nil {
			return UploadResponse{}, fmt.Errorf("write %s field: %w", field[0], err)
		}
	}
	if err := form.Close(); err != nil {
		return UploadResponse{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat-with-upload/", &body)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	var out UploadResponse
	if err := c.do(req, &out); err != nil {
		return UploadResponse{}, err
	}
	return out, nil
}

func (c *Client) Conversations(ctx context.Context, token string) ([]ConversationSummary, error) {
	var out struct {
		Success       bool                  `json:"success"`
		Conversations []ConversationSummary `json:"conversations"`
	}
	if err := c.get(ctx, "/api/conversations", token, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("list conversations: %w", apperrors.ErrRemoteRejection)
	}
	return out.Conversations, nil
}

func (c *Client) Conversation(ctx context.Context, token, chatID string) ([]ConversationMessage, error) {
	var out struct {
		Success  bool                   `json:"success"`
		Messages []ConversationMessage `json:"messages"`
	}
	if err := c.get(ctx, "/api/conversations/"+url.PathEscape(chatID), token, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("load conversation: %w", apperrors.ErrRemoteRejection)
	}
	return out.Messages, nil
}

func (c *Client) Tasks(ctx context.Context, token string) ([]Task, error) {
	var out struct {
		Success bool   `json:"success"`
		Tasks   []Task `json:"tasks"`
	}
	if err := c.get(ctx, "/api/tasks", token, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("list tasks: %w", apperrors.ErrRemoteRejection)
	}
	return out.Tasks, nil
}

func (c *Client) DeleteTask(ctx context.Context, token, taskID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("/api/tasks/"+url.PathEscape(taskID), token), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, token), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) endpoint(path, token string) string {
	return c.baseURL + path + "?" + url.Values{"token": []string{token}}.Encode()
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, apperrors.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%s %s: decode response: %w: %w", req.Method, req.URL.Path, apperrors.ErrTransportFailure, err)
	}
	return nil
}
