package out

import (
	"context"

	"murmur/internal/modules/dispatch/domain"
	dispatchout "murmur/internal/modules/dispatch/port/out"
	"murmur/internal/platform/backend"
)

type BackendTransport struct {
	client *backend.Client
}

func NewBackendTransport(client *backend.Client) dispatchout.Transport {
	return &BackendTransport{client: client}
}

func (t *BackendTransport) SendText(ctx context.Context, req domain.TextRequest) (domain.TextReply, error) {
	out, err := t.client.Chat(ctx, backend.ChatRequest{UserMessage: req.Message, Token: req.Token, ChatID: req.SessionID})
	if err != nil {
		return domain.TextReply{}, err
	}
	return domain.TextReply{Reply: out.Reply, Response: out.Response}, nil
}

func (t *BackendTransport) Upload(ctx context.Context, req domain.UploadRequest) (domain.UploadReply, error) {
	out, err := t.client.Upload(ctx, backend.UploadRequest{
		Path:     req.Path,
		FileName: req.Name,
		MIMEType: req.MIMEType,
		Prompt:   req.Prompt,
		Token:    req.Token,
		ChatID:   req.SessionID,
	})
	if err != nil {
		return domain.UploadReply{}, err
	}
	return domain.UploadReply{Response: out.Response, RemoteRef: out.FileURL}, nil
}
