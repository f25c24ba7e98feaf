package domain

import "strings"

type RequestKind string

const (
	RequestText   RequestKind = "text"
	RequestUpload RequestKind = "upload"
)

const DefaultUploadPrompt = "Please analyze this document or image and tell me what you see."

type TextRequest struct {
	Message   string
	Token     string
	SessionID string
}

type TextReply struct {
	Reply    string
	Response string
}

// Text picks the reply field, falling back to response and then to a placeholder.
func (r TextReply) Text() string {
	if strings.TrimSpace(r.Reply) != "" {
		return r.Reply
	}
	if strings.TrimSpace(r.Response) != "" {
		return r.Response
	}
	return MsgNoReply
}

type UploadRequest struct {
	Path      string
	Name      string
	MIMEType  string
	Prompt    string
	Token     string
	SessionID string
}

type UploadReply struct {
	Response  string
	RemoteRef string
}

func (r UploadReply) Text() string {
	if strings.TrimSpace(r.Response) != "" {
		return r.Response
	}
	return MsgNoAnalysis
}
