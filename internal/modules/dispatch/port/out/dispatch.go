package out

import (
	"context"
	"time"

	conversationdomain "murmur/internal/modules/conversation/domain"
	"murmur/internal/modules/dispatch/domain"
	temporaldomain "murmur/internal/modules/temporal/domain"
)

type Transport interface {
	SendText(ctx context.Context, req domain.TextRequest) (domain.TextReply, error)
	Upload(ctx context.Context, req domain.UploadRequest) (domain.UploadReply, error)
}

type Credentials interface {
	Token(ctx context.Context) (string, error)
}

// Conversation is the session log requests are bound to and reconciled into.
type Conversation interface {
	Bind() *conversationdomain.Session
	AppendTo(session *conversationdomain.Session, msg conversationdomain.Message) int
	Annotate(session *conversationdomain.Session, correlationID string, d conversationdomain.Delivery)
}

type AttachmentInspector interface {
	Inspect(ctx context.Context, path string) (conversationdomain.Attachment, error)
}

type CandidateExtractor interface {
	Extract(text string, ref time.Time) []temporaldomain.Candidate
}
