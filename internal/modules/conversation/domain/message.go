package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "murmur/internal/platform/errors"
)

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindFile  Kind = "file"
)

type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Attachment describes a local file referenced by an image, audio or file message.
type Attachment struct {
	Name     string
	MIMEType string
	Size     int64
	Pages    int
}

// Message is immutable once appended to a log.
type Message struct {
	Kind          Kind
	Origin        Origin
	Payload       string
	CorrelationID string
	Synthetic     bool
	Attachment    *Attachment
	At            time.Time
}

func (m Message) Validate() error {
	switch m.Kind {
	case KindText, KindImage, KindAudio, KindFile:
	case "":
		return fmt.Errorf("%w: message kind is required", apperrors.ErrInvalidSession)
	default:
		return fmt.Errorf("%w: unknown message kind %q", apperrors.ErrInvalidSession, m.Kind)
	}
	switch m.Origin {
	case OriginUser, OriginAssistant:
	case "":
		return fmt.Errorf("%w: message origin is required", apperrors.ErrInvalidSession)
	default:
		return fmt.Errorf("%w: unknown message origin %q", apperrors.ErrInvalidSession, m.Origin)
	}
	return nil
}

// KindForMIME picks the attachment kind for a MIME type.
func KindForMIME(mimeType string) Kind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "audio/"):
		return KindAudio
	default:
		return KindFile
	}
}

// ParseOrigin maps wire sender names onto origins. The backend calls the assistant "ai".
func ParseOrigin(sender string) Origin {
	switch strings.ToLower(strings.TrimSpace(sender)) {
	case "user":
		return OriginUser
	case "ai", "assistant", "bot":
		return OriginAssistant
	default:
		return Origin(sender)
	}
}
