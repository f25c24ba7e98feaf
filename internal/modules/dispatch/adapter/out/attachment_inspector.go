package out

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	conversationdomain "murmur/internal/modules/conversation/domain"
	dispatchout "murmur/internal/modules/dispatch/port/out"
	apperrors "murmur/internal/platform/errors"
	"rsc.io/pdf"
)

const sniffLen = 512

type LocalAttachmentInspector struct {
	maxSize int64
}

// NewLocalAttachmentInspector rejects files larger than maxSize bytes; zero disables the limit.
func NewLocalAttachmentInspector(maxSize int64) dispatchout.AttachmentInspector {
	return &LocalAttachmentInspector{maxSize: maxSize}
}

func (i *LocalAttachmentInspector) Inspect(_ context.Context, path string) (conversationdomain.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return conversationdomain.Attachment{}, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return conversationdomain.Attachment{}, fmt.Errorf("%w: %s is a directory", apperrors.ErrUnsupportedAttachment, path)
	}
	if i.maxSize > 0 && info.Size() > i.maxSize {
		return conversationdomain.Attachment{}, fmt.Errorf("%w: %s exceeds %d bytes", apperrors.ErrUnsupportedAttachment, path, i.maxSize)
	}

	mimeType, err := detectMIME(path)
	if err != nil {
		return conversationdomain.Attachment{}, err
	}
	attachment := conversationdomain.Attachment{Name: filepath.Base(path), MIMEType: mimeType, Size: info.Size()}
	if mimeType == "application/pdf" {
		if doc, err := pdf.Open(path); err == nil {
			attachment.Pages = doc.NumPage()
		}
	}
	return attachment, nil
}

// detectMIME prefers the extension and falls back to content sniffing.
func detectMIME(path string) (string, error) {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		mediaType, _, err := mime.ParseMediaType(byExt)
		if err == nil {
			return mediaType, nil
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(head[:n]))
	return mediaType, nil
}
