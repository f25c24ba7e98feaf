package domain

import (
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	apperrors "murmur/internal/platform/errors"
)

const (
	MsgNoReply            = "⚠ No response from AI"
	MsgNoAnalysis         = "⚠ No analysis received"
	MsgConnectionLost     = "⚠ Connection lost. Please try again."
	MsgBackendUnreachable = "⚠ Failed to reach backend"
	MsgUploadFailed       = "⚠ File upload failed"
)

var connectionLostSignatures = []string{"econnreset", "connection reset", "proxy", "broken pipe"}

// ConnectionLost reports whether err looks like a dropped connection rather than a refusal.
// A remote rejection is never a lost connection, whatever its body says.
func ConnectionLost(err error) bool {
	if err == nil || errors.Is(err, apperrors.ErrRemoteRejection) {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	cause := strings.ToLower(transportCause(err))
	for _, sig := range connectionLostSignatures {
		if strings.Contains(cause, sig) {
			return true
		}
	}
	return false
}

// transportCause is the text of the network-level failure, without the
// request method, URL or path that callers wrap around it.
func transportCause(err error) string {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Error()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	msg := err.Error()
	if errors.Is(err, apperrors.ErrTransportFailure) {
		marker := apperrors.ErrTransportFailure.Error()
		if i := strings.LastIndex(msg, marker); i >= 0 {
			return msg[i+len(marker):]
		}
	}
	return msg
}

// FailureText is the synthetic assistant message shown for a failed request.
func FailureText(kind RequestKind, err error) string {
	if ConnectionLost(err) {
		return MsgConnectionLost
	}
	if kind == RequestUpload {
		return MsgUploadFailed
	}
	return MsgBackendUnreachable
}
