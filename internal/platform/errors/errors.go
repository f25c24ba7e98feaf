package apperrors

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrTransportFailure      = errors.New("transport failure")
	ErrRemoteRejection       = errors.New("remote rejection")
	ErrCaptureUnsupported    = errors.New("speech capture unsupported")
	ErrCaptureBusy           = errors.New("speech capture already active")
	ErrInvalidSession        = errors.New("invalid session")
	ErrUnsupportedAttachment = errors.New("unsupported attachment")
)
