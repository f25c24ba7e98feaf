package dto

import "time"

type MessageOutput struct {
	Kind           string
	Origin         string
	Payload        string
	CorrelationID  string
	Synthetic      bool
	AttachmentName string
	MIMEType       string
	Pages          int
	Delivery       string
	At             time.Time
}

type SessionOutput struct {
	SessionID      string
	Title          string
	Messages       []MessageOutput
	Fallback       bool
	FallbackReason string
}

type SummaryOutput struct {
	SessionID string
	Title     string
	LastAt    time.Time
	Local     bool
}

type ListHistoryInput struct {
	Local bool
	Limit int
}

type OpenHistoryInput struct {
	SessionID string
	Title     string
}
