package dto

import "time"

type SendTextInput struct {
	Text string
}

type SendFileInput struct {
	Path   string
	Prompt string
}

type SendOutput struct {
	CorrelationID string
	SessionID     string
	Skipped       bool
}

type ReplyOutput struct {
	CorrelationID string
	SessionID     string
	Reply         string
	Failed        bool
	Error         string
}

type CandidateOutput struct {
	Text  string
	Start time.Time
	End   time.Time
	Rank  int
	Exact bool
}
