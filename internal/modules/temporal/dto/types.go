package dto

import "time"

type ExtractInput struct {
	Text      string
	Reference time.Time
}

type CandidateOutput struct {
	Text  string
	Start time.Time
	End   time.Time
	Rank  int
	Exact bool
}
