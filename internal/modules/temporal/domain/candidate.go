package domain

import "time"

const (
	// EventWindow is the fixed length given to every derived event.
	EventWindow = time.Hour
	// DefaultHour applies when an expression names a day but no time.
	DefaultHour = 12
)

// Candidate is one resolved temporal expression found in free text.
type Candidate struct {
	Text        string
	Index       int
	Start       time.Time
	End         time.Time
	Rank        int
	DateCertain bool
	TimeCertain bool
}

func NewCandidate(text string, index int, start time.Time, rank int, dateCertain, timeCertain bool) Candidate {
	return Candidate{
		Text:        text,
		Index:       index,
		Start:       start,
		End:         start.Add(EventWindow),
		Rank:        rank,
		DateCertain: dateCertain,
		TimeCertain: timeCertain,
	}
}
