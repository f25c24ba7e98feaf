package dto

import "time"

type ListInput struct {
	Status  string
	Refresh bool
}

type TaskOutput struct {
	ID       string
	Title    string
	Due      time.Time
	DueRaw   string
	Status   string
	Priority string
	Category string
	Notes    string
}

type ListOutput struct {
	Tasks     []TaskOutput
	Pending   int
	Completed int
}

type DraftInput struct {
	Text      string
	Reference time.Time
}

type DraftOutput struct {
	Title  string
	Start  time.Time
	End    time.Time
	Source string
	Exact  bool
}
