package domain

import (
	"strings"
	"sync"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// ParseStatus maps a filter name to a status. Empty and "all" return "" which matches every task.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return "", true
	case string(StatusPending):
		return StatusPending, true
	case string(StatusCompleted), "done":
		return StatusCompleted, true
	default:
		return "", false
	}
}

type Task struct {
	ID       string
	Title    string
	Due      time.Time
	DueRaw   string
	Priority string
	Category string
	Notes    string
	Notified bool
}

// Status is completed once the reminder for the task has fired.
func (t Task) Status() Status {
	if t.Notified {
		return StatusCompleted
	}
	return StatusPending
}

// Draft is a task suggestion derived from chat text; it is never sent anywhere.
type Draft struct {
	Title  string
	Start  time.Time
	End    time.Time
	Source string
	Exact  bool
}

// Board is the locally held task list.
type Board struct {
	mu    sync.Mutex
	tasks []Task
}

func (b *Board) Replace(tasks []Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = append([]Task(nil), tasks...)
}

// Tasks returns the tasks matching status, or all of them for an empty status.
func (b *Board) Tasks(status Status) []Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		if status == "" || t.Status() == status {
			out = append(out, t)
		}
	}
	return out
}

func (b *Board) Counts() (pending, completed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tasks {
		if t.Status() == StatusCompleted {
			completed++
		} else {
			pending++
		}
	}
	return pending, completed
}

// Remove takes the task out and reports where it was.
func (b *Board) Remove(id string) (Task, int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.tasks {
		if t.ID == id {
			b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
			return t, i, true
		}
	}
	return Task{}, -1, false
}

// Restore puts a removed task back at index, clamped to the current length.
func (b *Board) Restore(t Task, index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index > len(b.tasks) {
		index = len(b.tasks)
	}
	b.tasks = append(b.tasks, Task{})
	copy(b.tasks[index+1:], b.tasks[index:])
	b.tasks[index] = t
}
