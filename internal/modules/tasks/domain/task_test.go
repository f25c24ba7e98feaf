package domain

import "testing"

func TestBoardRemoveAndRestoreKeepsPosition(t *testing.T) {
	t.Parallel()
	var b Board
	b.Replace([]Task{{ID: "1"}, {ID: "2", Notified: true}, {ID: "3"}})

	task, index, ok := b.Remove("2")
	if !ok || index != 1 || task.ID != "2" {
		t.Fatalf("remove = %+v %d %v", task, index, ok)
	}
	if _, _, ok := b.Remove("missing"); ok {
		t.Fatalf("expected missing task not to be removed")
	}
	b.Restore(task, index)

	got := b.Tasks("")
	if len(got) != 3 || got[0].ID != "1" || got[1].ID != "2" || got[2].ID != "3" {
		t.Fatalf("restored order = %+v", got)
	}
	if pending, completed := b.Counts(); pending != 2 || completed != 1 {
		t.Fatalf("counts = %d pending, %d completed", pending, completed)
	}
	if done := b.Tasks(StatusCompleted); len(done) != 1 || done[0].ID != "2" {
		t.Fatalf("completed filter = %+v", done)
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()
	for raw, want := range map[string]Status{"": "", "all": "", "Pending": StatusPending, "done": StatusCompleted} {
		got, ok := ParseStatus(raw)
		if !ok || got != want {
			t.Fatalf("ParseStatus(%q) = %q, %v", raw, got, ok)
		}
	}
	if _, ok := ParseStatus("archived"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}
