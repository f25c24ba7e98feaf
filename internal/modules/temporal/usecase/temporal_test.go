package usecase_test

import (
	"context"
	"testing"
	"time"

	"murmur/internal/modules/temporal/dto"
	"murmur/internal/modules/temporal/service"
	"murmur/internal/modules/temporal/usecase"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

func TestExtractUsesClockWhenReferenceMissing(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	uc := usecase.NewInteractor(service.NewExtractor(), fakeClock{now: now})

	out, err := uc.Extract(context.Background(), dto.ExtractInput{Text: "remind me tomorrow"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(out))
	}
	want := time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC)
	if !out[0].Start.Equal(want) || !out[0].End.Equal(want.Add(time.Hour)) {
		t.Fatalf("unexpected window %s..%s", out[0].Start, out[0].End)
	}
	if out[0].Exact {
		t.Fatalf("date-only candidate must not be exact")
	}
}

func TestExtractBlankTextIsEmpty(t *testing.T) {
	t.Parallel()
	uc := usecase.NewInteractor(service.NewExtractor(), fakeClock{now: time.Now()})
	out, err := uc.Extract(context.Background(), dto.ExtractInput{Text: "   "})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", out)
	}
}
