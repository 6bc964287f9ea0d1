package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rachitsh/studybuddy/internal/domain"
)

func TestSaveRequiresOwner(t *testing.T) {
	s := NewInMemoryStore()
	err := s.Save(context.Background(), domain.HistoryRecord{Query: "2+2?"})
	if !errors.Is(err, domain.ErrMissingOwner) {
		t.Fatalf("err = %v, want ErrMissingOwner", err)
	}
}

func TestListByOwnerIsolation(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Save(ctx, domain.HistoryRecord{OwnerID: "owner-a", Query: fmt.Sprintf("qa-%d", i)}); err != nil {
			t.Fatalf("save owner-a: %v", err)
		}
	}
	if err := s.Save(ctx, domain.HistoryRecord{OwnerID: "owner-b", Query: "qb-0"}); err != nil {
		t.Fatalf("save owner-b: %v", err)
	}

	got, err := s.ListByOwner(ctx, "owner-a", 0)
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for _, r := range got {
		if r.OwnerID != "owner-a" {
			t.Fatalf("record leaked across owners: %+v", r)
		}
	}
}

func TestListByOwnerOrderAndLimit(t *testing.T) {
	s := NewInMemoryStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Save(ctx, domain.HistoryRecord{OwnerID: "o", Query: fmt.Sprintf("q-%d", i)}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := s.ListByOwner(ctx, "o", 2)
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Query != "q-4" || got[1].Query != "q-3" {
		t.Fatalf("order = [%s %s], want most recent first", got[0].Query, got[1].Query)
	}
	if !got[0].SavedAt.After(got[1].SavedAt) {
		t.Fatalf("saved_at not descending: %v then %v", got[0].SavedAt, got[1].SavedAt)
	}
}

func TestGetScopedByOwner(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.Save(ctx, domain.HistoryRecord{ID: "rec-1", OwnerID: "owner-a", Query: "q"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := s.Get(ctx, "owner-a", "rec-1"); err != nil {
		t.Fatalf("get own record error = %v", err)
	}
	if _, err := s.Get(ctx, "owner-b", "rec-1"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("cross-owner get err = %v, want ErrRecordNotFound", err)
	}
	if _, err := s.Get(ctx, "", "rec-1"); !errors.Is(err, domain.ErrMissingOwner) {
		t.Fatalf("ownerless get err = %v, want ErrMissingOwner", err)
	}
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	if err := s.Save(ctx, domain.HistoryRecord{OwnerID: "o", Query: "q"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.ListByOwner(ctx, "o", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got[0].ID == "" || got[0].SavedAt.IsZero() {
		t.Fatalf("record missing id/timestamp: %+v", got[0])
	}
}
