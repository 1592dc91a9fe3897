package job

import (
	"strings"
	"testing"

	"github.com/deliberate-api/deliberate/internal/deliberation"
)

var testModels = []string{"a", "b", "c"}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore()

	created := store.Create("the thesis", "the context", testModels)

	if !strings.HasPrefix(created.ID, "dlb_") {
		t.Errorf("job ID = %q, want dlb_ prefix", created.ID)
	}
	if created.Status != StatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}

	got, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Thesis != "the thesis" || got.Context != "the context" {
		t.Errorf("job = %+v", got)
	}
	if len(got.Models) != 3 {
		t.Errorf("models = %v", got.Models)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore()

	if _, err := store.Get("dlb_missing"); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestStore_Lifecycle(t *testing.T) {
	store := NewStore()
	j := store.Create("t", "", testModels)

	store.SetRunning(j.ID)
	store.SetRound(j.ID, 2)

	got, err := store.Get(j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusRunning || got.CurrentRound != 2 {
		t.Errorf("job = %+v, want running at round 2", got)
	}

	result := &deliberation.DeliberationResult{Verdict: "done", RoundsCompleted: 3}
	store.Complete(j.ID, result)

	got, _ = store.Get(j.ID)
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Result == nil || got.Result.Verdict != "done" {
		t.Errorf("result = %+v", got.Result)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestStore_Fail(t *testing.T) {
	store := NewStore()
	j := store.Create("t", "", testModels)

	store.Fail(j.ID, "provider exploded")

	got, _ := store.Get(j.ID)
	if got.Status != StatusFailed || got.Error != "provider exploded" {
		t.Errorf("job = %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not set on failure")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := NewStore()

	for range 5 {
		store.Create("t", "", testModels)
	}

	listed := store.List(3)
	if len(listed) != 3 {
		t.Fatalf("listed %d jobs, want 3", len(listed))
	}
	for i := 1; i < len(listed); i++ {
		if listed[i].CreatedAt.After(listed[i-1].CreatedAt) {
			t.Errorf("list not newest-first at index %d", i)
		}
	}
}

func TestStore_CopyOnRead(t *testing.T) {
	store := NewStore()
	j := store.Create("t", "", testModels)

	got, _ := store.Get(j.ID)
	got.Status = StatusFailed

	again, _ := store.Get(j.ID)
	if again.Status != StatusPending {
		t.Error("mutating a returned job leaked into the store")
	}
}
