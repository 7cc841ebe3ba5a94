package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

func TestCreateStage_SecondDefaultRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedProject(t, s, "proj-1", "Apollo", "user-1")

	second := &domain.Stage{
		ID: "stage-2", ProjectID: "proj-1", Name: "Also Default", IsDefault: true,
	}
	err := s.CreateStage(ctx, second)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestListProjectStages_BoardOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedProject(t, s, "proj-1", "Apollo", "user-1")

	for _, st := range []*domain.Stage{
		{ID: "stage-rev", ProjectID: "proj-1", Name: "Review", Sequence: 2},
		{ID: "stage-prog", ProjectID: "proj-1", Name: "In Progress", Sequence: 1},
	} {
		if err := s.CreateStage(ctx, st); err != nil {
			t.Fatalf("CreateStage %s: %v", st.Name, err)
		}
	}

	stages, err := s.ListProjectStages(ctx, "proj-1")
	if err != nil {
		t.Fatalf("ListProjectStages: %v", err)
	}
	if len(stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(stages))
	}
	// Default stage seeded with sequence 0 comes first.
	if !stages[0].IsDefault {
		t.Errorf("expected default stage first, got %s", stages[0].Name)
	}
	if stages[1].ID != "stage-prog" || stages[2].ID != "stage-rev" {
		t.Errorf("unexpected order: %s, %s", stages[1].ID, stages[2].ID)
	}
}

func TestDeleteStage_ReassignsTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedProject(t, s, "proj-1", "Apollo", "user-1")

	doing := &domain.Stage{ID: "stage-doing", ProjectID: "proj-1", Name: "Doing", Sequence: 1}
	if err := s.CreateStage(ctx, doing); err != nil {
		t.Fatalf("CreateStage: %v", err)
	}

	task := seedTask(t, s, "task-1", "proj-1", "user-1")
	task.StageID = "stage-doing"
	if err := s.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	moved, err := s.DeleteStage(ctx, "stage-doing")
	if err != nil {
		t.Fatalf("DeleteStage: %v", err)
	}
	if moved != 1 {
		t.Errorf("expected 1 moved task, got %d", moved)
	}

	got, err := s.GetTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.StageID != "proj-1-default" {
		t.Errorf("task should land in default stage, got %s", got.StageID)
	}

	if _, err := s.GetStage(ctx, "stage-doing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stage should be gone, got %v", err)
	}
}

func TestDeleteStage_DefaultRefused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedProject(t, s, "proj-1", "Apollo", "user-1")

	_, err := s.DeleteStage(ctx, "proj-1-default")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	// Still there.
	if _, err := s.GetDefaultStage(ctx, "proj-1"); err != nil {
		t.Errorf("default stage should survive: %v", err)
	}
}

func TestDeleteStage_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.DeleteStage(context.Background(), "stage-ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStage_RenameAndReorder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedProject(t, s, "proj-1", "Apollo", "user-1")

	st := &domain.Stage{ID: "stage-1", ProjectID: "proj-1", Name: "Doing", Sequence: 1}
	if err := s.CreateStage(ctx, st); err != nil {
		t.Fatalf("CreateStage: %v", err)
	}

	st.Name = "In Review"
	st.Sequence = 5
	if err := s.UpdateStage(ctx, st); err != nil {
		t.Fatalf("UpdateStage: %v", err)
	}

	got, err := s.GetStage(ctx, "stage-1")
	if err != nil {
		t.Fatalf("GetStage: %v", err)
	}
	if got.Name != "In Review" || got.Sequence != 5 {
		t.Errorf("got %q seq=%d", got.Name, got.Sequence)
	}
}
