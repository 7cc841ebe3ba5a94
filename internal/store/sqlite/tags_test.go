package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := &domain.Tag{ID: "tag-1", Name: "urgent", Color: "#ff0000"}
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTag(ctx, "tag-1")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if got.Name != "urgent" || got.Color != "#ff0000" {
		t.Errorf("got %+v", got)
	}

	byName, err := s.GetTagByName(ctx, "urgent")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if byName.ID != "tag-1" {
		t.Errorf("ID: got %q, want tag-1", byName.ID)
	}
}

func TestCreateTag_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTag(ctx, &domain.Tag{ID: "tag-1", Name: "urgent", Color: "#ff0000"}); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	err := s.CreateTag(ctx, &domain.Tag{ID: "tag-2", Name: "urgent", Color: "#00ff00"})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestTagProject_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedProject(t, s, "proj-1", "Apollo", "user-1")
	if err := s.CreateTag(ctx, &domain.Tag{ID: "tag-1", Name: "urgent", Color: "#ff0000"}); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	// Attaching twice is fine.
	if err := s.TagProject(ctx, "tag-1", "proj-1"); err != nil {
		t.Fatalf("TagProject: %v", err)
	}
	if err := s.TagProject(ctx, "tag-1", "proj-1"); err != nil {
		t.Fatalf("TagProject (repeat): %v", err)
	}

	tags, err := s.ListProjectTags(ctx, "proj-1")
	if err != nil {
		t.Fatalf("ListProjectTags: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}

	// Detaching twice is fine too.
	if err := s.UntagProject(ctx, "tag-1", "proj-1"); err != nil {
		t.Fatalf("UntagProject: %v", err)
	}
	if err := s.UntagProject(ctx, "tag-1", "proj-1"); err != nil {
		t.Fatalf("UntagProject (repeat): %v", err)
	}

	tags, err = s.ListProjectTags(ctx, "proj-1")
	if err != nil {
		t.Fatalf("ListProjectTags: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("expected no tags, got %d", len(tags))
	}
}

func TestTagTask_CascadesWithTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedProject(t, s, "proj-1", "Apollo", "user-1")
	seedTask(t, s, "task-1", "proj-1", "user-1")
	if err := s.CreateTag(ctx, &domain.Tag{ID: "tag-1", Name: "urgent", Color: "#ff0000"}); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	if err := s.TagTask(ctx, "tag-1", "task-1"); err != nil {
		t.Fatalf("TagTask: %v", err)
	}

	tags, err := s.ListTaskTags(ctx, "task-1")
	if err != nil {
		t.Fatalf("ListTaskTags: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}

	// Deleting the tag clears its attachments.
	if err := s.DeleteTag(ctx, "tag-1"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	tags, err = s.ListTaskTags(ctx, "task-1")
	if err != nil {
		t.Fatalf("ListTaskTags: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("expected no tags after delete, got %d", len(tags))
	}
}

func TestListTags_OrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, tag := range []*domain.Tag{
		{ID: "tag-1", Name: "zeta", Color: "#111111"},
		{ID: "tag-2", Name: "alpha", Color: "#222222"},
	} {
		if err := s.CreateTag(ctx, tag); err != nil {
			t.Fatalf("CreateTag: %v", err)
		}
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "alpha" {
		t.Errorf("unexpected order: %+v", tags)
	}
}
