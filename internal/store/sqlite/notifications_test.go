package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

func seedNotification(t *testing.T, s *Store, id, userID string, at time.Time) {
	t.Helper()

	err := s.CreateNotification(context.Background(), &domain.Notification{
		ID:        id,
		UserID:    userID,
		Type:      domain.NotificationTypeTask,
		Message:   "notification " + id,
		Entity:    &domain.EntityRef{Type: domain.EntityTypeTask, ID: "task-1"},
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("seed notification %s: %v", id, err)
	}
}

func TestListNotifications_NewestFirstPaginated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedNotification(t, s, fmt.Sprintf("notif-%d", i), "user-1", base.Add(time.Duration(i)*time.Minute))
	}

	page, err := s.ListNotifications(ctx, "user-1", store.PageParams{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if page.Total != 5 || page.Pages != 3 || !page.HasNext {
		t.Errorf("page meta: %+v", page)
	}
	if len(page.Items) != 2 || page.Items[0].ID != "notif-4" || page.Items[1].ID != "notif-3" {
		t.Errorf("unexpected first page: %+v", page.Items)
	}

	last, err := s.ListNotifications(ctx, "user-1", store.PageParams{Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(last.Items) != 1 || last.Items[0].ID != "notif-0" || last.HasNext {
		t.Errorf("unexpected last page: %+v", last)
	}
}

func TestListNotifications_ScopedToUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedUser(t, s, "user-2", "grace")

	now := time.Now()
	seedNotification(t, s, "notif-1", "user-1", now)
	seedNotification(t, s, "notif-2", "user-2", now)

	page, err := s.ListNotifications(ctx, "user-1", store.DefaultPageParams())
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != "notif-1" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedNotification(t, s, "notif-1", "user-1", time.Now())
	seedNotification(t, s, "notif-2", "user-1", time.Now())

	unread, err := s.CountUnreadNotifications(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountUnreadNotifications: %v", err)
	}
	if unread != 2 {
		t.Fatalf("unread: got %d, want 2", unread)
	}

	if err := s.MarkNotificationRead(ctx, "notif-1"); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	// Repeating is harmless.
	if err := s.MarkNotificationRead(ctx, "notif-1"); err != nil {
		t.Fatalf("MarkNotificationRead (repeat): %v", err)
	}

	got, err := s.GetNotification(ctx, "notif-1")
	if err != nil {
		t.Fatalf("GetNotification: %v", err)
	}
	if !got.IsRead {
		t.Error("notif-1 should be read")
	}

	unread, err = s.CountUnreadNotifications(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountUnreadNotifications: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread: got %d, want 1", unread)
	}

	if err := s.MarkNotificationRead(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedUser(t, s, "user-2", "grace")

	now := time.Now()
	seedNotification(t, s, "notif-1", "user-1", now)
	seedNotification(t, s, "notif-2", "user-1", now)
	seedNotification(t, s, "notif-3", "user-2", now)

	n, err := s.MarkAllNotificationsRead(ctx, "user-1")
	if err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	if n != 2 {
		t.Errorf("marked: got %d, want 2", n)
	}

	n, err = s.MarkAllNotificationsRead(ctx, "user-1")
	if err != nil {
		t.Fatalf("MarkAllNotificationsRead (repeat): %v", err)
	}
	if n != 0 {
		t.Errorf("marked on repeat: got %d, want 0", n)
	}

	// The other user's inbox is untouched.
	unread, err := s.CountUnreadNotifications(ctx, "user-2")
	if err != nil {
		t.Fatalf("CountUnreadNotifications: %v", err)
	}
	if unread != 1 {
		t.Errorf("user-2 unread: got %d, want 1", unread)
	}
}

func TestDeleteNotification(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "user-1", "ada")
	seedNotification(t, s, "notif-1", "user-1", time.Now())

	if err := s.DeleteNotification(ctx, "notif-1"); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}
	if err := s.DeleteNotification(ctx, "notif-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateNotification_UnknownUser(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateNotification(context.Background(), &domain.Notification{
		ID:        "notif-1",
		UserID:    "ghost",
		Type:      domain.NotificationTypeTask,
		Message:   "hello",
		CreatedAt: time.Now(),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
