package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blancapp/blanc-server/internal/domain"
	domainerrors "github.com/blancapp/blanc-server/internal/errors"
	"github.com/blancapp/blanc-server/internal/id"
	"github.com/blancapp/blanc-server/internal/policy"
	"github.com/blancapp/blanc-server/internal/store"
)

// dispatchTimeout bounds the background write for a single notification.
const dispatchTimeout = 5 * time.Second

// NotificationService manages per-user notification inboxes and delivers
// new notifications from the other services.
type NotificationService struct {
	store  store.Store
	logger *slog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(store store.Store, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger}
}

// Dispatch delivers a notification to a user in the background. Failures
// are logged, never surfaced: notification delivery must not fail the
// operation that triggered it.
func (s *NotificationService) Dispatch(userID string, typ domain.NotificationType, message string, entity *domain.EntityRef) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := s.deliver(ctx, userID, typ, message, entity); err != nil {
			if s.logger != nil {
				s.logger.Warn("Failed to deliver notification",
					"user_id", userID,
					"type", typ,
					"error", err,
				)
			}
		}
	}()
}

func (s *NotificationService) deliver(ctx context.Context, userID string, typ domain.NotificationType, message string, entity *domain.EntityRef) error {
	notifID, err := id.Generate("notif")
	if err != nil {
		return fmt.Errorf("generate notification ID: %w", err)
	}

	return s.store.CreateNotification(ctx, &domain.Notification{
		ID:        notifID,
		UserID:    userID,
		Type:      typ,
		Message:   message,
		Entity:    entity,
		CreatedAt: time.Now(),
	})
}

// List returns one page of the caller's inbox, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, pp store.PageParams) (*store.Page[*domain.Notification], error) {
	page, err := s.store.ListNotifications(ctx, userID, pp)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return page, nil
}

// UnreadCount returns how many unread notifications the caller has.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// Get fetches a single notification and marks it read as a side effect.
// Only the recipient may read it.
func (s *NotificationService) Get(ctx context.Context, caller *domain.User, notifID string) (*domain.Notification, error) {
	notif, err := s.load(ctx, caller, notifID, policy.OpRead)
	if err != nil {
		return nil, err
	}

	if !notif.IsRead {
		if err := s.store.MarkNotificationRead(ctx, notifID); err != nil {
			return nil, fmt.Errorf("mark notification read: %w", err)
		}
		notif.IsRead = true
	}
	return notif, nil
}

// MarkAllRead marks every unread notification in the caller's inbox,
// returning how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}

// Delete removes a notification from the caller's inbox.
func (s *NotificationService) Delete(ctx context.Context, caller *domain.User, notifID string) error {
	if _, err := s.load(ctx, caller, notifID, policy.OpDelete); err != nil {
		return err
	}

	if err := s.store.DeleteNotification(ctx, notifID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("notification not found")
		}
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// load fetches a notification and checks the caller's standing for op.
// Non-recipients get NotFound rather than Forbidden so inbox IDs don't
// leak across users.
func (s *NotificationService) load(ctx context.Context, caller *domain.User, notifID string, op policy.Operation) (*domain.Notification, error) {
	notif, err := s.store.GetNotification(ctx, notifID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("notification not found")
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}

	decision := policy.Notification(op, policy.Input{Recipient: notif.UserID == caller.ID})
	if !decision.Allowed {
		return nil, domainerrors.NotFound("notification not found")
	}
	return notif, nil
}
