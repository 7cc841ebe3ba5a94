package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

func (s *Server) registerNotificationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "List notifications",
		Description: "Returns the caller's notifications, newest first",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotifications)

	huma.Register(s.api, huma.Operation{
		OperationID: "markAllNotificationsRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/read-all",
		Summary:     "Mark all notifications read",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkAllNotificationsRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "unreadNotificationCount",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications/unread-count",
		Summary:     "Count unread notifications",
		Description: "Returns the caller's unread notification total, for inbox badge polling",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnreadNotificationCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNotification",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications/{id}",
		Summary:     "Get notification",
		Description: "Returns one notification and marks it read",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetNotification)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteNotification",
		Method:      http.MethodDelete,
		Path:        "/api/v1/notifications/{id}",
		Summary:     "Delete notification",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteNotification)
}

// === DTOs ===

// ListNotificationsInput carries the inbox paging parameters.
type ListNotificationsInput struct {
	Authorization string `header:"Authorization"`
	Page          int    `query:"page" doc:"1-based page number"`
	Limit         int    `query:"limit" doc:"Items per page (max 100)"`
}

// NotificationPageOutput wraps a page of notifications for Huma.
type NotificationPageOutput struct {
	Body *store.Page[*domain.Notification]
}

// NotificationOutput wraps a single notification for Huma.
type NotificationOutput struct {
	Body *domain.Notification
}

// NotificationIDInput identifies a notification by path parameter.
type NotificationIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Notification ID"`
}

// UnreadCountResponse reports the caller's unread notification total.
type UnreadCountResponse struct {
	Unread int `json:"unread" doc:"Number of unread notifications"`
}

// UnreadCountOutput wraps the unread total for Huma.
type UnreadCountOutput struct {
	Body UnreadCountResponse
}

// MarkAllReadResponse reports how many notifications were marked.
type MarkAllReadResponse struct {
	Marked int `json:"marked" doc:"Number of notifications marked read"`
}

// MarkAllReadOutput wraps the mark-all result for Huma.
type MarkAllReadOutput struct {
	Body MarkAllReadResponse
}

// === Handlers ===

func (s *Server) handleListNotifications(ctx context.Context, input *ListNotificationsInput) (*NotificationPageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Notification.List(ctx, caller.ID, store.PageParams{
		Page:  input.Page,
		Limit: input.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &NotificationPageOutput{Body: page}, nil
}

func (s *Server) handleUnreadNotificationCount(ctx context.Context, input *GetCurrentUserInput) (*UnreadCountOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	count, err := s.services.Notification.UnreadCount(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	return &UnreadCountOutput{Body: UnreadCountResponse{Unread: count}}, nil
}

func (s *Server) handleGetNotification(ctx context.Context, input *NotificationIDInput) (*NotificationOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	notif, err := s.services.Notification.Get(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &NotificationOutput{Body: notif}, nil
}

func (s *Server) handleMarkAllNotificationsRead(ctx context.Context, input *GetCurrentUserInput) (*MarkAllReadOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	marked, err := s.services.Notification.MarkAllRead(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	return &MarkAllReadOutput{Body: MarkAllReadResponse{Marked: marked}}, nil
}

func (s *Server) handleDeleteNotification(ctx context.Context, input *NotificationIDInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Notification.Delete(ctx, caller, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Notification deleted"}}, nil
}
