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

// MessageService manages comment threads on projects and tasks.
type MessageService struct {
	store  store.Store
	logger *slog.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(store store.Store, logger *slog.Logger) *MessageService {
	return &MessageService{store: store, logger: logger}
}

// CreateMessageRequest posts a message to a project or task thread.
type CreateMessageRequest struct {
	ObjectType  string `json:"object_type" validate:"required,oneof=project task"`
	ObjectID    string `json:"object_id" validate:"required"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=comment system audit"`
	Content     string `json:"content" validate:"required,min=1,max=8192"`
}

// UpdateMessageRequest edits a message's content.
type UpdateMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=8192"`
}

// Create posts a message to a thread the caller can see.
func (s *MessageService) Create(ctx context.Context, caller *domain.User, req CreateMessageRequest) (*domain.Message, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	target := domain.EntityRef{Type: domain.EntityType(req.ObjectType), ID: req.ObjectID}
	if err := s.authorizeTarget(ctx, caller, target, policy.OpCreate); err != nil {
		return nil, err
	}

	messageType := domain.MessageType(req.MessageType)
	if messageType == "" {
		messageType = domain.MessageTypeComment
	}

	messageID, err := id.Generate("msg")
	if err != nil {
		return nil, fmt.Errorf("generate message ID: %w", err)
	}

	now := time.Now()
	message := &domain.Message{
		ID:        messageID,
		Target:    target,
		Type:      messageType,
		Content:   req.Content,
		AuthorID:  caller.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return message, nil
}

// Thread returns the messages on a project or task, oldest first.
func (s *MessageService) Thread(ctx context.Context, caller *domain.User, objectType, objectID string) ([]*domain.Message, error) {
	entityType, err := domain.ParseEntityType(objectType)
	if err != nil {
		return nil, domainerrors.Validationf("invalid object type %q", objectType)
	}

	target := domain.EntityRef{Type: entityType, ID: objectID}
	if err := s.authorizeTarget(ctx, caller, target, policy.OpRead); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// Update edits a message. Author-only: not even project managers may
// rewrite someone else's words.
func (s *MessageService) Update(ctx context.Context, caller *domain.User, messageID string, req UpdateMessageRequest) (*domain.Message, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	message, err := s.authorizeMessage(ctx, caller, messageID, policy.OpUpdate)
	if err != nil {
		return nil, err
	}

	message.Content = req.Content
	message.UpdatedAt = time.Now()
	if err := s.store.UpdateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	return message, nil
}

// Delete removes a message. Author-only.
func (s *MessageService) Delete(ctx context.Context, caller *domain.User, messageID string) error {
	if _, err := s.authorizeMessage(ctx, caller, messageID, policy.OpDelete); err != nil {
		return err
	}

	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// authorizeMessage loads a message and checks authorship for op.
func (s *MessageService) authorizeMessage(ctx context.Context, caller *domain.User, messageID string, op policy.Operation) (*domain.Message, error) {
	message, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("message not found")
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	decision := policy.Message(op, policy.Input{
		Admin:  caller.IsAdmin(),
		Author: message.AuthorID != "" && message.AuthorID == caller.ID,
	})
	if !decision.Allowed {
		return nil, domainerrors.Forbidden("only the author can modify this message").
			WithDetails(map[string]string{"reason": decision.Reason})
	}
	return message, nil
}

// authorizeTarget checks the caller's standing in the project the
// target belongs to.
func (s *MessageService) authorizeTarget(ctx context.Context, caller *domain.User, target domain.EntityRef, op policy.Operation) error {
	projectID, err := s.resolveProjectID(ctx, target)
	if err != nil {
		return err
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("project not found")
		}
		return fmt.Errorf("get project: %w", err)
	}

	rel, err := resolveRelationship(ctx, s.store, caller.ID, project)
	if err != nil {
		return err
	}

	decision := policy.Message(op, policy.Input{Rel: rel, Admin: caller.IsAdmin()})
	if !decision.Allowed {
		return domainerrors.Forbidden("not a member of this project").
			WithDetails(map[string]string{"reason": decision.Reason})
	}
	return nil
}

// resolveProjectID maps a message target to its owning project.
func (s *MessageService) resolveProjectID(ctx context.Context, target domain.EntityRef) (string, error) {
	switch target.Type {
	case domain.EntityTypeProject:
		return target.ID, nil
	case domain.EntityTypeTask:
		task, err := s.store.GetTask(ctx, target.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", domainerrors.NotFound("task not found")
			}
			return "", fmt.Errorf("get task: %w", err)
		}
		return task.ProjectID, nil
	}
	return "", domainerrors.Validationf("invalid object type %q", target.Type)
}
