package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/service"
)

func (s *Server) registerMessageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createMessage",
		Method:        http.MethodPost,
		Path:          "/api/v1/messages",
		Summary:       "Post message",
		Description:   "Posts a message to a project or task thread",
		Tags:          []string{"Messages"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateMessage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMessageThread",
		Method:      http.MethodGet,
		Path:        "/api/v1/messages/{type}/{id}",
		Summary:     "Get message thread",
		Description: "Returns the thread for a project or task, oldest first",
		Tags:        []string{"Messages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMessageThread)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMessage",
		Method:      http.MethodPut,
		Path:        "/api/v1/messages/{id}",
		Summary:     "Edit message",
		Tags:        []string{"Messages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateMessage)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteMessage",
		Method:      http.MethodDelete,
		Path:        "/api/v1/messages/{id}",
		Summary:     "Delete message",
		Tags:        []string{"Messages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteMessage)
}

// === DTOs ===

// CreateMessageRequest is the request body for posting a message.
type CreateMessageRequest struct {
	ObjectType  string `json:"object_type" validate:"required,oneof=project task" doc:"Thread owner kind"`
	ObjectID    string `json:"object_id" validate:"required" doc:"Thread owner ID"`
	MessageType string `json:"message_type,omitempty" validate:"omitempty,oneof=comment system audit" doc:"Message kind (defaults to comment)"`
	Content     string `json:"content" validate:"required,min=1,max=8192" doc:"Message body"`
}

// CreateMessageInput wraps the post message request for Huma.
type CreateMessageInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateMessageRequest
}

// DomainMessageOutput wraps a single thread message for Huma.
type DomainMessageOutput struct {
	Body *domain.Message
}

// ThreadInput identifies a message thread by owner type and ID.
type ThreadInput struct {
	Authorization string `header:"Authorization"`
	Type          string `path:"type" enum:"project,task" doc:"Thread owner kind"`
	ID            string `path:"id" doc:"Thread owner ID"`
}

// UpdateMessageRequest is the request body for editing a message.
type UpdateMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=8192" doc:"Replacement body"`
}

// UpdateMessageInput wraps the edit request for Huma.
type UpdateMessageInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Message ID"`
	Body          UpdateMessageRequest
}

// MessageIDInput identifies a message by path parameter.
type MessageIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Message ID"`
}

// === Handlers ===

func (s *Server) handleCreateMessage(ctx context.Context, input *CreateMessageInput) (*DomainMessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	message, err := s.services.Message.Create(ctx, caller, service.CreateMessageRequest{
		ObjectType:  input.Body.ObjectType,
		ObjectID:    input.Body.ObjectID,
		MessageType: input.Body.MessageType,
		Content:     input.Body.Content,
	})
	if err != nil {
		return nil, err
	}

	return &DomainMessageOutput{Body: message}, nil
}

func (s *Server) handleGetMessageThread(ctx context.Context, input *ThreadInput) (*MessagesOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	thread, err := s.services.Message.Thread(ctx, caller, input.Type, input.ID)
	if err != nil {
		return nil, err
	}

	return &MessagesOutput{Body: thread}, nil
}

func (s *Server) handleUpdateMessage(ctx context.Context, input *UpdateMessageInput) (*DomainMessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	message, err := s.services.Message.Update(ctx, caller, input.ID, service.UpdateMessageRequest{
		Content: input.Body.Content,
	})
	if err != nil {
		return nil, err
	}

	return &DomainMessageOutput{Body: message}, nil
}

func (s *Server) handleDeleteMessage(ctx context.Context, input *MessageIDInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Message.Delete(ctx, caller, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Message deleted"}}, nil
}
