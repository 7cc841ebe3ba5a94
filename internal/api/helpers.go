package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/service"
)

// requireUser validates the Authorization header and returns the
// authenticated user. Handlers call this first on protected operations.
func (s *Server) requireUser(ctx context.Context, authHeader string) (*domain.User, error) {
	if authHeader == "" {
		return nil, huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, huma.Error401Unauthorized("Invalid authorization header format")
	}

	user, _, err := s.services.Auth.VerifyAccessToken(ctx, parts[1])
	if err != nil {
		return nil, err
	}

	return user, nil
}

// UserResponse contains user information in API responses. The password
// hash and other internals never leave the server.
type UserResponse struct {
	ID         string `json:"id" doc:"User ID"`
	Username   string `json:"username" doc:"Username"`
	Email      string `json:"email" doc:"Email address"`
	FirstName  string `json:"first_name,omitempty" doc:"First name"`
	LastName   string `json:"last_name,omitempty" doc:"Last name"`
	Role       string `json:"role" doc:"Global role (admin or user)"`
	InviteCode string `json:"invite_code,omitempty" doc:"Personal invite code"`
	Active     bool   `json:"active" doc:"Whether the account is active"`
}

func mapUser(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       string(u.Role),
		InviteCode: u.InviteCode,
		Active:     u.Active,
	}
}

// MessageResponse contains a simple confirmation message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// BulkRequest is the request body shared by the bulk endpoints.
type BulkRequest struct {
	IDs []string `json:"ids" validate:"required,min=1" doc:"Entity IDs to operate on"`
}

// BulkResponse reports the outcome of a bulk operation per bucket.
type BulkResponse struct {
	Succeeded    []string `json:"succeeded" doc:"IDs the operation succeeded for"`
	Unauthorized []string `json:"unauthorized" doc:"IDs the caller may not modify"`
	NotFound     []string `json:"not_found" doc:"IDs that do not exist"`
}

// BulkOutput wraps the bulk response for Huma.
type BulkOutput struct {
	Body BulkResponse
}

func mapBulk(r *service.BulkResult) *BulkOutput {
	return &BulkOutput{Body: BulkResponse{
		Succeeded:    r.Succeeded,
		Unauthorized: r.Unauthorized,
		NotFound:     r.NotFound,
	}}
}
