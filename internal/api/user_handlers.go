package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blancapp/blanc-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List users",
		Description: "Returns the user directory, for member pickers",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentUser",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/me",
		Summary:     "Update current user",
		Description: "Updates the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/change-password",
		Summary:     "Change password",
		Description: "Changes the authenticated user's password after verifying the old one",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleChangePassword)
}

// === DTOs ===

// GetCurrentUserInput contains parameters for fetching the caller's profile.
type GetCurrentUserInput struct {
	Authorization string `header:"Authorization"`
}

// UserOutput wraps a user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// UsersOutput wraps the user directory for Huma.
type UsersOutput struct {
	Body []UserResponse
}

// UpdateProfileRequest is the request body for profile updates.
type UpdateProfileRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email" doc:"New email address"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=128" doc:"New first name"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=128" doc:"New last name"`
}

// UpdateProfileInput wraps the profile update request for Huma.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization"`
	Body          UpdateProfileRequest
}

// ChangePasswordRequest is the request body for password changes.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required" doc:"Current password"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=1024" doc:"New password"`
}

// ChangePasswordInput wraps the password change request for Huma.
type ChangePasswordInput struct {
	Authorization string `header:"Authorization"`
	Body          ChangePasswordRequest
}

// === Handlers ===

func (s *Server) handleListUsers(ctx context.Context, input *GetCurrentUserInput) (*UsersOutput, error) {
	if _, err := s.requireUser(ctx, input.Authorization); err != nil {
		return nil, err
	}

	users, err := s.services.User.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		entry := mapUser(u)
		// Invite codes are for their holders to hand out.
		entry.InviteCode = ""
		out = append(out, entry)
	}
	return &UsersOutput{Body: out}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *GetCurrentUserInput) (*UserOutput, error) {
	user, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUser(user)}, nil
}

func (s *Server) handleUpdateCurrentUser(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	user, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	updated, err := s.services.User.UpdateProfile(ctx, user.ID, service.UpdateProfileRequest{
		Email:     input.Body.Email,
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUser(updated)}, nil
}

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*MessageOutput, error) {
	user, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	err = s.services.User.ChangePassword(ctx, user.ID, service.ChangePasswordRequest{
		OldPassword: input.Body.OldPassword,
		NewPassword: input.Body.NewPassword,
	})
	if err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Password changed successfully"}}, nil
}
