package api

import (
	"github.com/blancapp/blanc-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth         *service.AuthService
	User         *service.UserService
	Project      *service.ProjectService
	Stage        *service.StageService
	Task         *service.TaskService
	Tag          *service.TagService
	Message      *service.MessageService
	Notification *service.NotificationService
}
