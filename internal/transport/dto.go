package transport

import (
	"time"

	"github.com/Skotchmaster/task_manager/internal/models"
)

const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=10"`
	Email    string `json:"email"    validate:"required,email,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirm struct {
	NewPassword        string `json:"new_password"         validate:"required,min=6"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required"`
}

type TaskCreateRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"required"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `json:"status"      validate:"omitempty,oneof='Pending' 'In Progress' 'Completed'"`
	Priority    *string    `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	AssignedTo  *string    `json:"assigned_to" validate:"omitempty,email"`
	Tags        []string   `json:"tags"        validate:"omitempty,dive,required,max=50"`
}

type TaskUpdateRequest struct {
	Title       *string    `json:"title"       validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      *string    `json:"status"      validate:"omitempty,oneof='Pending' 'In Progress' 'Completed'"`
	Priority    *string    `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	AssignedTo  *string    `json:"assigned_to" validate:"omitempty,email"`
	Tags        *[]string  `json:"tags"        validate:"omitempty,dive,required,max=50"`
}

type UserResponse struct {
	Email string `json:"email"`
	UID   string `json:"uid"`
}

type LoginResponse struct {
	Message      string       `json:"message"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SignupResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type ErrorResponse struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

type Meta struct {
	Skip  int   `json:"skip"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type TaskPage struct {
	Data []models.Task `json:"data"`
	Meta Meta          `json:"meta"`
}

type UserPage struct {
	Data []models.User `json:"data"`
	Meta Meta          `json:"meta"`
}
