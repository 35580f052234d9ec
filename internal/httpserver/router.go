package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/guard"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/models"
)

// Check is a readiness probe for one backing service.
type Check func(ctx context.Context) error

type Deps struct {
	AuthHandler *AuthHTTP
	TaskHandler *TaskHTTP
	Guard       *guard.TokenGuard
	Users       guard.UserLoader
	Ready       map[string]Check
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewValidator()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", ready(d.Ready))

	api := e.Group("/api/v1")
	anyRole := guard.RequireRoles(d.Users, models.RoleUser, models.RoleAdmin)
	adminOnly := guard.RequireRoles(d.Users, models.RoleAdmin)

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.GET("/verify/:token", d.AuthHandler.Verify)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh_token", d.AuthHandler.Refresh, d.Guard.RequireRefresh)
	auth.POST("/logout", d.AuthHandler.Logout, d.Guard.RequireAccess)
	auth.GET("/me", d.AuthHandler.Me, d.Guard.RequireAccess, anyRole)
	auth.POST("/password-reset-request", d.AuthHandler.PasswordResetRequest)
	auth.POST("/password-reset-confirm/:token", d.AuthHandler.PasswordResetConfirm)
	auth.GET("/users", d.AuthHandler.ListUsers, d.Guard.RequireAccess, adminOnly)
	auth.PATCH("/users/:id/role", d.AuthHandler.SetRole, d.Guard.RequireAccess, adminOnly)

	tasks := api.Group("/tasks", d.Guard.RequireAccess, anyRole)
	tasks.GET("", d.TaskHandler.List)
	tasks.GET("/search", d.TaskHandler.Search)
	tasks.GET("/:id", d.TaskHandler.Get)
	tasks.POST("", d.TaskHandler.Create)
	tasks.PATCH("/:id", d.TaskHandler.Update)
	tasks.DELETE("/:id", d.TaskHandler.Delete)
}

func ready(checks map[string]Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logging.FromContext(ctx).Warn("readiness_failed", "dependency", name, "error", err)
				status[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "up"
		}
		return c.JSON(code, status)
	}
}
