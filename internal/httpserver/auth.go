package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/guard"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/service"
	"github.com/Skotchmaster/task_manager/internal/transport"
	"github.com/Skotchmaster/task_manager/internal/util"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// bindValid binds the request body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		logging.FromContext(c.Request().Context()).Warn("bind_failed", "status", 422, "error", err)
		return apperr.Validation("invalid request body")
	}
	return c.Validate(req)
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bindValid(c, &req); err != nil {
		l.Warn("register_error", "status", 422, "error", err)
		return err
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, transport.SignupResponse{
		Message: "Account created! Check your email to verify your account",
		User:    user,
	})
}

func (h *AuthHTTP) Verify(c echo.Context) error {
	if err := h.Svc.Verify(c.Request().Context(), c.Param("token")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Account verified successfully"})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bindValid(c, &req); err != nil {
		l.Warn("login_error", "status", 422, "error", err)
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, transport.LoginResponse{
		Message:      "Login successful",
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         transport.UserResponse{Email: res.User.Email, UID: res.User.UID.String()},
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	access, err := h.Svc.Refresh(c.Request().Context(), guard.ClaimsFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.AccessTokenResponse{AccessToken: access})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.LogoutRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return apperr.Validation("invalid request body")
		}
	}

	if err := h.Svc.Logout(ctx, guard.ClaimsFrom(c), req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	user, err := h.Svc.Me(c.Request().Context(), guard.IdentityFrom(c).UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) PasswordResetRequest(c echo.Context) error {
	var req transport.PasswordResetRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.Svc.PasswordResetRequest(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{
		Message: "Please check your email for instructions to reset your password",
	})
}

func (h *AuthHTTP) PasswordResetConfirm(c echo.Context) error {
	var req transport.PasswordResetConfirm
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.Svc.PasswordResetConfirm(c.Request().Context(), c.Param("token"), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password reset successfully"})
}

func (h *AuthHTTP) ListUsers(c echo.Context) error {
	skip, limit := util.Window(
		util.ParseIntDefault(c.QueryParam("skip"), 0),
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultLimit),
	)

	total, users, err := h.Svc.ListUsers(c.Request().Context(), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.UserPage{
		Data: users,
		Meta: transport.Meta{Skip: skip, Limit: limit, Total: total},
	})
}

func (h *AuthHTTP) SetRole(c echo.Context) error {
	uid, err := parseUID(c)
	if err != nil {
		return err
	}
	var req transport.RoleUpdateRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	user, err := h.Svc.SetRole(c.Request().Context(), uid, models.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func parseUID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("bad_id", "status", 422, "id", c.Param("id"))
		return uuid.Nil, apperr.Validation("id must be a uuid")
	}
	return id, nil
}
