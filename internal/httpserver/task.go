package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/guard"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/service"
	"github.com/Skotchmaster/task_manager/internal/transport"
	"github.com/Skotchmaster/task_manager/internal/util"
)

type TaskHTTP struct {
	Svc *service.TaskService
}

func window(c echo.Context) (int, int) {
	return util.Window(
		util.ParseIntDefault(c.QueryParam("skip"), 0),
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultLimit),
	)
}

func (h *TaskHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.list")

	skip, limit := window(c)
	total, items, err := h.Svc.List(ctx, guard.IdentityFrom(c), service.TaskQuery{
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
		Tag:      c.QueryParam("tag"),
		Skip:     skip,
		Limit:    limit,
	})
	if err != nil {
		l.Error("list_tasks_error", "status", 500, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, transport.TaskPage{
		Data: items,
		Meta: transport.Meta{Skip: skip, Limit: limit, Total: total},
	})
}

func (h *TaskHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return apperr.Validation("q is required")
	}

	skip, limit := window(c)
	total, items, err := h.Svc.SearchTasks(ctx, guard.IdentityFrom(c), q, skip, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, transport.TaskPage{
		Data: items,
		Meta: transport.Meta{Skip: skip, Limit: limit, Total: total},
	})
}

func (h *TaskHTTP) Get(c echo.Context) error {
	id, err := parseUID(c)
	if err != nil {
		return err
	}

	task, err := h.Svc.Get(c.Request().Context(), guard.IdentityFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.create")

	var req transport.TaskCreateRequest
	if err := bindValid(c, &req); err != nil {
		l.Warn("task_create_error", "status", 422, "error", err)
		return err
	}

	task, err := h.Svc.Create(ctx, guard.IdentityFrom(c), req)
	if err != nil {
		return err
	}

	l.Info("task_created", "task_uid", task.UID)
	return c.JSON(http.StatusCreated, task)
}

func (h *TaskHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task.update")

	id, err := parseUID(c)
	if err != nil {
		return err
	}

	var req transport.TaskUpdateRequest
	if err := bindValid(c, &req); err != nil {
		l.Warn("task_update_error", "status", 422, "error", err)
		return err
	}

	task, err := h.Svc.Update(ctx, guard.IdentityFrom(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHTTP) Delete(c echo.Context) error {
	id, err := parseUID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(c.Request().Context(), guard.IdentityFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
