package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/apperr"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/transport"
)

// ErrorHandler renders every failure as {"message", "error_code"}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := render(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func render(err error) (int, transport.ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, transport.ErrorResponse{Message: msg, ErrorCode: codeForStatus(he.Code)}
	}

	e := apperr.From(err)
	return e.Status(), transport.ErrorResponse{Message: e.Message, ErrorCode: e.Code()}
}

func codeForStatus(status int) string {
	if status == http.StatusInternalServerError {
		return apperr.ErrInternal.Code()
	}
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ToLower(strings.ReplaceAll(text, " ", "_"))
}
