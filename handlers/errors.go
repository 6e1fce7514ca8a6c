package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/logger"
)

var statusByKind = []struct {
	kind   error
	status int
}{
	{apperr.ErrNotFound, http.StatusNotFound},
	{apperr.ErrConflict, http.StatusConflict},
	{apperr.ErrForbidden, http.StatusForbidden},
	{apperr.ErrValidation, http.StatusUnprocessableEntity},
}

// fail maps a service error to an HTTP error. Unknown errors are logged
// and reported as 500 without detail.
func (h *Handler) fail(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	for _, k := range statusByKind {
		if errors.Is(err, k.kind) {
			msg := apperr.Message(err)
			if msg == "" {
				msg = err.Error()
			}
			return echo.NewHTTPError(k.status, msg)
		}
	}

	logger.Request(h.log, c.Response().Header().Get(echo.HeaderXRequestID)).Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

func badBody(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
}

// idParam parses a positive int64 path parameter.
func idParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

// intQuery parses an optional integer query parameter, returning 0 when
// absent.
func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return n, nil
}
