package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/gridpredict/apperr"
	mw "github.com/padraicbc/gridpredict/middleware"
	"github.com/padraicbc/gridpredict/models"
	"github.com/padraicbc/gridpredict/service"
)

const actorKey = "actor"

// Authenticate loads the account named by the verified token subject.
// It must run after the JWT middleware.
func (h *Handler) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := mw.UserID(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		u, err := h.users.Me(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
			}
			return h.fail(c, err)
		}
		c.Set(actorKey, u)
		return next(c)
	}
}

// RequireAdmin rejects users without the admin role.
func (h *Handler) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := currentUser(c)
		if u == nil || !(u.IsAdmin || u.IsSuperadmin) {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

func currentUser(c echo.Context) *models.User {
	u, _ := c.Get(actorKey).(*models.User)
	return u
}

// RegisterUser creates an account.
func (h *Handler) RegisterUser(c echo.Context) error {
	var in service.Registration
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	u, err := h.users.Register(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Me returns the authenticated account.
func (h *Handler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}
