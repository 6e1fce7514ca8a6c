package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type roleUpdate struct {
	IsAdmin      *bool `json:"isAdmin" validate:"required"`
	IsSuperadmin bool  `json:"isSuperadmin"`
}

func page(c echo.Context) (int, int, error) {
	skip, err := intQuery(c, "skip")
	if err != nil {
		return 0, 0, err
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	return skip, limit, nil
}

// AdminUsers pages through accounts with ?skip= and ?limit=.
func (h *Handler) AdminUsers(c echo.Context) error {
	skip, limit, err := page(c)
	if err != nil {
		return err
	}
	us, err := h.admin.ListUsers(c.Request().Context(), skip, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, us)
}

func (h *Handler) AdminUpdateRole(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in roleUpdate
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	if err := c.Validate(&in); err != nil {
		return h.fail(c, err)
	}
	u, err := h.admin.UpdateRole(c.Request().Context(), currentUser(c), id, *in.IsAdmin, in.IsSuperadmin)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) AdminDeleteUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.admin.DeleteUser(c.Request().Context(), currentUser(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AdminLeagues(c echo.Context) error {
	skip, limit, err := page(c)
	if err != nil {
		return err
	}
	ls, err := h.admin.ListLeagues(c.Request().Context(), skip, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ls)
}

func (h *Handler) AdminDeleteLeague(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.admin.DeleteLeague(c.Request().Context(), currentUser(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AdminStats(c echo.Context) error {
	st, err := h.admin.Stats(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
