package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/gridpredict/service"
)

type ownerTransfer struct {
	NewOwnerID int64 `json:"newOwnerId" validate:"required,gt=0"`
}

func (h *Handler) CreateLeague(c echo.Context) error {
	var in service.NewLeague
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	l, err := h.leagues.Create(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

// SearchLeagues ranks leagues by fuzzy name match on q.
func (h *Handler) SearchLeagues(c echo.Context) error {
	ls, err := h.leagues.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ls)
}

func (h *Handler) MyLeagues(c echo.Context) error {
	ls, err := h.leagues.ListForUser(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ls)
}

func (h *Handler) League(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	l, err := h.leagues.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) DeleteLeague(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.leagues.Delete(c.Request().Context(), currentUser(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Standings(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	st, err := h.leagues.Standings(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) Members(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ms, err := h.leagues.Members(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ms)
}

func memberParams(c echo.Context) (int64, int64, error) {
	leagueID, err := idParam(c, "id")
	if err != nil {
		return 0, 0, err
	}
	userID, err := idParam(c, "userId")
	if err != nil {
		return 0, 0, err
	}
	return leagueID, userID, nil
}

func (h *Handler) AddMember(c echo.Context) error {
	leagueID, userID, err := memberParams(c)
	if err != nil {
		return err
	}
	if err := h.leagues.AddMember(c.Request().Context(), currentUser(c), leagueID, userID); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveMember(c echo.Context) error {
	leagueID, userID, err := memberParams(c)
	if err != nil {
		return err
	}
	if err := h.leagues.RemoveMember(c.Request().Context(), currentUser(c), leagueID, userID); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) LeaveLeague(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.leagues.Leave(c.Request().Context(), currentUser(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TransferOwnership hands the league to another member.
func (h *Handler) TransferOwnership(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in ownerTransfer
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	if err := c.Validate(&in); err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()
	if err := h.leagues.TransferOwnership(ctx, currentUser(c), id, in.NewOwnerID); err != nil {
		return h.fail(c, err)
	}
	l, err := h.leagues.Get(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}
