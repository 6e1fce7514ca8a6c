package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/gridpredict/models"
	"github.com/padraicbc/gridpredict/service"
)

// RaceWeekends lists the calendar, optionally for one year.
func (h *Handler) RaceWeekends(c echo.Context) error {
	year, err := intQuery(c, "year")
	if err != nil {
		return err
	}
	ws, err := h.races.List(c.Request().Context(), year)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ws)
}

// RaceWeekend returns one weekend with its results.
func (h *Handler) RaceWeekend(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	w, err := h.races.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) AdminCreateRaceWeekend(c echo.Context) error {
	var w models.RaceWeekend
	if err := c.Bind(&w); err != nil {
		return badBody(err)
	}
	if err := h.races.Create(c.Request().Context(), &w); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) AdminDeleteRaceWeekend(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.races.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type rescored struct {
	Rescored int `json:"rescored"`
}

// AdminReplaceResults swaps a weekend's results and rescores it.
func (h *Handler) AdminReplaceResults(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var res models.WeekendResults
	if err := c.Bind(&res); err != nil {
		return badBody(err)
	}
	n, err := h.races.ReplaceResults(c.Request().Context(), id, res)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rescored{n})
}

func (h *Handler) AdminRecompute(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.races.Get(ctx, id); err != nil {
		return h.fail(c, err)
	}
	n, err := h.predictions.RecomputeWeekend(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rescored{n})
}

// AdminCorrectResult fixes one race result row.
func (h *Handler) AdminCorrectResult(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in service.ResultCorrection
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	if err := c.Validate(&in); err != nil {
		return h.fail(c, err)
	}
	r, err := h.races.CorrectResult(c.Request().Context(), id, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}
