package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/gridpredict/service"
)

// CreatePrediction submits the caller's prediction for a weekend.
func (h *Handler) CreatePrediction(c echo.Context) error {
	var in service.NewPrediction
	if err := c.Bind(&in); err != nil {
		return badBody(err)
	}
	p, err := h.predictions.Create(c.Request().Context(), currentUser(c).ID, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) MyPredictions(c echo.Context) error {
	ps, err := h.predictions.ListMine(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ps)
}

func (h *Handler) Prediction(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.predictions.Get(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// PredictionScore returns the stored score breakdown.
func (h *Handler) PredictionScore(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	s, err := h.predictions.Score(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
