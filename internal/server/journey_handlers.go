package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/safehaven/internal/journey"
	"github.com/mdouchement/safehaven/internal/lifecycle"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/server/serializer"
	"github.com/mdouchement/safehaven/internal/sherror"
)

type (
	// itinerary contains the healthcare journey handlers.
	itinerary struct {
		repo      *repository.Repository
		journeys  *journey.Orchestrator
		lifecycle *lifecycle.Engine
	}

	statusParams struct {
		Status string `json:"status"`
	}

	cancelParams struct {
		Reason string `json:"reason"`
	}

	arrangeParams struct {
		ResourceID  string   `json:"resource_id"`
		ResourceIDs []string `json:"resource_ids"`
	}

	notesParams struct {
		Notes string `json:"notes"`
	}

	autoDeleteParams struct {
		Days int `json:"days"`
	}
)

// List renders the opened journeys of the current namespace.
func (h *itinerary) List(c echo.Context) error {
	journeys, err := h.repo.Journeys(c.Request().Context(), namespace(c))
	if err != nil {
		return err
	}

	render := make([]map[string]interface{}, 0, len(journeys))
	for _, j := range journeys {
		plain, err := h.repo.OpenJourney(j)
		if err != nil {
			return err
		}
		render = append(render, serializer.Journey(plain))
	}
	return c.JSON(http.StatusOK, serializer.Global(render))
}

// Create plans a new journey.
func (h *itinerary) Create(c echo.Context) error {
	var params repository.JourneyParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get journey's params."))
	}

	j, err := h.journeys.Create(c.Request().Context(), namespace(c), params)
	return h.render(c, http.StatusCreated, j, err)
}

// Show renders an opened journey.
func (h *itinerary) Show(c echo.Context) error {
	j, err := h.owned(c)
	return h.render(c, http.StatusOK, j, err)
}

// Delete deletes a journey whatever its status.
func (h *itinerary) Delete(c echo.Context) error {
	j, err := h.owned(c)
	if err != nil {
		return err
	}

	if err = h.repo.DeleteJourney(c.Request().Context(), j.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateStatus moves the journey to the given status.
func (h *itinerary) UpdateStatus(c echo.Context) error {
	var params statusParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get status."))
	}

	status, err := model.ParseJourneyStatus(params.Status)
	if err != nil {
		return sherror.Validation("%s", err.Error())
	}

	j, err := h.owned(c)
	if err != nil {
		return err
	}

	j, err = h.journeys.UpdateStatus(c.Request().Context(), j.ID, status)
	return h.render(c, http.StatusOK, j, err)
}

// Complete completes the journey.
func (h *itinerary) Complete(c echo.Context) error {
	j, err := h.owned(c)
	if err != nil {
		return err
	}

	j, err = h.journeys.Complete(c.Request().Context(), j.ID)
	return h.render(c, http.StatusOK, j, err)
}

// Cancel cancels the journey with an optional reason.
func (h *itinerary) Cancel(c echo.Context) error {
	var params cancelParams
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&params); err != nil {
			return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get cancellation reason."))
		}
	}

	j, err := h.owned(c)
	if err != nil {
		return err
	}

	j, err = h.journeys.Cancel(c.Request().Context(), j.ID, params.Reason)
	return h.render(c, http.StatusOK, j, err)
}

// Arrange marks a leg of the journey as arranged.
func (h *itinerary) Arrange(c echo.Context) error {
	var params arrangeParams
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&params); err != nil {
			return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get arrangement."))
		}
	}

	leg, err := model.ParseJourneyLeg(c.Param("leg"))
	if err != nil {
		return sherror.Validation("%s", err.Error())
	}

	j, err := h.owned(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if leg == model.LegFinancialAssistance && len(params.ResourceIDs) > 0 {
		j, err = h.journeys.MarkFinancialAssistanceArranged(ctx, j.ID, params.ResourceIDs)
	} else {
		j, err = h.journeys.Arrange(ctx, j.ID, leg, params.ResourceID)
	}
	return h.render(c, http.StatusOK, j, err)
}

// SetLegNotes replaces the notes of a leg.
func (h *itinerary) SetLegNotes(c echo.Context) error {
	var params notesParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get notes."))
	}

	leg, err := model.ParseJourneyLeg(c.Param("leg"))
	if err != nil {
		return sherror.Validation("%s", err.Error())
	}

	j, err := h.owned(c)
	if err != nil {
		return err
	}

	j, err = h.journeys.SetLegNotes(c.Request().Context(), j.ID, leg, params.Notes)
	return h.render(c, http.StatusOK, j, err)
}

// EnableAutoDelete schedules the deletion of the journey in the given number of days.
func (h *itinerary) EnableAutoDelete(c echo.Context) error {
	var params autoDeleteParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get retention."))
	}

	j, err := h.owned(c)
	if err != nil {
		return err
	}

	j, err = h.lifecycle.EnableAutoDelete(c.Request().Context(), j.ID, params.Days)
	return h.render(c, http.StatusOK, j, err)
}

// CancelAutoDelete keeps the journey out of the auto-delete sweep.
func (h *itinerary) CancelAutoDelete(c echo.Context) error {
	j, err := h.owned(c)
	if err != nil {
		return err
	}

	j, err = h.lifecycle.CancelAutoDelete(c.Request().Context(), j.ID)
	return h.render(c, http.StatusOK, j, err)
}

// owned returns the journey of the `id` param when it belongs to the current namespace.
func (h *itinerary) owned(c echo.Context) (*model.Journey, error) {
	return h.journeys.Journey(c.Request().Context(), namespace(c), c.Param("id"))
}

func (h *itinerary) render(c echo.Context, code int, j *model.Journey, err error) error {
	if err != nil {
		return err
	}

	plain, err := h.repo.OpenJourney(j)
	if err != nil {
		return err
	}
	return c.JSON(code, serializer.Journey(plain))
}
