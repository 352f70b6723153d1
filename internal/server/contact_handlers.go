package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/safehaven/internal/alert"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/server/serializer"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/sirupsen/logrus"
)

type (
	// contact contains the emergency contact and SOS handlers.
	contact struct {
		repo   *repository.Repository
		alerts *alert.Service
		log    logrus.FieldLogger
	}

	sosParams struct {
		Method          string `json:"method"`
		IncludeLocation bool   `json:"include_location"`
	}
)

var activationMethods = map[string]bool{
	model.SOSMethodButton: true,
	model.SOSMethodShake:  true,
	model.SOSMethodManual: true,
}

//
// Contacts
//

// List renders the opened emergency contacts, primary contacts first.
func (h *contact) List(c echo.Context) error {
	contacts, err := h.alerts.Contacts(c.Request().Context(), namespace(c))
	if err != nil {
		return err
	}

	render := make([]map[string]interface{}, 0, len(contacts))
	for _, m := range contacts {
		plain, err := h.repo.OpenContact(m)
		if err != nil {
			return err
		}
		render = append(render, serializer.Contact(plain))
	}
	return c.JSON(http.StatusOK, serializer.Global(render))
}

// Create adds an emergency contact.
func (h *contact) Create(c echo.Context) error {
	var params repository.ContactParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get contact's params."))
	}

	m, err := h.alerts.AddContact(c.Request().Context(), namespace(c), params)
	return h.render(c, http.StatusCreated, m, err)
}

// Update replaces the emergency contact details.
func (h *contact) Update(c echo.Context) error {
	var params repository.ContactParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get contact's params."))
	}

	m, err := h.alerts.UpdateContact(c.Request().Context(), namespace(c), c.Param("id"), params)
	return h.render(c, http.StatusOK, m, err)
}

// Delete deletes an emergency contact.
func (h *contact) Delete(c echo.Context) error {
	if err := h.alerts.DeleteContact(c.Request().Context(), namespace(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// TogglePrimary flips the primary flag of the contact.
func (h *contact) TogglePrimary(c echo.Context) error {
	m, err := h.alerts.TogglePrimary(c.Request().Context(), namespace(c), c.Param("id"))
	return h.render(c, http.StatusOK, m, err)
}

// MarkVerified marks the contact as verified.
func (h *contact) MarkVerified(c echo.Context) error {
	m, err := h.alerts.MarkVerified(c.Request().Context(), namespace(c), c.Param("id"))
	return h.render(c, http.StatusOK, m, err)
}

// Test sends a test alert to the contact.
func (h *contact) Test(c echo.Context) error {
	m, err := h.alerts.TestContact(c.Request().Context(), namespace(c), c.Param("id"))
	return h.render(c, http.StatusOK, m, err)
}

// Stats renders the emergency contacts summary.
func (h *contact) Stats(c echo.Context) error {
	stats, err := h.alerts.Stats(c.Request().Context(), namespace(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *contact) render(c echo.Context, code int, m *model.Contact, err error) error {
	if err != nil {
		return err
	}

	plain, err := h.repo.OpenContact(m)
	if err != nil {
		return err
	}
	return c.JSON(code, serializer.Contact(plain))
}

//
// SOS
//

// ActiveSOS renders the active SOS session.
func (h *contact) ActiveSOS(c echo.Context) error {
	session, err := h.alerts.Active(c.Request().Context(), namespace(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.SOSSession(session))
}

// SOSHistory renders the SOS sessions, newest first.
func (h *contact) SOSHistory(c echo.Context) error {
	sessions, err := h.alerts.History(c.Request().Context(), namespace(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Global(serializer.Collection(sessions, serializer.SOSSession)))
}

// ActivateSOS starts an SOS session and alerts the emergency contacts.
// The session is rendered even when the alert could not be dispatched.
func (h *contact) ActivateSOS(c echo.Context) error {
	params := sosParams{Method: model.SOSMethodButton}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&params); err != nil {
			return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get SOS params."))
		}
	}
	if !activationMethods[params.Method] {
		return sherror.Validation("unknown activation method %q", params.Method)
	}

	session, err := h.alerts.Activate(c.Request().Context(), namespace(c), params.Method, params.IncludeLocation)
	return h.renderSOS(c, http.StatusCreated, session, err)
}

// DeactivateSOS ends the active SOS session.
// The `all_clear` query param sends an all-clear to the emergency contacts.
func (h *contact) DeactivateSOS(c echo.Context) error {
	allClear, _ := strconv.ParseBool(c.QueryParam("all_clear"))

	session, err := h.alerts.Deactivate(c.Request().Context(), namespace(c), allClear)
	return h.renderSOS(c, http.StatusOK, session, err)
}

// FalseAlarm ends the active SOS session as a false alarm.
func (h *contact) FalseAlarm(c echo.Context) error {
	session, err := h.alerts.FalseAlarm(c.Request().Context(), namespace(c))
	return h.renderSOS(c, http.StatusOK, session, err)
}

func (h *contact) renderSOS(c echo.Context, code int, session *model.SOSSession, err error) error {
	if session == nil {
		return err
	}

	render := echo.Map{
		"data":       serializer.SOSSession(session),
		"dispatched": err == nil,
	}
	if err != nil {
		h.log.WithError(err).Warn("could not dispatch alert")
		code = http.StatusAccepted
	}
	return c.JSON(code, render)
}
