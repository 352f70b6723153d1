package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/safehaven/internal/lifecycle"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/server/serializer"
	"github.com/mdouchement/safehaven/internal/sherror"
)

// profile contains the profile, privacy settings and panic handlers.
type profile struct {
	repo      *repository.Repository
	lifecycle *lifecycle.Engine
}

// Show renders the profile and its privacy settings.
func (h *profile) Show(c echo.Context) error {
	p, err := h.repo.ProfileView(c.Request().Context(), namespace(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Profile(p))
}

// Update applies the given privacy settings, omitted ones are left untouched.
func (h *profile) Update(c echo.Context) error {
	var params repository.Settings
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get settings."))
	}

	p, err := h.repo.UpdateSettings(c.Request().Context(), namespace(c), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Profile(p))
}

// Survivor renders the intersectional profile.
func (h *profile) Survivor(c echo.Context) error {
	p, err := h.repo.SurvivorProfile(c.Request().Context(), namespace(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateSurvivor replaces the intersectional profile.
func (h *profile) UpdateSurvivor(c echo.Context) error {
	var params model.SurvivorProfile
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get survivor profile."))
	}

	p, err := h.repo.SaveSurvivorProfile(c.Request().Context(), namespace(c), &params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Panic wipes every record of the identity, both namespaces included, and closes all its sessions.
func (h *profile) Panic(c echo.Context) error {
	if err := h.lifecycle.PanicDelete(c.Request().Context(), namespace(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
