package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/safehaven/internal/matcher"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/server/serializer"
	"github.com/mdouchement/safehaven/internal/sherror"
)

type (
	// resource contains the catalog handlers.
	resource struct {
		repo    *repository.Repository
		matcher *matcher.Matcher
	}

	filterParams struct {
		ResourceType string        `json:"resource_type"`
		Needs        matcher.Needs `json:"needs"`
	}
)

// List renders the resources of the `type` query param meeting the needs of the current survivor profile.
func (h *resource) List(c echo.Context) error {
	ctx := c.Request().Context()
	survivor, err := h.repo.SurvivorProfile(ctx, namespace(c))
	if err != nil {
		return err
	}

	resources, err := h.matcher.ForSurvivor(ctx, c.QueryParam("type"), survivor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Global(resources))
}

// Filter renders the resources meeting the given needs.
func (h *resource) Filter(c echo.Context) error {
	var params filterParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get filter's params."))
	}

	resources, err := h.matcher.Filter(c.Request().Context(), params.ResourceType, params.Needs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Global(resources))
}

// Types renders the resource types of the catalog.
func (h *resource) Types(c echo.Context) error {
	types, err := h.matcher.Types(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Global(types))
}

// Availability renders the resource counts by journey category.
func (h *resource) Availability(c echo.Context) error {
	availability, err := h.matcher.Availability(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":  availability,
		"total": availability.Total(),
	})
}

// Match renders the resources of every category required by the given journey.
func (h *resource) Match(c echo.Context) error {
	return h.match(c, h.matcher.FindMatchingResources)
}

// Package renders the matching resources with the clinics ranked by score.
func (h *resource) Package(c echo.Context) error {
	return h.match(c, h.matcher.ComprehensivePackage)
}

// Journey renders the union of the selected resource types.
func (h *resource) Journey(c echo.Context) error {
	var params matcher.JourneyNeeds
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get journey needs."))
	}

	resources, err := h.matcher.JourneyResources(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Global(resources))
}

// Show renders a resource.
func (h *resource) Show(c echo.Context) error {
	r, err := h.matcher.Resource(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (h *resource) match(c echo.Context, find func(ctx context.Context, req matcher.Requirements) (*matcher.MatchResult, error)) error {
	params := matcher.NewRequirements()
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get requirements."))
	}

	result, err := find(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":                   result,
		"total":                  result.Total(),
		"has_required_resources": result.HasRequiredResources(),
	})
}
