package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/safehaven/internal/alert"
	"github.com/mdouchement/safehaven/internal/auth"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/server/serializer"
	"github.com/mdouchement/safehaven/internal/session"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/sirupsen/logrus"
)

type (
	// authentication contains all authentication handlers.
	authentication struct {
		repo     *repository.Repository
		auth     *auth.Authenticator
		sessions *session.Manager
		alerts   *alert.Service
		log      logrus.FieldLogger
	}

	registerParams struct {
		UserID         string `json:"user_id"`
		Password       string `json:"password"`
		DuressPassword string `json:"duress_password"`
	}

	loginParams struct {
		UserID   string `json:"user_id"`
		Password string `json:"password"`
	}

	passwordParams struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
)

///// Register
////
//

// Register handler is used to create a profile with its real and duress passwords.
func (h *authentication) Register(c echo.Context) error {
	// Filter params
	var params registerParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get profile's params."))
	}

	profile, err := h.auth.CreateProfile(c.Request().Context(), params.UserID, params.Password, params.DuressPassword)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, serializer.Profile(profile))
}

///// Login
////
//

// Login authenticates a profile and opens a session on the matching namespace.
// Real and duress sign ins render the same response.
func (h *authentication) Login(c echo.Context) error {
	// Filter params
	var params loginParams
	if err := c.Bind(&params); err != nil {
		h.log.WithError(err).Debug("could not get parameters")
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get credentials."))
	}

	if params.UserID == "" || params.Password == "" {
		return c.JSON(http.StatusBadRequest, sherror.Validation("No user id or password provided."))
	}

	ctx := c.Request().Context()
	result, err := h.auth.Authenticate(ctx, params.UserID, params.Password)
	if err != nil {
		return err
	}
	if result.Outcome == auth.Failure {
		if result.Locked {
			h.log.WithField("attempts", result.FailedAttempts).Warn("too many failed sign in")
		}
		return sherror.Unauthorized()
	}

	current, err := h.sessions.Init(ctx, result.Namespace, result.Outcome == auth.Duress, c.Request().UserAgent())
	if err != nil {
		return err
	}

	if result.Outcome == auth.Duress {
		// Dispatch outlives the request and never delays the response.
		go h.alerts.OnDuress(context.WithoutCancel(ctx), result.Profile)
	}

	return c.JSON(http.StatusOK, serializer.Login(current))
}

///// Session
////
//

// Session renders the current session.
func (h *authentication) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, serializer.Session(currentSession(c)))
}

// Logout used for terminates the current session.
func (h *authentication) Logout(c echo.Context) error {
	if err := h.sessions.Close(currentSession(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

///// Update Password
////
//

// UpdatePassword used to updates the password used to sign in.
// A duress session changes the duress password and renders like a real one.
func (h *authentication) UpdatePassword(c echo.Context) error {
	if currentSession(c).Duress {
		return h.password(c, h.auth.ChangeDecoyPassword)
	}
	return h.password(c, h.auth.ChangePassword)
}

// UpdateDuressPassword used to updates the duress password.
// The real password is required as current password.
func (h *authentication) UpdateDuressPassword(c echo.Context) error {
	return h.password(c, h.auth.ChangeDuressPassword)
}

func (h *authentication) password(c echo.Context, change func(ctx context.Context, userID, current, next string) error) error {
	// Filter params
	var params passwordParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get parameters."))
	}

	// Check CurrentPassword presence.
	if params.CurrentPassword == "" {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Your current password is required to change your password."))
	}

	// Check NewPassword presence.
	if params.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Your new password is required to change your password."))
	}

	ctx := c.Request().Context()
	profile, err := h.repo.Profile(ctx, namespace(c))
	if err != nil {
		return err
	}

	if err = change(ctx, profile.UserID, params.CurrentPassword, params.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
