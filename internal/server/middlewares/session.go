package middlewares

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/safehaven/internal/session"
	"github.com/mdouchement/safehaven/internal/sherror"
)

// CurrentSessionContextKey is the key to retrieve the current_session from echo.Context.
const CurrentSessionContextKey = "current_session"

// Session returns a Session auth middleware.
// It stores current_session into echo.Context and into the request context.
func Session(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := token(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return sherror.Unauthorized()
			}

			current, err := m.Validate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(CurrentSessionContextKey, current)
			c.SetRequest(c.Request().WithContext(session.NewContext(c.Request().Context(), current)))
			return next(c)
		}
	}
}

func token(authorization string) string {
	parts := strings.Split(authorization, " ")
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
