package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HTTPErrorHandler returns a handler that formats rendered errors.
// Internal errors are only rendered with a correlation id, their details go to the logs.
func HTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			herr *echo.HTTPError
			serr *sherror.Error
			perr *sherror.PartialFailureError
		)

		switch {
		case errors.As(err, &herr):
			if herr.Internal != nil {
				log.WithError(herr.Internal).Debug("echo error")
			}
			_ = c.JSON(herr.Code, echo.Map{
				"error": echo.Map{
					"message": herr.Message,
				},
			})
		case errors.As(err, &perr):
			id := correlationID()
			log.WithField("id", id).WithError(perr).Error("partial failure")

			_ = c.JSON(http.StatusMultiStatus, echo.Map{
				"error": echo.Map{
					"tag":        "partial-failure",
					"message":    fmt.Sprintf("Some data could not be deleted (id: %s)", id),
					"categories": perr.Categories(),
				},
			})
		case errors.As(err, &serr) && serr.HTTPCode < 500:
			_ = c.JSON(serr.HTTPCode, serr)
		default:
			internal(log, err, c)
		}
	}
}

func internal(log logrus.FieldLogger, err error, c echo.Context) {
	id := correlationID()
	log.WithField("id", id).WithError(err).Error("unexpected error")

	_ = c.JSON(http.StatusInternalServerError, echo.Map{
		"error": echo.Map{
			"message": fmt.Sprintf("Unexpected error (id: %s)", id),
		},
	})
}

func correlationID() string {
	return uuid.Must(uuid.NewV4()).String()
}
