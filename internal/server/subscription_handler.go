package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/server/serializer"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/sirupsen/logrus"
)

// subscription streams the live views of the current namespace as server-sent events.
type subscription struct {
	repo *repository.Repository
	log  logrus.FieldLogger
}

// Stream pushes the whole collection of the `topic` param, first immediately then after every change.
// It returns when the client goes away.
func (h *subscription) Stream(c echo.Context) error {
	ctx := c.Request().Context()
	ns := namespace(c)

	switch topic := c.Param("topic"); topic {
	case "incidents":
		ch, err := h.repo.WatchIncidents(ctx, ns)
		if err != nil {
			return err
		}
		return stream(c, h.log, ch, func(incidents []*model.Incident) (interface{}, error) {
			render := make([]map[string]interface{}, 0, len(incidents))
			for _, incident := range incidents {
				plain, err := h.repo.OpenIncident(incident)
				if err != nil {
					return nil, err
				}
				render = append(render, serializer.Incident(plain))
			}
			return render, nil
		})
	case "evidence":
		ch, err := h.repo.WatchEvidence(ctx, ns)
		if err != nil {
			return err
		}
		return stream(c, h.log, ch, func(evidences []*model.Evidence) (interface{}, error) {
			return serializer.Collection(evidences, serializer.Evidence), nil
		})
	case "documents":
		ch, err := h.repo.WatchDocuments(ctx, ns)
		if err != nil {
			return err
		}
		return stream(c, h.log, ch, func(documents []*model.Document) (interface{}, error) {
			return serializer.Collection(documents, serializer.Document), nil
		})
	case "journeys":
		ch, err := h.repo.WatchJourneys(ctx, ns)
		if err != nil {
			return err
		}
		return stream(c, h.log, ch, func(journeys []*model.Journey) (interface{}, error) {
			render := make([]map[string]interface{}, 0, len(journeys))
			for _, j := range journeys {
				plain, err := h.repo.OpenJourney(j)
				if err != nil {
					return nil, err
				}
				render = append(render, serializer.Journey(plain))
			}
			return render, nil
		})
	case "contacts":
		ch, err := h.repo.WatchContacts(ctx, ns)
		if err != nil {
			return err
		}
		return stream(c, h.log, ch, func(contacts []*model.Contact) (interface{}, error) {
			render := make([]map[string]interface{}, 0, len(contacts))
			for _, m := range contacts {
				plain, err := h.repo.OpenContact(m)
				if err != nil {
					return nil, err
				}
				render = append(render, serializer.Contact(plain))
			}
			return render, nil
		})
	default:
		return sherror.NotFound("topic " + topic)
	}
}

// stream writes one event per value received on ch until ch is closed.
// A value that cannot be rendered is skipped, the next one supersedes it anyway.
func stream[T any](c echo.Context, log logrus.FieldLogger, ch <-chan T, render func(T) (interface{}, error)) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	encoder := json.NewEncoder(w)
	for v := range ch {
		payload, err := render(v)
		if err != nil {
			log.WithError(err).Warn("could not render subscription event")
			continue
		}

		if _, err = fmt.Fprint(w, "data: "); err != nil {
			return nil
		}
		if err = encoder.Encode(serializer.Global(payload)); err != nil {
			return nil
		}
		if _, err = fmt.Fprint(w, "\n"); err != nil {
			return nil
		}
		w.Flush()
	}
	return nil
}
