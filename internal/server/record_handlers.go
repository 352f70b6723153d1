package server

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/server/serializer"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/pkg/errors"
)

// record contains the incident, evidence and document handlers.
type record struct {
	repo *repository.Repository
}

//
// Incidents
//

// Incidents renders the opened incident reports of the current namespace.
func (h *record) Incidents(c echo.Context) error {
	incidents, err := h.repo.Incidents(c.Request().Context(), namespace(c))
	if err != nil {
		return err
	}

	render := make([]map[string]interface{}, 0, len(incidents))
	for _, incident := range incidents {
		plain, err := h.repo.OpenIncident(incident)
		if err != nil {
			return err
		}
		render = append(render, serializer.Incident(plain))
	}
	return c.JSON(http.StatusOK, serializer.Global(render))
}

// CreateIncident records a new incident report.
func (h *record) CreateIncident(c echo.Context) error {
	var params repository.IncidentParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, sherror.Validation("Could not get incident's params."))
	}

	incident, err := h.repo.SaveIncident(c.Request().Context(), namespace(c), params)
	if err != nil {
		return err
	}
	return h.renderIncident(c, http.StatusCreated, incident)
}

// Incident renders an opened incident report.
func (h *record) Incident(c echo.Context) error {
	incident, err := h.repo.Incident(c.Request().Context(), namespace(c), c.Param("id"))
	if err != nil {
		return err
	}
	return h.renderIncident(c, http.StatusOK, incident)
}

// DeleteIncident deletes an incident report.
func (h *record) DeleteIncident(c echo.Context) error {
	if err := h.repo.DeleteIncident(c.Request().Context(), namespace(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// IncidentEvidence renders the evidence attached to an incident report.
func (h *record) IncidentEvidence(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.repo.Incident(ctx, namespace(c), c.Param("id")); err != nil {
		return err
	}

	evidences, err := h.repo.EvidencesByIncident(ctx, namespace(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Global(serializer.Collection(evidences, serializer.Evidence)))
}

func (h *record) renderIncident(c echo.Context, code int, incident *model.Incident) error {
	plain, err := h.repo.OpenIncident(incident)
	if err != nil {
		return err
	}
	return c.JSON(code, serializer.Incident(plain))
}

//
// Evidence
//

// Evidences renders the evidence references of the current namespace.
func (h *record) Evidences(c echo.Context) error {
	evidences, err := h.repo.Evidences(c.Request().Context(), namespace(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Global(serializer.Collection(evidences, serializer.Evidence)))
}

// CreateEvidence stores an uploaded media file in the vault.
// It expects a multipart form with a `file` part.
func (h *record) CreateEvidence(c echo.Context) error {
	params := repository.EvidenceParams{
		Type:       model.EvidenceType(c.FormValue("evidence_type")),
		MimeType:   c.FormValue("mime_type"),
		IncidentID: c.FormValue("incident_id"),
	}

	content, mime, err := upload(c)
	if err != nil {
		return err
	}
	defer content.Close()

	if params.MimeType == "" {
		params.MimeType = mime
	}

	evidence, err := h.repo.SaveEvidence(c.Request().Context(), namespace(c), params, content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, serializer.Evidence(evidence))
}

// Evidence renders an evidence reference.
func (h *record) Evidence(c echo.Context) error {
	evidence, err := h.repo.Evidence(c.Request().Context(), namespace(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Evidence(evidence))
}

// EvidenceContent renders the decrypted media file.
func (h *record) EvidenceContent(c echo.Context) error {
	evidence, data, err := h.repo.ReadEvidence(c.Request().Context(), namespace(c), c.Param("id"))
	if err != nil {
		return err
	}

	mime := evidence.MimeType
	if mime == "" {
		mime = echo.MIMEOctetStream
	}
	return c.Blob(http.StatusOK, mime, data)
}

// DeleteEvidence deletes an evidence and its vault file.
func (h *record) DeleteEvidence(c echo.Context) error {
	if err := h.repo.DeleteEvidence(c.Request().Context(), namespace(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

//
// Documents
//

// Documents renders the documents of the current namespace.
func (h *record) Documents(c echo.Context) error {
	documents, err := h.repo.Documents(c.Request().Context(), namespace(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Global(serializer.Collection(documents, serializer.Document)))
}

// CreateDocument stores an uploaded document.
// Uploading the same content twice renders the existing document.
func (h *record) CreateDocument(c echo.Context) error {
	params := repository.DocumentParams{
		Type:           c.FormValue("document_type"),
		Name:           c.FormValue("document_name"),
		TimestampProof: c.FormValue("timestamp_proof"),
	}

	content, _, err := upload(c)
	if err != nil {
		return err
	}
	defer content.Close()

	document, err := h.repo.SaveDocument(c.Request().Context(), namespace(c), params, content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, serializer.Document(document))
}

// Document renders a document.
func (h *record) Document(c echo.Context) error {
	document, err := h.repo.Document(c.Request().Context(), namespace(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.Document(document))
}

// DocumentContent renders the decrypted original of a document.
func (h *record) DocumentContent(c echo.Context) error {
	_, data, err := h.repo.ReadDocument(c.Request().Context(), namespace(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, data)
}

// VerifyDocument checks an uploaded copy against the recorded hash.
func (h *record) VerifyDocument(c echo.Context) error {
	content, _, err := upload(c)
	if err != nil {
		return err
	}
	defer content.Close()

	ok, err := h.repo.VerifyDocument(c.Request().Context(), namespace(c), c.Param("id"), content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"verified": ok,
	})
}

// DeleteDocument deletes a document and its vault file.
func (h *record) DeleteDocument(c echo.Context) error {
	if err := h.repo.DeleteDocument(c.Request().Context(), namespace(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// upload returns the `file` part of the multipart form and its content type.
func upload(c echo.Context) (io.ReadCloser, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", sherror.Validation("No file provided.")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.Wrap(err, "could not open uploaded file")
	}
	return f, fh.Header.Get(echo.HeaderContentType), nil
}
