package repository

import (
	"context"
	"io"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/pkg/errors"
)

// MaxBlobSize is the maximal size of an evidence or document file.
const MaxBlobSize = 256 << 20

// EvidenceParams describe an evidence file.
type EvidenceParams struct {
	Type       model.EvidenceType `json:"evidence_type"`
	MimeType   string             `json:"mime_type"`
	IncidentID string             `json:"incident_id"`
}

// SaveEvidence seals the content into the vault and persists its reference.
func (r *Repository) SaveEvidence(ctx context.Context, namespace string, params EvidenceParams, content io.Reader) (*model.Evidence, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	if _, err := model.ParseEvidenceType(string(params.Type)); err != nil {
		return nil, sherror.Validation("%s", err.Error())
	}

	if params.IncidentID != "" {
		if _, err := r.db.FindIncident(params.IncidentID, namespace); err != nil {
			return nil, r.fail(err, "incident", "get incident")
		}
	}

	ref, size, err := r.writeBlob(namespace, content)
	if err != nil {
		return nil, err
	}

	evidence := &model.Evidence{
		UserID:     namespace,
		Type:       params.Type,
		FileRef:    ref,
		FileSize:   size,
		MimeType:   params.MimeType,
		IncidentID: params.IncidentID,
	}

	if err = r.save(evidence, "persist evidence"); err != nil {
		if rerr := r.vault.Remove(ref); rerr != nil {
			r.log.WithError(rerr).Warn("could not remove orphan blob")
		}
		return nil, err
	}
	return evidence, nil
}

// Evidence returns the evidence as stored.
func (r *Repository) Evidence(ctx context.Context, namespace, id string) (*model.Evidence, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	evidence, err := r.db.FindEvidence(id, namespace)
	if err != nil {
		return nil, r.fail(err, "evidence", "get evidence")
	}
	return evidence, nil
}

// Evidences returns the evidences of the namespace, newest first.
func (r *Repository) Evidences(ctx context.Context, namespace string) ([]*model.Evidence, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	evidences, err := r.db.FindEvidencesByUserID(namespace)
	if err != nil {
		return nil, sherror.Storage(err, "list evidences")
	}
	return evidences, nil
}

// EvidencesByIncident returns the evidences attached to the given incident.
func (r *Repository) EvidencesByIncident(ctx context.Context, namespace, incidentID string) ([]*model.Evidence, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	evidences, err := r.db.FindEvidencesByIncident(incidentID, namespace)
	if err != nil {
		return nil, sherror.Storage(err, "list evidences")
	}
	return evidences, nil
}

// ReadEvidence returns the decrypted content of the evidence.
func (r *Repository) ReadEvidence(ctx context.Context, namespace, id string) (*model.Evidence, []byte, error) {
	evidence, err := r.Evidence(ctx, namespace, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := r.readBlob(namespace, evidence.FileRef)
	if err != nil {
		return nil, nil, err
	}
	return evidence, data, nil
}

// DeleteEvidence deletes the evidence file and its reference.
func (r *Repository) DeleteEvidence(ctx context.Context, namespace, id string) error {
	evidence, err := r.Evidence(ctx, namespace, id)
	if err != nil {
		if sherror.IsNotFound(err) {
			return nil
		}
		return err
	}
	return r.deleteEvidence(evidence)
}

// WatchEvidence returns a live view of the evidences of the namespace.
func (r *Repository) WatchEvidence(ctx context.Context, namespace string) (<-chan []*model.Evidence, error) {
	return watch(ctx, r, database.TopicEvidence, func() ([]*model.Evidence, error) {
		return r.Evidences(ctx, namespace)
	})
}

func (r *Repository) deleteEvidence(evidence *model.Evidence) error {
	if err := r.vault.Remove(evidence.FileRef); err != nil {
		return sherror.Storage(err, "delete evidence file")
	}
	return r.fail(r.db.DeleteEvidence(evidence.ID, evidence.UserID), "evidence", "delete evidence")
}

func (r *Repository) writeBlob(namespace string, content io.Reader) (string, int64, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxBlobSize+1))
	if err != nil {
		return "", 0, errors.Wrap(err, "could not read content")
	}
	if len(data) == 0 {
		return "", 0, sherror.Validation("content must not be empty")
	}
	if len(data) > MaxBlobSize {
		return "", 0, sherror.Validation("content exceeds %d bytes", MaxBlobSize)
	}

	sealed, err := r.keyring.Codec(namespace).Seal(data)
	if err != nil {
		return "", 0, errors.Wrap(err, "could not seal content")
	}

	ref, err := r.vault.Write(sealed)
	if err != nil {
		return "", 0, sherror.Storage(err, "store content")
	}
	return ref, int64(len(data)), nil
}

func (r *Repository) readBlob(namespace, ref string) ([]byte, error) {
	sealed, err := r.vault.Read(ref)
	if err != nil {
		return nil, sherror.Storage(err, "read content")
	}

	data, err := r.keyring.Codec(namespace).Open(sealed)
	if err != nil {
		return nil, sherror.Crypto(err)
	}
	return data, nil
}
