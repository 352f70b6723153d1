package model

import "github.com/pkg/errors"

// An EvidenceType is the media kind of an evidence item.
type EvidenceType string

// Evidence types.
const (
	EvidencePhoto EvidenceType = "photo"
	EvidenceVideo EvidenceType = "video"
	EvidenceAudio EvidenceType = "audio"
)

// ParseEvidenceType returns the EvidenceType for the given string.
func ParseEvidenceType(s string) (EvidenceType, error) {
	switch t := EvidenceType(s); t {
	case EvidencePhoto, EvidenceVideo, EvidenceAudio:
		return t, nil
	}
	return "", errors.Errorf("unknown evidence type %q", s)
}

// An Evidence references an encrypted media file stored in the vault.
type Evidence struct {
	Base `msgpack:",inline" storm:"inline"`

	UserID     string       `msgpack:"user_id"     storm:"index"`
	Type       EvidenceType `msgpack:"type"        storm:"index"`
	FileRef    string       `msgpack:"file_ref"`
	FileSize   int64        `msgpack:"file_size"`
	MimeType   string       `msgpack:"mime_type,omitempty"`
	IncidentID string       `msgpack:"incident_id" storm:"index"`
}

// Owner implements Owned.
func (e *Evidence) Owner() string {
	return e.UserID
}

// A Document is a content-addressed, encrypted copy of an identity or legal document.
// It is immutable once created, deletion aside.
type Document struct {
	Base `msgpack:",inline" storm:"inline"`

	UserID         string `msgpack:"user_id"    storm:"index"`
	Type           string `msgpack:"type"`
	Name           string `msgpack:"name"`
	SHA256Hash     string `msgpack:"sha256"     storm:"index"`
	FileRef        string `msgpack:"file_ref"`
	FileSize       int64  `msgpack:"file_size"`
	TimestampProof string `msgpack:"timestamp_proof,omitempty"`
}

// Owner implements Owned.
func (d *Document) Owner() string {
	return d.UserID
}
