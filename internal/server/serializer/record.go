package serializer

import (
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
)

// Incident serializes the render of an opened incident report.
func Incident(m *repository.PlainIncident) map[string]interface{} {
	r := map[string]interface{}{
		"id":                       m.ID,
		"created_at":               m.CreatedAt,
		"timestamp":                m.Timestamp,
		"incident_type":            m.Type,
		"description":              m.Description,
		"witnesses":                m.Witnesses,
		"injuries":                 m.Injuries,
		"police_involved":          m.PoliceInvolved,
		"police_report_number":     m.PoliceReportNumber,
		"medical_attention":        m.MedicalAttention,
		"location":                 m.Location,
		"perpetrator_name":         m.PerpetratorName,
		"perpetrator_relationship": m.PerpetratorRelationship,
	}
	if m.Latitude != nil && m.Longitude != nil {
		r["latitude"] = *m.Latitude
		r["longitude"] = *m.Longitude
	}
	return r
}

// Evidence serializes the render of an evidence reference.
// The vault reference stays server side.
func Evidence(m *model.Evidence) map[string]interface{} {
	return map[string]interface{}{
		"id":            m.ID,
		"created_at":    m.CreatedAt,
		"evidence_type": m.Type,
		"file_size":     m.FileSize,
		"mime_type":     m.MimeType,
		"incident_id":   m.IncidentID,
	}
}

// Document serializes the render of a document.
func Document(m *model.Document) map[string]interface{} {
	return map[string]interface{}{
		"id":              m.ID,
		"created_at":      m.CreatedAt,
		"document_type":   m.Type,
		"document_name":   m.Name,
		"sha256":          m.SHA256Hash,
		"file_size":       m.FileSize,
		"timestamp_proof": m.TimestampProof,
	}
}
