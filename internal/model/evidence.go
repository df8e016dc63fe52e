package model

import "time"

// EvidenceStatus tracks whether a document backs up a metric concept.
type EvidenceStatus string

const (
	EvidenceLinked  EvidenceStatus = "Linked"
	EvidencePending EvidenceStatus = "Pending"
	EvidenceMissing EvidenceStatus = "Missing"
)

// Evidence is an uploaded supporting document. Upload and storage of the
// file itself are delegated to an external service; this record tracks
// metadata and the manual link to a metric concept.
type Evidence struct {
	ID           string         `json:"id"`
	CompanyID    string         `json:"company_id"`
	EvidenceType string         `json:"evidence_type"`
	ESGArea      Pillar         `json:"esg_area"`
	LinkedTo     string         `json:"linked_to,omitempty"`
	Status       EvidenceStatus `json:"status"`
	ExpiryDate   *time.Time     `json:"expiry_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
