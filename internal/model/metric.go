package model

import "time"

// Pillar identifies one of the three ESG dimensions.
type Pillar string

const (
	PillarEnvironmental Pillar = "environmental"
	PillarSocial        Pillar = "social"
	PillarGovernance    Pillar = "governance"
)

// Pillars lists the pillars in canonical order. Tie-breaking in
// recommendations and the compliance breakdown follow this order.
var Pillars = []Pillar{PillarEnvironmental, PillarSocial, PillarGovernance}

// Valid reports whether p is a known pillar.
func (p Pillar) Valid() bool {
	switch p {
	case PillarEnvironmental, PillarSocial, PillarGovernance:
		return true
	}
	return false
}

// MetricRecord holds the raw submitted fields for one (company, period,
// pillar) triple. At most one record exists per triple; saves are
// create-or-replace.
type MetricRecord struct {
	ID        string         `json:"id"`
	CompanyID string         `json:"company_id"`
	Period    string         `json:"period"`
	Pillar    Pillar         `json:"pillar"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Has reports whether the field was submitted. A reported zero or an
// answered "no" is data; only absent keys, nils and empty strings count
// as missing.
func (m *MetricRecord) Has(key string) bool {
	if m == nil {
		return false
	}
	v, ok := m.Fields[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}

// Float returns the field as a float64. JSON decoding yields float64 for
// all numbers; integer literals from YAML seeds are handled too.
func (m *MetricRecord) Float(key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m.Fields[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Bool returns the field as a bool.
func (m *MetricRecord) Bool(key string) (bool, bool) {
	if m == nil {
		return false, false
	}
	v, ok := m.Fields[key].(bool)
	return v, ok
}
