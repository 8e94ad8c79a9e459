package model

import "time"

// EnvelopeVersion is the current session schema version. Older envelopes
// are accepted on read; missing computed fields (weight, roi, proi) are
// re-derived rather than trusted stale.
const EnvelopeVersion = 2

// Envelope is the persisted session format: one scored batch plus the
// context needed to re-derive its computed fields.
type Envelope struct {
	Version   int         `json:"version"`
	Exam      string      `json:"exam"`
	Source    string      `json:"source,omitempty"`
	Mode      string      `json:"mode,omitempty"`
	Rows      []ParsedRow `json:"rows"`
	Warnings  []string    `json:"warnings,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Stale reports whether the envelope predates the current schema and
// needs its computed fields re-derived.
func (e *Envelope) Stale() bool { return e.Version < EnvelopeVersion }
