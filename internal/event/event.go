// Package event defines the core data model for the check-in system:
// roster entries, registrations, event settings, and the error kinds
// surfaced to operators.
package event

import (
	"strings"
	"time"
)

// Origin distinguishes attendees from the official roster from ad-hoc walk-ins.
type Origin string

const (
	OriginOfficial Origin = "official"
	OriginWalkIn   Origin = "walk-in"
)

// Label returns the human-readable form used in reports ("Official" / "Walk-in").
func (o Origin) Label() string {
	if o == OriginWalkIn {
		return "Walk-in"
	}
	return "Official"
}

// RosterEntry is a single row of the official attendee list. Entries are
// immutable once loaded; the roster is replaced wholesale on each upload.
// Names are not unique: two different people may share a display name and
// are told apart by phone number.
type RosterEntry struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Registration is a completed check-in. The identity key for "same physical
// person" is the pair (name lower-cased, phone exact).
type Registration struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	Origin            Origin    `json:"origin"`
	RegisteredAt      time.Time `json:"registered_at"`
	BadgeIssued       bool      `json:"badge_issued"`
	CertificateIssued bool      `json:"certificate_issued"`
}

// SameIdentity reports whether the registration belongs to the person
// identified by the given name and phone.
func (r Registration) SameIdentity(name, phone string) bool {
	return strings.EqualFold(r.Name, name) && r.Phone == phone
}

// Placement is a template placement box in coordinates relative to the
// artifact canvas (all values in [0,1]).
type Placement struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// DefaultPlacement centers the name on the lower-middle of the template.
func DefaultPlacement() Placement {
	return Placement{X: 0.3, Y: 0.4, W: 0.4, H: 0.12}
}

// Settings holds per-event configuration persisted alongside the roster.
type Settings struct {
	EventName              string    `json:"event_name"`
	AutoPrintBadges        bool      `json:"auto_print_badges"`
	PrePrintedBadges       bool      `json:"pre_printed_badges"`
	PrePrintedCertificates bool      `json:"pre_printed_certificates"`
	BadgeTemplate          string    `json:"badge_template,omitempty"`
	BadgePlacement         Placement `json:"badge_placement"`
	CertTemplate           string    `json:"cert_template,omitempty"`
	CertPlacement          Placement `json:"cert_placement"`
}
