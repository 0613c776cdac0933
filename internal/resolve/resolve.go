// Package resolve implements the registration decision flow: it takes a
// claimed identity, resolves it against the roster, and either records a
// registration, rejects it, or asks the operator to pick between namesakes.
package resolve

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/accordlabs/checkin/internal/event"
)

// Status describes the outcome of a registration attempt.
type Status string

const (
	// StatusRegistered means a registration was recorded.
	StatusRegistered Status = "registered"
	// StatusAmbiguous means several roster entries share the claimed name
	// and the operator has to pick one.
	StatusAmbiguous Status = "ambiguous"
)

// Candidate is one of several roster entries sharing a claimed name.
type Candidate struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Registered bool   `json:"registered"`
}

// Result is the outcome of a registration attempt.
type Result struct {
	Status        Status             `json:"status"`
	Registration  event.Registration `json:"registration,omitempty"`
	BadgeDocument string             `json:"badge_document,omitempty"`
	Candidates    []Candidate        `json:"candidates,omitempty"`
}

// RosterSource provides the current attendee roster.
type RosterSource interface {
	Roster() ([]event.RosterEntry, error)
}

// Registry records registrations and issue flags.
type Registry interface {
	IsRegistered(name, phone string) (bool, error)
	Record(name, phone string, origin event.Origin) (event.Registration, error)
	MarkBadgeIssued(id string) error
}

// SettingsSource provides the current event settings.
type SettingsSource interface {
	LoadSettings() (event.Settings, error)
}

// BadgeRenderer renders a printable badge for a registration.
type BadgeRenderer interface {
	Badge(reg event.Registration, set event.Settings) (string, error)
}

// Resolver coordinates roster lookup, duplicate detection, and badge
// auto-printing for incoming registrations.
type Resolver struct {
	roster   RosterSource
	registry Registry
	settings SettingsSource
	badges   BadgeRenderer
	logger   *zap.Logger
}

// New creates a Resolver. The badge renderer may be nil, in which case
// auto-printing is disabled regardless of settings.
func New(roster RosterSource, registry Registry, settings SettingsSource, badges BadgeRenderer, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		roster:   roster,
		registry: registry,
		settings: settings,
		badges:   badges,
		logger:   logger,
	}
}

// RegisterOfficial registers an attendee by claimed roster name. The name
// has to match a roster entry exactly, ignoring case. When several roster
// entries carry the claimed name, no registration is recorded and the
// result lists the candidates instead, even if all but one are already
// registered.
func (r *Resolver) RegisterOfficial(name string) (Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{}, fmt.Errorf("name is required: %w", event.ErrMissingField)
	}

	entries, err := r.roster.Roster()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load roster: %w", err)
	}

	var matches []event.RosterEntry
	for _, entry := range entries {
		if strings.EqualFold(entry.Name, name) {
			matches = append(matches, entry)
		}
	}

	switch len(matches) {
	case 0:
		return Result{}, fmt.Errorf("%q: %w", name, event.ErrNotInRoster)
	case 1:
		return r.record(matches[0].Name, matches[0].Phone, event.OriginOfficial)
	}

	candidates := make([]Candidate, len(matches))
	for i, entry := range matches {
		registered, err := r.registry.IsRegistered(entry.Name, entry.Phone)
		if err != nil {
			return Result{}, fmt.Errorf("failed to check registration: %w", err)
		}
		candidates[i] = Candidate{Name: entry.Name, Phone: entry.Phone, Registered: registered}
	}

	r.logger.Info("ambiguous registration",
		zap.String("name", name),
		zap.Int("candidates", len(candidates)))

	return Result{Status: StatusAmbiguous, Candidates: candidates}, nil
}

// SelectCandidate registers the roster entry the operator picked out of an
// ambiguous result. The pair has to identify a roster entry exactly.
func (r *Resolver) SelectCandidate(name, phone string) (Result, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return Result{}, fmt.Errorf("name and phone are required: %w", event.ErrMissingField)
	}

	entries, err := r.roster.Roster()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load roster: %w", err)
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.Name, name) && entry.Phone == phone {
			return r.record(entry.Name, entry.Phone, event.OriginOfficial)
		}
	}
	return Result{}, fmt.Errorf("%q (%s): %w", name, phone, event.ErrNotInRoster)
}

// RegisterWalkIn records a walk-in registration. Walk-ins are never
// resolved against the roster; both fields are required.
func (r *Resolver) RegisterWalkIn(name, phone string) (Result, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return Result{}, fmt.Errorf("name and phone are required: %w", event.ErrMissingField)
	}
	return r.record(name, phone, event.OriginWalkIn)
}

func (r *Resolver) record(name, phone string, origin event.Origin) (Result, error) {
	reg, err := r.registry.Record(name, phone, origin)
	if err != nil {
		return Result{}, err
	}

	result := Result{Status: StatusRegistered, Registration: reg}
	r.autoPrint(&result)
	return result, nil
}

// autoPrint renders and issues a badge right after registration when the
// event is configured for it. A failed print never unwinds the
// registration; it is logged and the caller can reprint later.
func (r *Resolver) autoPrint(result *Result) {
	if r.badges == nil {
		return
	}
	set, err := r.settings.LoadSettings()
	if err != nil {
		r.logger.Warn("failed to load settings for auto-print", zap.Error(err))
		return
	}
	if !set.AutoPrintBadges {
		return
	}

	reg := result.Registration
	doc, err := r.badges.Badge(reg, set)
	if err != nil {
		r.logger.Warn("failed to render badge",
			zap.String("id", reg.ID),
			zap.Error(err))
		return
	}
	if err := r.registry.MarkBadgeIssued(reg.ID); err != nil {
		r.logger.Warn("failed to mark badge issued",
			zap.String("id", reg.ID),
			zap.Error(err))
		return
	}

	result.Registration.BadgeIssued = true
	result.BadgeDocument = doc
}
