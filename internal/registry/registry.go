// Package registry tracks completed registrations and enforces the
// one-registration-per-person invariant. The identity key is the pair
// (name compared case-insensitively, phone compared exactly): two people
// sharing a name but not a phone are different attendees.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/accordlabs/checkin/internal/event"
)

// Store is the slice of the persistence layer the registry needs.
type Store interface {
	Registrations() ([]event.Registration, error)
	AppendRegistration(event.Registration) error
	SetBadgeIssued(id string) error
	SetCertificateIssued(id string) error
}

// Registry wraps the live registration list. The check-then-append in
// Record runs under a single lock so two stations submitting the same
// person concurrently cannot both succeed.
type Registry struct {
	mu     sync.Mutex
	store  Store
	logger *zap.Logger
}

// New creates a registry over the given store.
func New(store Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{store: store, logger: logger}
}

// IsRegistered reports whether the exact person is already registered.
func (r *Registry) IsRegistered(name, phone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRegisteredLocked(name, phone)
}

func (r *Registry) isRegisteredLocked(name, phone string) (bool, error) {
	regs, err := r.store.Registrations()
	if err != nil {
		return false, err
	}
	for _, reg := range regs {
		if reg.SameIdentity(name, phone) {
			return true, nil
		}
	}
	return false, nil
}

// Unregistered filters the given roster entries down to those not yet
// registered, preserving order.
func (r *Registry) Unregistered(entries []event.RosterEntry) ([]event.RosterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs, err := r.store.Registrations()
	if err != nil {
		return nil, err
	}
	var out []event.RosterEntry
	for _, e := range entries {
		registered := false
		for _, reg := range regs {
			if reg.SameIdentity(e.Name, e.Phone) {
				registered = true
				break
			}
		}
		if !registered {
			out = append(out, e)
		}
	}
	return out, nil
}

// Record appends a new registration for the given person. It fails with
// ErrAlreadyRegistered if the identity is taken at call time, regardless
// of any earlier IsRegistered check by the caller.
func (r *Registry) Record(name, phone string, origin event.Origin) (event.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	taken, err := r.isRegisteredLocked(name, phone)
	if err != nil {
		return event.Registration{}, err
	}
	if taken {
		return event.Registration{}, fmt.Errorf("%s (%s): %w", name, phone, event.ErrAlreadyRegistered)
	}

	reg := event.Registration{
		ID:           uuid.NewString(),
		Name:         name,
		Phone:        phone,
		Origin:       origin,
		RegisteredAt: time.Now().UTC(),
	}
	if err := r.store.AppendRegistration(reg); err != nil {
		return event.Registration{}, err
	}
	r.logger.Info("registration recorded",
		zap.String("name", reg.Name),
		zap.String("origin", string(reg.Origin)),
	)
	return reg, nil
}

// All returns every registration, oldest first.
func (r *Registry) All() ([]event.Registration, error) {
	return r.store.Registrations()
}

// MarkBadgeIssued raises the badge flag for a registration.
func (r *Registry) MarkBadgeIssued(id string) error {
	return r.store.SetBadgeIssued(id)
}

// MarkCertificateIssued raises the certificate flag for a registration.
func (r *Registry) MarkCertificateIssued(id string) error {
	return r.store.SetCertificateIssued(id)
}
