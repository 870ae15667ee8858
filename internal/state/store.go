// Package state owns the durable record of employee identities.
//
// The store keeps every identity in memory and writes the whole collection
// through a Snapshotter on each mutation. Loading happens once at
// construction. Concurrent mutators for the same employee must be serialized
// by the caller; the store's lock only protects its own maps.
package state

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
	"github.com/Raoof128/ILAE/pkg/sentinel"
)

// Snapshotter persists and restores the full identity collection. Save is
// called on every mutation (write-through); Load once at construction.
type Snapshotter interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// Snapshot is the wholesale persisted document: employee id to identity,
// plus the time of the last write.
type Snapshot struct {
	Identities  map[string]domain.Identity `json:"identities"`
	LastUpdated time.Time                  `json:"last_updated"`
}

// Summary aggregates counts across the whole store.
type Summary struct {
	TotalUsers           int                           `json:"total_users"`
	TotalEntitlements    int                           `json:"total_entitlements"`
	EntitlementsBySystem map[domain.System]int         `json:"entitlements_by_system"`
	UsersByDepartment    map[string]int                `json:"users_by_department"`
	UsersByStatus        map[domain.IdentityStatus]int `json:"users_by_status"`
}

// Store is the identity state store. Safe for concurrent reads; mutating
// calls for the same employee must be serialized by the caller to avoid lost
// updates (per-employee locking lives in the service layer).
type Store struct {
	mu         sync.RWMutex
	identities map[string]domain.Identity
	snapshots  Snapshotter
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures optional store behavior.
type Option func(*Store)

// WithClock injects a time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore builds a store backed by the given snapshotter. A nil snapshotter
// keeps state in memory only. A failed load logs and starts from empty state
// rather than failing construction.
func NewStore(ctx context.Context, snapshots Snapshotter, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		identities: make(map[string]domain.Identity),
		snapshots:  snapshots,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if snapshots != nil {
		snap, err := snapshots.Load(ctx)
		if err != nil {
			logger.Error("load identity snapshot, starting empty", "error", err)
		} else if snap.Identities != nil {
			s.identities = snap.Identities
			logger.Info("loaded identity state", "identities", len(snap.Identities))
		}
	}
	return s
}

// Get returns the identity for an employee id.
func (s *Store) Get(ctx context.Context, employeeID string) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[employeeID]
	if !ok {
		return domain.Identity{}, sentinel.ErrNotFound
	}
	return identity.Clone(), nil
}

// GetByEmail returns the identity holding the given email, case-insensitive.
func (s *Store) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.identities {
		if strings.EqualFold(identity.Email, email) {
			return identity.Clone(), nil
		}
	}
	return domain.Identity{}, sentinel.ErrNotFound
}

// Upsert creates or updates the identity described by the event. A new
// record derives its status from the event kind; an existing record has its
// descriptive fields and status mutated in place, preserving entitlements
// unless a replacement set is supplied (nil means "leave unchanged").
func (s *Store) Upsert(ctx context.Context, event domain.HREvent, entitlements []domain.AccessEntitlement) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	identity, ok := s.identities[event.EmployeeID]
	if ok {
		identity.Name = event.Name
		identity.Email = event.Email
		identity.Department = event.Department
		identity.Title = event.Title
		identity.Status = domain.StatusForEvent(event.Kind)
		identity.UpdatedAt = now
		event := event
		identity.LastEvent = &event
		if entitlements != nil {
			identity.Entitlements = dedupe(entitlements)
		}
		s.logger.Info("updated identity", "employee_id", event.EmployeeID)
	} else {
		event := event
		identity = domain.Identity{
			EmployeeID:   event.EmployeeID,
			Name:         event.Name,
			Email:        event.Email,
			Department:   event.Department,
			Title:        event.Title,
			Status:       domain.StatusForEvent(event.Kind),
			Entitlements: dedupe(entitlements),
			CreatedAt:    now,
			UpdatedAt:    now,
			LastEvent:    &event,
		}
		s.logger.Info("created identity", "employee_id", event.EmployeeID)
	}
	s.identities[event.EmployeeID] = identity

	if err := s.persistLocked(ctx); err != nil {
		return identity.Clone(), err
	}
	return identity.Clone(), nil
}

// SetEntitlements replaces the entitlement set for an employee. Reports
// false when the employee is unknown.
func (s *Store) SetEntitlements(ctx context.Context, employeeID string, entitlements []domain.AccessEntitlement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[employeeID]
	if !ok {
		s.logger.Warn("cannot set entitlements, employee unknown", "employee_id", employeeID)
		return false, nil
	}
	identity.Entitlements = dedupe(entitlements)
	identity.UpdatedAt = s.now().UTC()
	s.identities[employeeID] = identity

	if err := s.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Deactivate marks an identity TERMINATED. Reports false when unknown.
func (s *Store) Deactivate(ctx context.Context, employeeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[employeeID]
	if !ok {
		return false, nil
	}
	identity.Status = domain.StatusTerminated
	identity.UpdatedAt = s.now().UTC()
	s.identities[employeeID] = identity

	if err := s.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// ListAll returns every identity, ordered by employee id.
func (s *Store) ListAll(ctx context.Context) []domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		out = append(out, identity.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}

// ListByStatus returns identities with the given status, ordered by id.
func (s *Store) ListByStatus(ctx context.Context, status domain.IdentityStatus) []domain.Identity {
	all := s.ListAll(ctx)
	out := all[:0]
	for _, identity := range all {
		if identity.Status == status {
			out = append(out, identity)
		}
	}
	return out
}

// Summary aggregates counts across all identities.
func (s *Store) Summary(ctx context.Context) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := Summary{
		EntitlementsBySystem: make(map[domain.System]int),
		UsersByDepartment:    make(map[string]int),
		UsersByStatus:        make(map[domain.IdentityStatus]int),
	}
	for _, identity := range s.identities {
		summary.TotalUsers++
		summary.TotalEntitlements += len(identity.Entitlements)
		for _, ent := range identity.Entitlements {
			summary.EntitlementsBySystem[ent.System]++
		}
		summary.UsersByDepartment[identity.Department]++
		summary.UsersByStatus[identity.Status]++
	}
	return summary
}

// persistLocked writes the full store through the snapshotter. Must be
// called with the write lock held. A failed save is logged and surfaced.
func (s *Store) persistLocked(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	snap := Snapshot{
		Identities:  make(map[string]domain.Identity, len(s.identities)),
		LastUpdated: s.now().UTC(),
	}
	for id, identity := range s.identities {
		snap.Identities[id] = identity.Clone()
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		s.logger.Error("save identity snapshot", "error", err)
		return jmlerrors.Wrap(err, jmlerrors.CodePersistence, "save identity snapshot")
	}
	return nil
}

// dedupe enforces the uniqueness invariant on the composite entitlement key
// while preserving order of first occurrence.
func dedupe(entitlements []domain.AccessEntitlement) []domain.AccessEntitlement {
	return domain.NewEntitlementSet(entitlements...).Items()
}
