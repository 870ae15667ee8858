package state

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/sentinel"
)

type StoreSuite struct {
	suite.Suite
	ctx    context.Context
	logger *slog.Logger
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.DiscardHandler)
}

func (s *StoreSuite) hireEvent(employeeID string) domain.HREvent {
	return domain.HREvent{
		Kind:       domain.EventNewStarter,
		EmployeeID: employeeID,
		Name:       "Jane Doe",
		Email:      "jane.doe@company.com",
		Department: "Engineering",
		Title:      "Engineer",
		Timestamp:  time.Now().UTC(),
	}
}

func entitlement(name string) domain.AccessEntitlement {
	return domain.AccessEntitlement{
		System:          domain.SystemAWS,
		ResourceType:    domain.ResourceRole,
		ResourceName:    name,
		PermissionLevel: "assume",
	}
}

// TestUpsert verifies create and update semantics including entitlement
// preservation on nil input.
func (s *StoreSuite) TestUpsert() {
	store := NewStore(s.ctx, nil, s.logger)

	s.Run("creates identity with event-derived status", func() {
		identity, err := store.Upsert(s.ctx, s.hireEvent("EMP001"), nil)
		s.Require().NoError(err)
		s.Equal(domain.StatusActive, identity.Status)
		s.Empty(identity.Entitlements)
		s.False(identity.CreatedAt.IsZero())
	})

	s.Run("nil entitlements preserve the held set", func() {
		_, err := store.SetEntitlements(s.ctx, "EMP001", []domain.AccessEntitlement{entitlement("A")})
		s.Require().NoError(err)

		identity, err := store.Upsert(s.ctx, s.hireEvent("EMP001"), nil)
		s.Require().NoError(err)
		s.Len(identity.Entitlements, 1)
	})

	s.Run("non-nil entitlements replace and dedupe", func() {
		identity, err := store.Upsert(s.ctx, s.hireEvent("EMP001"), []domain.AccessEntitlement{
			entitlement("A"), entitlement("B"), entitlement("A"),
		})
		s.Require().NoError(err)
		s.Len(identity.Entitlements, 2)
	})

	s.Run("termination event flips status", func() {
		event := s.hireEvent("EMP001")
		event.Kind = domain.EventTermination
		identity, err := store.Upsert(s.ctx, event, nil)
		s.Require().NoError(err)
		s.Equal(domain.StatusTerminated, identity.Status)
	})
}

// TestLookups verifies Get, GetByEmail, and the list accessors.
func (s *StoreSuite) TestLookups() {
	store := NewStore(s.ctx, nil, s.logger)
	_, err := store.Upsert(s.ctx, s.hireEvent("EMP002"), nil)
	s.Require().NoError(err)
	_, err = store.Upsert(s.ctx, s.hireEvent("EMP001"), nil)
	s.Require().NoError(err)

	s.Run("unknown employee yields ErrNotFound", func() {
		_, err := store.Get(s.ctx, "GHOST")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("finds by email case-insensitively", func() {
		identity, err := store.GetByEmail(s.ctx, "JANE.DOE@company.com")
		s.Require().NoError(err)
		s.NotEmpty(identity.EmployeeID)
	})

	s.Run("list is ordered by employee id", func() {
		all := store.ListAll(s.ctx)
		s.Require().Len(all, 2)
		s.Equal("EMP001", all[0].EmployeeID)
		s.Equal("EMP002", all[1].EmployeeID)
	})

	s.Run("filters by status", func() {
		known, err := store.Deactivate(s.ctx, "EMP002")
		s.Require().NoError(err)
		s.Require().True(known)

		terminated := store.ListByStatus(s.ctx, domain.StatusTerminated)
		s.Require().Len(terminated, 1)
		s.Equal("EMP002", terminated[0].EmployeeID)
		s.Len(store.ListByStatus(s.ctx, domain.StatusActive), 1)
	})

	s.Run("returned identities are copies", func() {
		identity, err := store.Get(s.ctx, "EMP001")
		s.Require().NoError(err)
		identity.Name = "Mutated"

		fresh, err := store.Get(s.ctx, "EMP001")
		s.Require().NoError(err)
		s.Equal("Jane Doe", fresh.Name)
	})
}

// TestDeactivate verifies termination marking and its unknown-employee
// reporting.
func (s *StoreSuite) TestDeactivate() {
	store := NewStore(s.ctx, nil, s.logger)
	_, err := store.Upsert(s.ctx, s.hireEvent("EMP001"), nil)
	s.Require().NoError(err)

	known, err := store.Deactivate(s.ctx, "EMP001")
	s.Require().NoError(err)
	s.True(known)

	identity, err := store.Get(s.ctx, "EMP001")
	s.Require().NoError(err)
	s.Equal(domain.StatusTerminated, identity.Status)

	known, err = store.Deactivate(s.ctx, "GHOST")
	s.Require().NoError(err)
	s.False(known)
}

// TestSummary verifies the aggregate counts.
func (s *StoreSuite) TestSummary() {
	store := NewStore(s.ctx, nil, s.logger)
	_, err := store.Upsert(s.ctx, s.hireEvent("EMP001"), []domain.AccessEntitlement{
		entitlement("A"), entitlement("B"),
	})
	s.Require().NoError(err)
	event := s.hireEvent("EMP002")
	event.Department = "Marketing"
	_, err = store.Upsert(s.ctx, event, nil)
	s.Require().NoError(err)
	_, err = store.Deactivate(s.ctx, "EMP002")
	s.Require().NoError(err)

	summary := store.Summary(s.ctx)
	s.Equal(2, summary.TotalUsers)
	s.Equal(2, summary.TotalEntitlements)
	s.Equal(2, summary.EntitlementsBySystem[domain.SystemAWS])
	s.Equal(1, summary.UsersByDepartment["Engineering"])
	s.Equal(1, summary.UsersByStatus[domain.StatusActive])
	s.Equal(1, summary.UsersByStatus[domain.StatusTerminated])
}

// TestWriteThroughPersistence verifies every mutation is durable: a second
// store built over the same file sees the full state.
func (s *StoreSuite) TestWriteThroughPersistence() {
	path := filepath.Join(s.T().TempDir(), "state", "identities.json")
	snapshotter, err := NewFileSnapshotter(path)
	s.Require().NoError(err)

	store := NewStore(s.ctx, snapshotter, s.logger)
	_, err = store.Upsert(s.ctx, s.hireEvent("EMP001"), []domain.AccessEntitlement{entitlement("A")})
	s.Require().NoError(err)
	_, err = store.Deactivate(s.ctx, "EMP001")
	s.Require().NoError(err)

	reloaded := NewStore(s.ctx, snapshotter, s.logger)
	identity, err := reloaded.Get(s.ctx, "EMP001")
	s.Require().NoError(err)
	s.Equal(domain.StatusTerminated, identity.Status)
	s.Len(identity.Entitlements, 1)
}

// TestCorruptSnapshotStartsEmpty verifies a broken document degrades to an
// empty store instead of failing construction.
func (s *StoreSuite) TestCorruptSnapshotStartsEmpty() {
	path := filepath.Join(s.T().TempDir(), "identities.json")
	s.Require().NoError(os.WriteFile(path, []byte("{not json"), 0o644))

	snapshotter, err := NewFileSnapshotter(path)
	s.Require().NoError(err)

	store := NewStore(s.ctx, snapshotter, s.logger)
	s.Empty(store.ListAll(s.ctx))
}
