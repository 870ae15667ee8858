package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/Raoof128/ILAE/internal/audit"
	"github.com/Raoof128/ILAE/internal/connector"
	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/internal/policy"
	"github.com/Raoof128/ILAE/internal/state"
	"github.com/Raoof128/ILAE/internal/workflow"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

type ServiceSuite struct {
	suite.Suite
	ctx  context.Context
	deps workflow.Deps
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.DiscardHandler)

	resolver, err := policy.NewResolverFromConfig(policy.AccessMatrix{}, policy.RoleMappings{}, logger)
	s.Require().NoError(err)

	s.deps = workflow.Deps{
		Policy:   resolver,
		State:    state.NewStore(s.ctx, nil, logger),
		Executor: workflow.NewStepExecutor(connector.NewSimulatedRegistry(), logger, nil),
		Audit:    audit.NewTrail(audit.NewInMemoryStore(), logger),
		Logger:   logger,
	}
}

func (s *ServiceSuite) newService(dedupe DedupeStore) *Service {
	return New(s.deps, dedupe, slog.New(slog.DiscardHandler), nil)
}

func (s *ServiceSuite) validEvent() domain.HREvent {
	return domain.HREvent{
		Kind:       domain.EventNewStarter,
		EmployeeID: "EMP001",
		Name:       "Ada Wong",
		Email:      "ada.wong@company.com",
		Department: "Engineering",
		Title:      "Engineer",
		Timestamp:  time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC),
	}
}

// TestValidation verifies malformed events are rejected before any workflow
// runs.
func (s *ServiceSuite) TestValidation() {
	svc := s.newService(nil)

	s.Run("accepts a complete event", func() {
		s.NoError(svc.ValidateEvent(s.validEvent()))
	})

	s.Run("rejects unknown event kind", func() {
		event := s.validEvent()
		event.Kind = "PROMOTION_PARTY"
		err := svc.ValidateEvent(event)
		s.Require().Error(err)
		s.True(jmlerrors.HasCode(err, jmlerrors.CodeInvalidInput))
	})

	s.Run("rejects missing employee id", func() {
		event := s.validEvent()
		event.EmployeeID = ""
		s.Error(svc.ValidateEvent(event))
	})

	s.Run("rejects malformed email", func() {
		event := s.validEvent()
		event.Email = "not-an-email"
		s.Error(svc.ValidateEvent(event))
	})

	s.Run("rejects mover event without previous attributes", func() {
		event := s.validEvent()
		event.Kind = domain.EventRoleChange
		err := svc.ValidateEvent(event)
		s.Require().Error(err)
		s.True(jmlerrors.HasCode(err, jmlerrors.CodeInvalidInput))
	})

	s.Run("accepts mover event with previous title", func() {
		event := s.validEvent()
		event.Kind = domain.EventRoleChange
		event.PreviousTitle = "Junior Engineer"
		s.NoError(svc.ValidateEvent(event))
	})
}

// TestProcessEvent verifies the full dispatch path.
func (s *ServiceSuite) TestProcessEvent() {
	svc := s.newService(nil)

	result, err := svc.ProcessEvent(s.ctx, s.validEvent())
	s.Require().NoError(err)
	s.True(result.Success)
	s.NotEmpty(result.Steps)

	_, err = s.deps.State.Get(s.ctx, "EMP001")
	s.NoError(err)
}

// TestDedupe verifies duplicate deliveries are dropped, with Redis and with
// the in-process fallback.
func (s *ServiceSuite) TestDedupe() {
	s.Run("redis backend drops the second delivery", func() {
		mr := miniredis.RunT(s.T())
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		svc := s.newService(NewRedisDedupe(client, time.Hour))

		_, err := svc.ProcessEvent(s.ctx, s.validEvent())
		s.Require().NoError(err)

		_, err = svc.ProcessEvent(s.ctx, s.validEvent())
		s.Require().Error(err)
		s.True(jmlerrors.HasCode(err, jmlerrors.CodeInvalidInput))
	})

	s.Run("fingerprint expires with the ttl", func() {
		mr := miniredis.RunT(s.T())
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		svc := s.newService(NewRedisDedupe(client, time.Hour))

		_, err := svc.ProcessEvent(s.ctx, s.validEvent())
		s.Require().NoError(err)

		mr.FastForward(2 * time.Hour)
		_, err = svc.ProcessEvent(s.ctx, s.validEvent())
		s.NoError(err)
	})

	s.Run("unreachable backend processes anyway", func() {
		mr := miniredis.RunT(s.T())
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		mr.Close()
		svc := s.newService(NewRedisDedupe(client, time.Hour))

		_, err := svc.ProcessEvent(s.ctx, s.validEvent())
		s.NoError(err)
	})

	s.Run("memory backend drops the second delivery", func() {
		svc := s.newService(NewMemoryDedupe(time.Hour))

		_, err := svc.ProcessEvent(s.ctx, s.validEvent())
		s.Require().NoError(err)

		_, err = svc.ProcessEvent(s.ctx, s.validEvent())
		s.Require().Error(err)
	})

	s.Run("different timestamps are distinct deliveries", func() {
		svc := s.newService(NewMemoryDedupe(time.Hour))

		first := s.validEvent()
		_, err := svc.ProcessEvent(s.ctx, first)
		s.Require().NoError(err)

		second := s.validEvent()
		second.Timestamp = first.Timestamp.Add(time.Minute)
		_, err = svc.ProcessEvent(s.ctx, second)
		s.NoError(err)
	})
}

// TestSerialization verifies concurrent events for one employee do not race:
// every workflow runs, one at a time.
func (s *ServiceSuite) TestSerialization() {
	svc := s.newService(nil)

	_, err := svc.ProcessEvent(s.ctx, s.validEvent())
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			event := s.validEvent()
			event.Kind = domain.EventRoleChange
			event.PreviousTitle = "Engineer"
			event.Title = "Senior Engineer"
			event.Timestamp = event.Timestamp.Add(time.Duration(i) * time.Second)
			_, err := svc.ProcessEvent(s.ctx, event)
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	identity, err := s.deps.State.Get(s.ctx, "EMP001")
	s.Require().NoError(err)
	s.Equal("Senior Engineer", identity.Title)
}
