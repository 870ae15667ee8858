package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/suite"

	"github.com/Raoof128/ILAE/internal/audit"
	"github.com/Raoof128/ILAE/internal/connector"
	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/internal/policy"
	"github.com/Raoof128/ILAE/internal/service"
	"github.com/Raoof128/ILAE/internal/state"
	"github.com/Raoof128/ILAE/internal/workflow"
)

type WorkerSuite struct {
	suite.Suite
	ctx     context.Context
	handler asynq.HandlerFunc
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.DiscardHandler)

	resolver, err := policy.NewResolverFromConfig(policy.AccessMatrix{}, policy.RoleMappings{}, logger)
	s.Require().NoError(err)

	deps := workflow.Deps{
		Policy:   resolver,
		State:    state.NewStore(s.ctx, nil, logger),
		Executor: workflow.NewStepExecutor(connector.NewSimulatedRegistry(), logger, nil),
		Audit:    audit.NewTrail(audit.NewInMemoryStore(), logger),
		Logger:   logger,
	}
	s.handler = handleProcessEvent(service.New(deps, nil, logger, nil), logger)
}

func (s *WorkerSuite) task(event domain.HREvent) *asynq.Task {
	task, err := NewProcessEventTask(event)
	s.Require().NoError(err)
	return task
}

// TestHandleProcessEvent verifies task dispatch: valid events complete,
// unprocessable ones are dropped without retry.
func (s *WorkerSuite) TestHandleProcessEvent() {
	s.Run("valid event completes the task", func() {
		err := s.handler(s.ctx, s.task(domain.HREvent{
			Kind:       domain.EventNewStarter,
			EmployeeID: "EMP001",
			Name:       "Ada Wong",
			Email:      "ada.wong@company.com",
			Department: "Engineering",
			Timestamp:  time.Now().UTC(),
		}))
		s.NoError(err)
	})

	s.Run("malformed payload skips retry", func() {
		err := s.handler(s.ctx, asynq.NewTask(TaskProcessEvent, []byte("{broken")))
		s.Require().ErrorIs(err, asynq.SkipRetry)
	})

	s.Run("invalid event skips retry", func() {
		err := s.handler(s.ctx, s.task(domain.HREvent{
			Kind:       domain.EventKind("PIZZA_PARTY"),
			EmployeeID: "EMP001",
			Name:       "Ada Wong",
			Email:      "ada.wong@company.com",
			Department: "Engineering",
			Timestamp:  time.Now().UTC(),
		}))
		s.Require().ErrorIs(err, asynq.SkipRetry)
	})
}

// TestPayloadRoundTrip verifies the task payload carries the full event.
func (s *WorkerSuite) TestPayloadRoundTrip() {
	event := domain.HREvent{
		Kind:       domain.EventTermination,
		EmployeeID: "EMP002",
		Name:       "Joan Clarke",
		Email:      "joan.clarke@company.com",
		Department: "Engineering",
		Timestamp:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	task := s.task(event)
	s.Equal(TaskProcessEvent, task.Type())

	var payload ProcessEventPayload
	s.Require().NoError(json.Unmarshal(task.Payload(), &payload))
	s.Equal(event, payload.Event)
}
