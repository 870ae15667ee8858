package workflow

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Raoof128/ILAE/internal/connector"
	"github.com/Raoof128/ILAE/internal/domain"
)

// panickyConnector blows up on every call.
type panickyConnector struct {
	failingConnector
}

func (panickyConnector) GrantRole(context.Context, string, string) connector.Result {
	panic("connector bug")
}

type ExecutorSuite struct {
	suite.Suite
	ctx context.Context
}

func TestExecutorSuite(t *testing.T) {
	suite.Run(t, new(ExecutorSuite))
}

func (s *ExecutorSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *ExecutorSuite) executor(registry *connector.Registry) *StepExecutor {
	return NewStepExecutor(registry, slog.New(slog.DiscardHandler), nil)
}

// TestDispatch verifies operations reach the connector and outcomes land on
// the step.
func (s *ExecutorSuite) TestDispatch() {
	registry := connector.NewSimulatedRegistry()
	exec := s.executor(registry)

	step := domain.WorkflowStep{
		System:     domain.SystemAWS,
		Operation:  domain.OpCreateUser,
		Resource:   "user_account",
		Parameters: map[string]string{"user_id": "EMP001", "email": "e@c.com", "name": "E"},
	}
	s.True(exec.ExecuteStep(s.ctx, &step))
	s.True(step.Success)
	s.NotEmpty(step.Result)
	s.False(step.ExecutedAt.IsZero())
}

// TestMissingConnector verifies an unregistered system becomes a failed
// step, not a panic or error.
func (s *ExecutorSuite) TestMissingConnector() {
	exec := s.executor(connector.NewRegistry())

	step := domain.WorkflowStep{
		System:     domain.SystemSlack,
		Operation:  domain.OpAddToGroup,
		Resource:   "general",
		Parameters: map[string]string{"user_id": "EMP001", "group_name": "general"},
	}
	s.False(exec.ExecuteStep(s.ctx, &step))
	s.False(step.Success)
	s.Contains(step.Error, "no connector for system: slack")
}

// TestUnknownOperation verifies the closed dispatch switch rejects
// operations it does not know.
func (s *ExecutorSuite) TestUnknownOperation() {
	exec := s.executor(connector.NewSimulatedRegistry())

	step := domain.WorkflowStep{
		System:    domain.SystemAWS,
		Operation: domain.Operation("reboot_universe"),
	}
	s.False(exec.ExecuteStep(s.ctx, &step))
	s.Contains(step.Error, "unknown operation")
}

// TestConnectorPanic verifies a panicking connector is contained as a failed
// step carrying the panic text.
func (s *ExecutorSuite) TestConnectorPanic() {
	registry := connector.NewRegistry()
	registry.Register(domain.SystemAWS, panickyConnector{})
	exec := s.executor(registry)

	step := domain.WorkflowStep{
		System:     domain.SystemAWS,
		Operation:  domain.OpGrantRole,
		Resource:   "Admin",
		Parameters: map[string]string{"user_id": "EMP001", "role_name": "Admin"},
	}
	s.False(exec.ExecuteStep(s.ctx, &step))
	s.Contains(step.Error, "connector panic")
	s.Contains(step.Error, "connector bug")
}
