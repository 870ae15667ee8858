package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Raoof128/ILAE/internal/connector"
	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/internal/platform/metrics"
)

// StepExecutor dispatches workflow steps to connectors and records
// outcomes. A missing connector, an unknown operation, or a panicking
// connector all become failed steps, never errors crossing the executor
// boundary: step failure is data, not control flow.
type StepExecutor struct {
	registry *connector.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewStepExecutor(registry *connector.Registry, logger *slog.Logger, m *metrics.Metrics) *StepExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StepExecutor{registry: registry, logger: logger, metrics: m, now: time.Now}
}

// ExecuteStep runs one step and writes the outcome onto it. Returns the
// step's success flag.
func (e *StepExecutor) ExecuteStep(ctx context.Context, step *domain.WorkflowStep) bool {
	conn, ok := e.registry.Lookup(step.System)
	if !ok {
		step.MarkFailure(fmt.Sprintf("no connector for system: %s", step.System), e.now().UTC())
		e.observe(step)
		return false
	}

	result := e.dispatch(ctx, conn, step)
	if result.Success {
		step.MarkSuccess(result.Message, e.now().UTC())
		e.logger.Info("step completed",
			"system", step.System, "operation", step.Operation, "resource", step.Resource)
	} else {
		errMsg := result.Error
		if errMsg == "" {
			errMsg = "unknown error"
		}
		step.MarkFailure(errMsg, e.now().UTC())
		e.logger.Warn("step failed",
			"system", step.System, "operation", step.Operation, "resource", step.Resource, "error", errMsg)
	}
	e.observe(step)
	return step.Success
}

// dispatch is a closed switch over the operation enum. A connector panic is
// converted into a failed result with the panic text.
func (e *StepExecutor) dispatch(ctx context.Context, conn connector.Connector, step *domain.WorkflowStep) (result connector.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = connector.Fail(fmt.Sprintf("connector panic during %s.%s: %v", step.System, step.Operation, r))
		}
	}()

	params := step.Parameters
	switch step.Operation {
	case domain.OpCreateUser:
		return conn.CreateUser(ctx, connector.IdentitySnapshot{
			EmployeeID: params["user_id"],
			Name:       params["name"],
			Email:      params["email"],
			Department: params["department"],
			Title:      params["title"],
		})
	case domain.OpDeleteUser:
		return conn.DeleteUser(ctx, params["user_id"])
	case domain.OpAddToGroup:
		return conn.AddToGroup(ctx, params["user_id"], params["group_name"])
	case domain.OpRemoveFromGroup:
		return conn.RemoveFromGroup(ctx, params["user_id"], params["group_name"])
	case domain.OpGrantRole:
		return conn.GrantRole(ctx, params["user_id"], params["role_name"])
	case domain.OpRevokeRole:
		return conn.RevokeRole(ctx, params["user_id"], params["role_name"])
	default:
		return connector.Fail(fmt.Sprintf("unknown operation: %s", step.Operation))
	}
}

func (e *StepExecutor) observe(step *domain.WorkflowStep) {
	if e.metrics == nil {
		return
	}
	e.metrics.StepsExecuted.WithLabelValues(
		step.System.String(), step.Operation.String(), metrics.Outcome(step.Success)).Inc()
}
