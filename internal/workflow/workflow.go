// Package workflow contains the Joiner, Mover, and Leaver orchestrators.
//
// A workflow run is synchronous and single-threaded: steps execute strictly
// in generation order, and one step's failure never aborts the rest
// (fail-open, best-effort completion). Overall success is the logical AND of
// all step outcomes, computed after the fact.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Raoof128/ILAE/internal/audit"
	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/internal/platform/metrics"
	"github.com/Raoof128/ILAE/internal/policy"
	"github.com/Raoof128/ILAE/internal/state"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// Engine is one lifecycle workflow variant. Execute returns an error only
// for the InvalidEventKind precondition; every other failure is captured in
// the result so callers always receive a structured outcome.
type Engine interface {
	Execute(ctx context.Context, event domain.HREvent) (domain.WorkflowResult, error)
}

// Deps bundles the collaborators every workflow variant needs. Constructed
// once at wiring time and shared; no module-level singletons.
type Deps struct {
	Policy   *policy.Resolver
	State    *state.Store
	Executor *StepExecutor
	Audit    *audit.Trail
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func (d Deps) clock() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) log() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// run accumulates the state of one workflow execution.
type run struct {
	deps   Deps
	event  domain.HREvent
	result domain.WorkflowResult
}

func newRun(deps Deps, event domain.HREvent) *run {
	return &run{
		deps: deps,
		event: event,
		result: domain.WorkflowResult{
			WorkflowID: uuid.NewString(),
			EmployeeID: event.EmployeeID,
			EventKind:  event.Kind,
			State:      domain.StateInitiated,
			StartedAt:  deps.clock(),
			Errors:     []string{},
			Steps:      []domain.WorkflowStep{},
		},
	}
}

// finish seals the result: completion time, terminal state, and the overall
// success flag derived from the accumulated errors.
func (r *run) finish() domain.WorkflowResult {
	r.result.CompletedAt = r.deps.clock()
	r.result.Success = len(r.result.Errors) == 0
	if r.result.Success {
		r.result.State = domain.StateCompleted
	} else {
		r.result.State = domain.StateFailed
	}
	if r.deps.Metrics != nil {
		r.deps.Metrics.WorkflowsExecuted.WithLabelValues(
			r.event.Kind.String(), metrics.Outcome(r.result.Success)).Inc()
	}
	return r.result
}

// guard is the top-level failure boundary: a panic anywhere in a workflow
// body becomes an error entry on the result instead of propagating.
func (r *run) guard(body func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.result.Errors = append(r.result.Errors, fmt.Sprintf("workflow panic: %v", rec))
			r.deps.log().Error("workflow panic",
				"workflow_id", r.result.WorkflowID, "employee_id", r.event.EmployeeID, "panic", rec)
		}
	}()
	r.result.State = domain.StateExecuting
	body()
}

// runStep executes one step, appends it to the result, collects its error,
// and writes the audit record for the attempt.
func (r *run) runStep(ctx context.Context, step domain.WorkflowStep, eventType domain.AuditEventType) {
	r.deps.Executor.ExecuteStep(ctx, &step)
	r.result.Steps = append(r.result.Steps, step)
	if !step.Success {
		r.result.Errors = append(r.result.Errors,
			fmt.Sprintf("%s.%s: %s", step.System, step.Operation, step.Error))
	}
	r.audit(ctx, step, eventType)
}

func (r *run) audit(ctx context.Context, step domain.WorkflowStep, eventType domain.AuditEventType) {
	if r.deps.Audit == nil {
		return
	}
	_, err := r.deps.Audit.LogEvent(ctx, domain.AuditRecord{
		EmployeeID: r.event.EmployeeID,
		UserEmail:  r.event.Email,
		EventType:  eventType,
		System:     step.System,
		Action:     step.Operation,
		Resource:   step.Resource,
		Success:    step.Success,
		Error:      step.Error,
		WorkflowID: r.result.WorkflowID,
	})
	if err == nil && r.deps.Metrics != nil {
		r.deps.Metrics.AuditRecords.Inc()
	}
}

// accountStep builds a create_user or delete_user step for one system.
func (r *run) accountStep(system domain.System, op domain.Operation) domain.WorkflowStep {
	params := map[string]string{"user_id": r.event.EmployeeID}
	if op == domain.OpCreateUser {
		params["name"] = r.event.Name
		params["email"] = r.event.Email
		params["department"] = r.event.Department
		params["title"] = r.event.Title
	}
	return domain.WorkflowStep{
		System:     system,
		Operation:  op,
		Resource:   "user_account",
		Parameters: params,
	}
}

// grantStep builds the step that grants one entitlement.
func (r *run) grantStep(ent domain.AccessEntitlement) domain.WorkflowStep {
	op := domain.GrantOperation(ent.ResourceType)
	return r.entitlementStep(ent, op)
}

// revokeStep builds the step that revokes one entitlement.
func (r *run) revokeStep(ent domain.AccessEntitlement) domain.WorkflowStep {
	op := domain.RevokeOperation(ent.ResourceType)
	return r.entitlementStep(ent, op)
}

func (r *run) entitlementStep(ent domain.AccessEntitlement, op domain.Operation) domain.WorkflowStep {
	params := map[string]string{"user_id": r.event.EmployeeID}
	switch op {
	case domain.OpGrantRole, domain.OpRevokeRole:
		params["role_name"] = ent.ResourceName
	default:
		params["group_name"] = ent.ResourceName
	}
	return domain.WorkflowStep{
		System:     ent.System,
		Operation:  op,
		Resource:   ent.ResourceName,
		Parameters: params,
	}
}

// requireKind enforces a variant's event-kind precondition.
func requireKind(event domain.HREvent, allowed ...domain.EventKind) error {
	for _, kind := range allowed {
		if event.Kind == kind {
			return nil
		}
	}
	return jmlerrors.Newf(jmlerrors.CodeInvalidEvent,
		"workflow cannot process %s events", event.Kind)
}

// ForEvent selects the workflow variant for an event kind.
func ForEvent(kind domain.EventKind, deps Deps) (Engine, error) {
	switch kind {
	case domain.EventNewStarter:
		return NewJoiner(deps), nil
	case domain.EventRoleChange, domain.EventDepartmentChange:
		return NewMover(deps), nil
	case domain.EventTermination, domain.EventContractorOffboarding:
		return NewLeaver(deps), nil
	default:
		return nil, jmlerrors.Newf(jmlerrors.CodeInvalidEvent,
			"no workflow available for event kind: %s", kind)
	}
}
