package workflow

import (
	"context"

	"github.com/Raoof128/ILAE/internal/domain"
)

// Joiner provisions a new starter: one user account per target system, then
// one grant per entitlement in the resolved access profile.
type Joiner struct {
	deps Deps
}

func NewJoiner(deps Deps) *Joiner { return &Joiner{deps: deps} }

func (j *Joiner) Execute(ctx context.Context, event domain.HREvent) (domain.WorkflowResult, error) {
	if err := requireKind(event, domain.EventNewStarter); err != nil {
		return domain.WorkflowResult{}, err
	}

	r := newRun(j.deps, event)
	log := j.deps.log()
	log.Info("starting joiner workflow",
		"workflow_id", r.result.WorkflowID, "employee_id", event.EmployeeID)

	r.guard(func() {
		profile := j.deps.Policy.ResolveEvent(event)
		desired := profile.Entitlements()

		// Ensure the identity exists before provisioning; held entitlements
		// are preserved at this point and replaced only after execution.
		if _, err := j.deps.State.Upsert(ctx, event, nil); err != nil {
			r.result.Errors = append(r.result.Errors, err.Error())
		}

		for _, system := range domain.TargetSystems {
			r.runStep(ctx, r.accountStep(system, domain.OpCreateUser), domain.AuditProvision)
		}
		for _, ent := range desired.Items() {
			r.runStep(ctx, r.grantStep(ent), domain.AuditProvision)
		}

		// The desired set is persisted regardless of step failures: state
		// records intent, the audit trail records what actually happened.
		if _, err := j.deps.State.SetEntitlements(ctx, event.EmployeeID, desired.Items()); err != nil {
			r.result.Errors = append(r.result.Errors, err.Error())
		}
	})

	result := r.finish()
	log.Info("completed joiner workflow",
		"workflow_id", result.WorkflowID, "steps", len(result.Steps), "errors", len(result.Errors))
	return result, nil
}
