package workflow

import (
	"context"
	"errors"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/sentinel"
)

// Leaver deprovisions a terminating employee: every held entitlement is
// revoked, then the user account is deleted in every target system whether
// or not any entitlements were recorded. A termination with no known
// identity is not fatal; account deletion is still attempted.
type Leaver struct {
	deps Deps
}

func NewLeaver(deps Deps) *Leaver { return &Leaver{deps: deps} }

func (l *Leaver) Execute(ctx context.Context, event domain.HREvent) (domain.WorkflowResult, error) {
	if err := requireKind(event, domain.EventTermination, domain.EventContractorOffboarding); err != nil {
		return domain.WorkflowResult{}, err
	}

	r := newRun(l.deps, event)
	log := l.deps.log()
	log.Info("starting leaver workflow",
		"workflow_id", r.result.WorkflowID, "employee_id", event.EmployeeID)

	r.guard(func() {
		identity, err := l.deps.State.Get(ctx, event.EmployeeID)
		known := err == nil
		if !known && !errors.Is(err, sentinel.ErrNotFound) {
			r.result.Errors = append(r.result.Errors, err.Error())
		}
		if !known {
			log.Warn("no identity for terminating employee, attempting cleanup anyway",
				"employee_id", event.EmployeeID)
		}

		if known {
			for _, ent := range identity.EntitlementSet().Items() {
				r.runStep(ctx, r.revokeStep(ent), domain.AuditRevoke)
			}
		}

		for _, system := range domain.TargetSystems {
			r.runStep(ctx, r.accountStep(system, domain.OpDeleteUser), domain.AuditDeprovision)
		}

		if known {
			if _, err := l.deps.State.Deactivate(ctx, event.EmployeeID); err != nil {
				r.result.Errors = append(r.result.Errors, err.Error())
			}
		}
	})

	result := r.finish()
	log.Info("completed leaver workflow",
		"workflow_id", result.WorkflowID, "steps", len(result.Steps), "errors", len(result.Errors))
	return result, nil
}
