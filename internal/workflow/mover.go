package workflow

import (
	"context"
	"errors"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/sentinel"
)

// Mover transitions an employee between roles or departments: entitlements
// held but absent from the new profile are revoked, entitlements in the new
// profile but not held are granted.
//
// The delta compares the recorded entitlement set against the new profile.
// Equality includes permission level, so a change that only alters
// permission level on an otherwise identical resource revokes and regrants.
type Mover struct {
	deps Deps
}

func NewMover(deps Deps) *Mover { return &Mover{deps: deps} }

func (m *Mover) Execute(ctx context.Context, event domain.HREvent) (domain.WorkflowResult, error) {
	if err := requireKind(event, domain.EventRoleChange, domain.EventDepartmentChange); err != nil {
		return domain.WorkflowResult{}, err
	}

	r := newRun(m.deps, event)
	log := m.deps.log()
	log.Info("starting mover workflow",
		"workflow_id", r.result.WorkflowID, "employee_id", event.EmployeeID)

	r.guard(func() {
		identity, err := m.deps.State.Get(ctx, event.EmployeeID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				r.result.Errors = append(r.result.Errors,
					"identity not found for employee "+event.EmployeeID)
			} else {
				r.result.Errors = append(r.result.Errors, err.Error())
			}
			return
		}

		oldProfile := m.oldProfile(event)
		newProfile := m.deps.Policy.ResolveEvent(event)

		current := identity.EntitlementSet()
		newEntitlements := newProfile.Entitlements()

		toRemove := current.Difference(newEntitlements)
		toAdd := newEntitlements.Difference(current)
		log.Debug("computed entitlement delta",
			"employee_id", event.EmployeeID,
			"old_profile", oldProfile.Description,
			"remove", toRemove.Len(), "add", toAdd.Len())

		for _, ent := range toRemove.Items() {
			r.runStep(ctx, r.revokeStep(ent), domain.AuditRevoke)
		}
		for _, ent := range toAdd.Items() {
			r.runStep(ctx, r.grantStep(ent), domain.AuditGrant)
		}

		updated := current.Difference(toRemove).Union(toAdd)
		if _, err := m.deps.State.Upsert(ctx, event, updated.Items()); err != nil {
			r.result.Errors = append(r.result.Errors, err.Error())
		}
	})

	result := r.finish()
	log.Info("completed mover workflow",
		"workflow_id", result.WorkflowID, "steps", len(result.Steps), "errors", len(result.Errors))
	return result, nil
}

// oldProfile resolves the profile the employee held before the change,
// falling back to current fields where previous values are absent.
func (m *Mover) oldProfile(event domain.HREvent) domain.AccessProfile {
	dept := event.PreviousDepartment
	if dept == "" {
		dept = event.Department
	}
	title := event.PreviousTitle
	if title == "" {
		title = event.Title
	}
	return m.deps.Policy.Resolve(dept, title, event.EffectiveContractType())
}
