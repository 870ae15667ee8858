package domain

import "time"

// IdentityStatus is the lifecycle status of an identity record.
type IdentityStatus string

const (
	StatusActive     IdentityStatus = "ACTIVE"
	StatusInactive   IdentityStatus = "INACTIVE"
	StatusSuspended  IdentityStatus = "SUSPENDED"
	StatusTerminated IdentityStatus = "TERMINATED"
	StatusOnLeave    IdentityStatus = "ON_LEAVE"
)

func (s IdentityStatus) String() string { return string(s) }

// Identity is the durable record of an employee and their held entitlements.
// Created on the first NEW_STARTER event, mutated on every workflow run,
// never physically deleted: TERMINATED is a terminal status, not removal.
//
// Invariant: Entitlements holds no two records with the same composite key
// (system, resource type, resource name, permission level).
type Identity struct {
	EmployeeID   string              `json:"employee_id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Department   string              `json:"department"`
	Title        string              `json:"title"`
	Status       IdentityStatus      `json:"status"`
	Entitlements []AccessEntitlement `json:"entitlements"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	LastEvent    *HREvent            `json:"last_hr_event,omitempty"`
}

// EntitlementSet returns the held entitlements as an ordered set.
func (i Identity) EntitlementSet() *EntitlementSet {
	return NewEntitlementSet(i.Entitlements...)
}

// Clone returns a deep copy so store callers cannot mutate shared state.
func (i Identity) Clone() Identity {
	out := i
	out.Entitlements = append([]AccessEntitlement(nil), i.Entitlements...)
	if i.LastEvent != nil {
		event := *i.LastEvent
		out.LastEvent = &event
	}
	return out
}
