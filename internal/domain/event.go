package domain

import (
	"time"

	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// EventKind identifies the HR lifecycle transition an event describes.
// Invariant: constructed via ParseEventKind at trust boundaries; direct
// casting bypasses the allowlist.
type EventKind string

const (
	EventNewStarter            EventKind = "NEW_STARTER"
	EventRoleChange            EventKind = "ROLE_CHANGE"
	EventDepartmentChange      EventKind = "DEPARTMENT_CHANGE"
	EventTermination           EventKind = "TERMINATION"
	EventContractorOffboarding EventKind = "CONTRACTOR_OFFBOARDING"
	EventLeaveOfAbsence        EventKind = "LEAVE_OF_ABSENCE"
	EventReturnFromLeave       EventKind = "RETURN_FROM_LEAVE"
)

var validEventKinds = map[EventKind]bool{
	EventNewStarter:            true,
	EventRoleChange:            true,
	EventDepartmentChange:      true,
	EventTermination:           true,
	EventContractorOffboarding: true,
	EventLeaveOfAbsence:        true,
	EventReturnFromLeave:       true,
}

// ParseEventKind constructs an EventKind from external input.
func ParseEventKind(s string) (EventKind, error) {
	if s == "" {
		return "", jmlerrors.New(jmlerrors.CodeInvalidInput, "event kind cannot be empty")
	}
	k := EventKind(s)
	if !k.IsValid() {
		return "", jmlerrors.Newf(jmlerrors.CodeInvalidInput, "unknown event kind: %s", s)
	}
	return k, nil
}

// IsValid checks whether the kind is one of the supported lifecycle events.
func (k EventKind) IsValid() bool { return validEventKinds[k] }

func (k EventKind) String() string { return string(k) }

// HREvent is a normalized lifecycle transition, independent of the HR system
// it originated from. Consumed read-only by the workflow engine.
type HREvent struct {
	Kind               EventKind `json:"event" validate:"required"`
	EmployeeID         string    `json:"employee_id" validate:"required"`
	Name               string    `json:"name" validate:"required"`
	Email              string    `json:"email" validate:"required,contains=@"`
	Department         string    `json:"department" validate:"required"`
	Title              string    `json:"title"`
	ManagerEmail       string    `json:"manager_email,omitempty" validate:"omitempty,contains=@"`
	Location           string    `json:"location,omitempty"`
	ContractType       string    `json:"contract_type,omitempty"`
	PreviousDepartment string    `json:"previous_department,omitempty"`
	PreviousTitle      string    `json:"previous_title,omitempty"`
	Timestamp          time.Time `json:"event_timestamp"`
	SourceSystem       string    `json:"source_system"`
}

// DefaultContractType applies to events that do not carry one.
const DefaultContractType = "PERMANENT"

// EffectiveContractType returns the contract type, defaulting to PERMANENT.
func (e HREvent) EffectiveContractType() string {
	if e.ContractType == "" {
		return DefaultContractType
	}
	return e.ContractType
}

// StatusForEvent derives the identity status implied by an event kind.
func StatusForEvent(kind EventKind) IdentityStatus {
	switch kind {
	case EventTermination, EventContractorOffboarding:
		return StatusTerminated
	case EventLeaveOfAbsence:
		return StatusOnLeave
	case EventReturnFromLeave:
		return StatusActive
	default:
		return StatusActive
	}
}
