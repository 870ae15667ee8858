package domain

import "time"

// Operation names one atomic action a connector can perform. The set is
// closed: step execution dispatches over these values, and anything else is
// recorded as a failed step rather than attempted.
type Operation string

const (
	OpCreateUser      Operation = "create_user"
	OpDeleteUser      Operation = "delete_user"
	OpAddToGroup      Operation = "add_to_group"
	OpRemoveFromGroup Operation = "remove_from_group"
	OpGrantRole       Operation = "grant_role"
	OpRevokeRole      Operation = "revoke_role"
)

func (o Operation) String() string { return string(o) }

// GrantOperation maps a resource type to the operation that grants it.
// Teams and channels are treated as groups by every connector.
func GrantOperation(rt ResourceType) Operation {
	if rt == ResourceRole {
		return OpGrantRole
	}
	return OpAddToGroup
}

// RevokeOperation maps a resource type to the operation that revokes it.
func RevokeOperation(rt ResourceType) Operation {
	if rt == ResourceRole {
		return OpRevokeRole
	}
	return OpRemoveFromGroup
}

// WorkflowState tracks a single execution through its lifecycle.
type WorkflowState string

const (
	StateInitiated WorkflowState = "INITIATED"
	StateExecuting WorkflowState = "EXECUTING"
	StateCompleted WorkflowState = "COMPLETED"
	StateFailed    WorkflowState = "FAILED"
)

// WorkflowStep is one attempted operation against one system. Immutable once
// executed; the outcome fields are written exactly once by the step executor.
type WorkflowStep struct {
	System     System            `json:"system"`
	Operation  Operation         `json:"operation"`
	Resource   string            `json:"resource"`
	Parameters map[string]string `json:"parameters,omitempty"`
	ExecutedAt time.Time         `json:"executed_at,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Result     string            `json:"result,omitempty"`
}

// MarkSuccess records a successful outcome.
func (s *WorkflowStep) MarkSuccess(result string, at time.Time) {
	s.ExecutedAt = at
	s.Success = true
	s.Result = result
}

// MarkFailure records a failed outcome.
func (s *WorkflowStep) MarkFailure(errMsg string, at time.Time) {
	s.ExecutedAt = at
	s.Success = false
	s.Error = errMsg
}

// WorkflowResult aggregates one workflow run. Success means no step produced
// an error; all steps still run to completion regardless.
type WorkflowResult struct {
	WorkflowID  string         `json:"workflow_id"`
	EmployeeID  string         `json:"employee_id"`
	EventKind   EventKind      `json:"event_type"`
	State       WorkflowState  `json:"state"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at,omitempty"`
	Success     bool           `json:"success"`
	Steps       []WorkflowStep `json:"actions_taken"`
	Errors      []string       `json:"errors"`
}

// SuccessfulSteps counts the steps that completed without error.
func (r WorkflowResult) SuccessfulSteps() int {
	n := 0
	for _, step := range r.Steps {
		if step.Success {
			n++
		}
	}
	return n
}
