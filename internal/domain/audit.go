package domain

import "time"

// AuditEventType classifies what an audit record attests to.
type AuditEventType string

const (
	AuditProvision   AuditEventType = "provision"
	AuditDeprovision AuditEventType = "deprovision"
	AuditGrant       AuditEventType = "grant"
	AuditRevoke      AuditEventType = "revoke"
	AuditUpdate      AuditEventType = "update"
)

// AuditRecord is an immutable fact about one attempted IAM action. Written
// once, never mutated, queryable by employee and time range.
type AuditRecord struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	EmployeeID string         `json:"employee_id"`
	UserEmail  string         `json:"user_email"`
	EventType  AuditEventType `json:"event_type"`
	System     System         `json:"system"`
	Action     Operation      `json:"action"`
	Resource   string         `json:"resource"`
	Success    bool           `json:"success"`
	Error      string         `json:"error_message,omitempty"`
	WorkflowID string         `json:"workflow_id,omitempty"`
}
