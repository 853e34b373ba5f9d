package models

import (
	"encoding/json"
	"time"
)

// Intent names recorded in the audit trail.
const (
	IntentCreateDepartment = "CREATE_DEPARTMENT"
	IntentCreateModule     = "CREATE_MODULE"
	IntentAssignLecturer   = "ASSIGN_LECTURER"
	IntentApproveLecturer  = "APPROVE_LECTURER"
	IntentControlUser      = "CONTROL_USER"
	IntentEnroll           = "ENROLL"
	IntentUnenroll         = "UNENROLL"
	IntentForceUnenroll    = "FORCE_UNENROLL"
	IntentRegister         = "REGISTER"
)

// Intent outcomes.
const (
	OutcomeSucceeded = "SUCCEEDED"
	OutcomeDenied    = "DENIED"
	OutcomeRejected  = "REJECTED"
	OutcomeFailed    = "FAILED"
)

// IntentAudit records one user intent and how it ended.
type IntentAudit struct {
	ID        string          `db:"id" json:"id"`
	ActorID   *string         `db:"actor_id" json:"actor_id,omitempty"`
	ActorRole string          `db:"actor_role" json:"actor_role"`
	Intent    string          `db:"intent" json:"intent"`
	TargetID  *string         `db:"target_id" json:"target_id,omitempty"`
	Outcome   string          `db:"outcome" json:"outcome"`
	ErrorCode *string         `db:"error_code" json:"error_code,omitempty"`
	Payload   json.RawMessage `db:"payload" json:"payload,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// IntentAuditFilter narrows audit listings.
type IntentAuditFilter struct {
	ActorID  string
	Intent   string
	Outcome  string
	Page     int
	PageSize int
}
