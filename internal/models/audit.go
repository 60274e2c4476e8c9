package models

import "time"

type AuditAction string

const (
	AuditList   AuditAction = "list"
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

type AuditOutcome string

const (
	AuditSuccess AuditOutcome = "success"
	AuditFailure AuditOutcome = "failure"
	AuditStale   AuditOutcome = "stale"
)

type AuditEntry struct {
	ID        int64        `json:"id"`
	SessionID string       `json:"session_id"`
	Action    AuditAction  `json:"action"`
	Target    string       `json:"target"`
	Outcome   AuditOutcome `json:"outcome"`
	Detail    string       `json:"detail,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type AuditResponse struct {
	Entries []*AuditEntry `json:"entries"`
}
