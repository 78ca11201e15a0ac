package models

import (
	"encoding/json"
	"time"
)

// Event kinds emitted on the case event stream.
const (
	EventCaseCreated        = "CaseCreated"
	EventCaseTransitioned   = "CaseTransitioned"
	EventAssignmentProposed = "AssignmentProposed"
	EventMessageAppended    = "MessageAppended"
)

// Event is the envelope every emitted event carries. SourceSeq is the event's
// sequence number within its source stream (per-case for dispatch events,
// per-thread for message events) and doubles as the sink-side idempotency key:
// the fan-out delivers at-least-once and sinks dedup on it.
type Event struct {
	CaseID    string          `json:"case_id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	SourceSeq uint64          `json:"source_seq"`
	Timestamp time.Time       `json:"timestamp"`
}

// CaseTransitionedPayload describes a state change.
type CaseTransitionedPayload struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Actor        string `json:"actor"`
	Reason       string `json:"reason,omitempty"`
	Unassignable bool   `json:"unassignable,omitempty"`
}

// AssignmentProposedPayload describes a new proposal awaiting acceptance.
type AssignmentProposedPayload struct {
	AssignmentID string    `json:"assignment_id"`
	ResponderID  string    `json:"responder_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// MessageAppendedPayload describes a message append. The message body is not
// repeated on the bus; sinks fetch it through the read API if they need it.
type MessageAppendedPayload struct {
	ThreadID string `json:"thread_id"`
	Seq      uint64 `json:"seq"`
	SenderID string `json:"sender_id"`
	Type     string `json:"type"`
}

// CaseCreatedPayload describes a freshly triaged case.
type CaseCreatedPayload struct {
	Ref        string `json:"ref"`
	Urgency    string `json:"urgency"`
	Condition  string `json:"condition"`
	ReporterID string `json:"reporter_id"`
	Candidates int    `json:"candidates"`
}
