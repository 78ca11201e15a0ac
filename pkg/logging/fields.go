package logging

import "log/slog"

// Common field names for consistent logging across components.
const (
	FieldComponent   = "component"
	FieldCaseID      = "case_id"
	FieldCaseRef     = "case_ref"
	FieldThreadID    = "thread_id"
	FieldReporterID  = "reporter_id"
	FieldResponderID = "responder_id"
	FieldAssignment  = "assignment_id"
	FieldState       = "state"
	FieldUrgency     = "urgency"
	FieldSeq         = "seq"
	FieldError       = "error"
)

// Component returns a slog attribute for the component name.
func Component(name string) slog.Attr {
	return slog.String(FieldComponent, name)
}

// CaseID returns a slog attribute for the case identifier.
func CaseID(id string) slog.Attr {
	return slog.String(FieldCaseID, id)
}

// CaseRef returns a slog attribute for the display reference (DOG######).
func CaseRef(ref string) slog.Attr {
	return slog.String(FieldCaseRef, ref)
}

// ThreadID returns a slog attribute for the conversation thread.
func ThreadID(id string) slog.Attr {
	return slog.String(FieldThreadID, id)
}

// ReporterID returns a slog attribute for the reporting citizen.
func ReporterID(id string) slog.Attr {
	return slog.String(FieldReporterID, id)
}

// ResponderID returns a slog attribute for the responder.
func ResponderID(id string) slog.Attr {
	return slog.String(FieldResponderID, id)
}

// AssignmentID returns a slog attribute for an assignment.
func AssignmentID(id string) slog.Attr {
	return slog.String(FieldAssignment, id)
}

// State returns a slog attribute for a case state.
func State(state string) slog.Attr {
	return slog.String(FieldState, state)
}

// Urgency returns a slog attribute for a report urgency level.
func Urgency(u string) slog.Attr {
	return slog.String(FieldUrgency, u)
}

// Seq returns a slog attribute for a message sequence number.
func Seq(n uint64) slog.Attr {
	return slog.Uint64(FieldSeq, n)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
