package models

// SubmitReportRequest is the API request for reporting a distressed animal.
// Either coordinates or a free-text address must be present; geocoding
// failures degrade to role-only triage rather than rejecting the report.
type SubmitReportRequest struct {
	Description    string   `json:"description"`
	Condition      string   `json:"condition"`
	Urgency        string   `json:"urgency"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Address        string   `json:"address,omitempty"`
	ContactNumber  string   `json:"contact_number,omitempty"`
	AdditionalInfo string   `json:"additional_info,omitempty"`
	Photos         []string `json:"photos,omitempty"`
}

// ResolveCaseRequest marks the outcome of an in-progress case.
// The note is mandatory; a resolution without one is rejected.
type ResolveCaseRequest struct {
	Note string `json:"note"`
}

// DeclineAssignmentRequest lets a responder decline a pending proposal.
type DeclineAssignmentRequest struct {
	Reason string `json:"reason,omitempty"`
}

// AppendMessageRequest appends one message to a case's thread.
type AppendMessageRequest struct {
	Type       string `json:"type"` // text, image, location
	Content    string `json:"content"`
	Attachment string `json:"attachment,omitempty"`
}

// MarkReadRequest advances the caller's read-state on a thread.
type MarkReadRequest struct {
	Seq uint64 `json:"seq"`
}

// ListCasesRequest contains filters for listing cases.
type ListCasesRequest struct {
	State        string
	Urgency      string
	ReporterID   string
	ResponderID  string
	Unassignable *bool
	Limit        int
	Offset       int
}
