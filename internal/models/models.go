// Package models provides the domain model for the case coordination engine.
package models

import "time"

// Urgency levels for a report, ordered critical > high > medium > low.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// urgencyRank orders urgency levels for triage; higher wins.
var urgencyRank = map[string]int{
	UrgencyLow:      0,
	UrgencyMedium:   1,
	UrgencyHigh:     2,
	UrgencyCritical: 3,
}

// UrgencyRank returns the ordering rank of an urgency level (-1 if unknown).
func UrgencyRank(u string) int {
	if r, ok := urgencyRank[u]; ok {
		return r
	}
	return -1
}

// ValidUrgency reports whether u is a known urgency level.
func ValidUrgency(u string) bool {
	_, ok := urgencyRank[u]
	return ok
}

// Case states. Transitions are driven exclusively by the dispatch coordinator.
const (
	CaseStateReported     = "reported"
	CaseStateTriaged      = "triaged"
	CaseStateAssigned     = "assigned"
	CaseStateAcknowledged = "acknowledged"
	CaseStateInProgress   = "in_progress"
	CaseStateResolved     = "resolved"
	CaseStateClosed       = "closed"
	CaseStateWithdrawn    = "withdrawn"
)

// Assignment sub-states, nested inside the case state machine.
// Accept moves proposed straight to active; the acknowledged case state is the
// observable form of "accepted".
const (
	AssignmentProposed  = "proposed"
	AssignmentActive    = "active"
	AssignmentCompleted = "completed"
	AssignmentDeclined  = "declined"
	AssignmentExpired   = "expired"
	AssignmentRevoked   = "revoked"
)

// Roles yielded by the identity provider. The engine trusts these and never
// re-derives them.
const (
	RoleCitizen      = "citizen"
	RoleNGO          = "ngo"
	RoleVeterinarian = "veterinarian"
)

// Animal condition tags carried on a report.
const (
	ConditionInjured   = "injured"
	ConditionSick      = "sick"
	ConditionPoisoned  = "poisoned"
	ConditionPregnant  = "pregnant"
	ConditionTrapped   = "trapped"
	ConditionAbandoned = "abandoned"
	ConditionStray     = "stray"
)

// medicalConditions require a veterinarian rather than an NGO rescue team.
var medicalConditions = map[string]bool{
	ConditionInjured:  true,
	ConditionSick:     true,
	ConditionPoisoned: true,
	ConditionPregnant: true,
}

// IsMedicalCondition reports whether a condition tag needs veterinary care.
func IsMedicalCondition(tag string) bool {
	return medicalConditions[tag]
}

// ValidCondition reports whether tag is a known condition tag.
func ValidCondition(tag string) bool {
	switch tag {
	case ConditionInjured, ConditionSick, ConditionPoisoned, ConditionPregnant,
		ConditionTrapped, ConditionAbandoned, ConditionStray:
		return true
	}
	return false
}

// Location is a report location. Known is false when geocoding failed or the
// reporter gave only a free-text address; triage then degrades to role-only
// candidate filtering.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Known     bool    `json:"known"`
	Address   string  `json:"address,omitempty"`
}

// Report is a validated citizen submission. It exists only until triage turns
// it into a Case; invalid reports never become cases.
type Report struct {
	ReporterID     string    `json:"reporter_id"`
	Description    string    `json:"description"`
	Condition      string    `json:"condition"`
	Urgency        string    `json:"urgency"`
	Location       Location  `json:"location"`
	ContactNumber  string    `json:"contact_number,omitempty"`
	AdditionalInfo string    `json:"additional_info,omitempty"`
	Photos         []string  `json:"photos,omitempty"` // opaque blob handles, max 5
	ReportedAt     time.Time `json:"reported_at"`
}

// Transition is one append-only entry in a case's state history.
type Transition struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Actor  string    `json:"actor"` // identity that drove the transition, or "system"
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Case is one reported incident tracked through its lifecycle. Cases are never
// deleted; closed cases are retained for audit.
type Case struct {
	ID             string       `json:"id"`  // opaque internal identifier
	Ref            string       `json:"ref"` // display form, e.g. DOG000123
	ReporterID     string       `json:"reporter_id"`
	Description    string       `json:"description"`
	Condition      string       `json:"condition"`
	Urgency        string       `json:"urgency"`
	Location       Location     `json:"location"`
	ContactNumber  string       `json:"contact_number,omitempty"`
	AdditionalInfo string       `json:"additional_info,omitempty"`
	Photos         []string     `json:"photos,omitempty"`
	State          string       `json:"state"`
	Unassignable   bool         `json:"unassignable"`
	ReassignCount  int          `json:"reassign_count"`
	ResponderID    *string      `json:"responder_id,omitempty"` // active assignment holder
	ResolutionNote string       `json:"resolution_note,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty"`
	History        []Transition `json:"history,omitempty"`
}

// ThreadOpen reports whether the case's conversation thread still accepts
// appends. Resolved cases stay writable for record-keeping; withdrawn and
// closed cases are read-only.
func (c *Case) ThreadOpen() bool {
	return c.State != CaseStateWithdrawn && c.State != CaseStateClosed
}

// Terminal reports whether the case can make no further transitions except
// reopen.
func (c *Case) Terminal() bool {
	return c.State == CaseStateClosed || c.State == CaseStateWithdrawn
}

// Assignment links one case to at most one responder at a time. Historical
// assignments are retained when declined or reassigned.
type Assignment struct {
	ID          string     `json:"id"`
	CaseID      string     `json:"case_id"`
	ResponderID string     `json:"responder_id"`
	State       string     `json:"state"`
	ProposedAt  time.Time  `json:"proposed_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// Pending reports whether the assignment is still awaiting a decision.
func (a *Assignment) Pending() bool {
	return a.State == AssignmentProposed
}

// ServiceArea is a responder's registered service circle.
type ServiceArea struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

// Responder is a weak reference to an identity-provider-owned account. The
// engine looks responders up by ID and never owns their lifecycle.
type Responder struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Role         string        `json:"role"` // ngo or veterinarian
	Available    bool          `json:"available"`
	ServiceAreas []ServiceArea `json:"service_areas"`
}

// Candidate is a ranked triage result.
type Candidate struct {
	ResponderID string  `json:"responder_id"`
	Role        string  `json:"role"`
	DistanceKm  float64 `json:"distance_km"`
	HasDistance bool    `json:"has_distance"`
}

// Message content types, matching what reporters attach in the field.
const (
	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeLocation = "location"
)

// Message is one immutable entry in a case's conversation thread. Seq is
// server-assigned, strictly increasing and gapless per thread.
type Message struct {
	ThreadID   string    `json:"thread_id"`
	Seq        uint64    `json:"seq"`
	SenderID   string    `json:"sender_id"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	Attachment string    `json:"attachment,omitempty"` // blob handle for image, "lat,lon" for location
	CreatedAt  time.Time `json:"created_at"`
}
