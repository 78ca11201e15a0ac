// Package messaging defines standard subject names for the StrayAid message bus.
package messaging

// Subject constants for the StrayAid message bus.
// Follow the pattern: {domain}.{resource}.{action}
const (
	// Case lifecycle subjects - published by the dispatch coordinator
	SubjectCasesCreated      = "dispatch.cases.created"      // New case opened from a report
	SubjectCasesTransitioned = "dispatch.cases.transitioned" // Case state changed

	// Assignment subjects - published by the dispatch coordinator
	SubjectAssignmentsProposed = "dispatch.assignments.proposed" // Responder proposed for a case

	// Conversation subjects - published by the conversation engine
	SubjectMessagesAppended = "conversation.messages.appended" // Message appended to a thread
)

// Queue group names for load-balanced consumers.
// Workers in the same queue group share messages (each message processed once).
const (
	QueueNotifyWorkers = "notify-workers" // Pool of notification fan-out workers
)

// CaseEventSubject returns the subject for a specific case's events.
// Example: dispatch.cases.transitioned.6f1c...
func CaseEventSubject(base, caseID string) string {
	return base + "." + caseID
}
