package messaging

import "testing"

func TestCaseEventSubject(t *testing.T) {
	tests := []struct {
		base     string
		caseID   string
		expected string
	}{
		{SubjectCasesCreated, "case-1", "dispatch.cases.created.case-1"},
		{SubjectCasesTransitioned, "case-2", "dispatch.cases.transitioned.case-2"},
		{SubjectAssignmentsProposed, "case-3", "dispatch.assignments.proposed.case-3"},
		{SubjectMessagesAppended, "case-4", "conversation.messages.appended.case-4"},
	}

	for _, tt := range tests {
		if got := CaseEventSubject(tt.base, tt.caseID); got != tt.expected {
			t.Errorf("CaseEventSubject(%q, %q) = %q, want %q", tt.base, tt.caseID, got, tt.expected)
		}
	}
}
