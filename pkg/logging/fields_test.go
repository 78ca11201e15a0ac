package logging

import (
	"errors"
	"testing"
)

func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		name          string
		key           string
		expectedKey   string
		expectedValue string
	}{
		{"Component", Component("dispatch").Key, FieldComponent, "dispatch"},
		{"CaseID", CaseID("case-1").Key, FieldCaseID, "case-1"},
		{"CaseRef", CaseRef("DOG000042").Key, FieldCaseRef, "DOG000042"},
		{"ThreadID", ThreadID("case-1").Key, FieldThreadID, "case-1"},
		{"ReporterID", ReporterID("citizen-1").Key, FieldReporterID, "citizen-1"},
		{"ResponderID", ResponderID("ngo-1").Key, FieldResponderID, "ngo-1"},
		{"AssignmentID", AssignmentID("asg-1").Key, FieldAssignment, "asg-1"},
		{"State", State("triaged").Key, FieldState, "triaged"},
		{"Urgency", Urgency("high").Key, FieldUrgency, "high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key != tt.expectedKey {
				t.Errorf("expected key %q, got %q", tt.expectedKey, tt.key)
			}
		})
	}
}

func TestSeq(t *testing.T) {
	attr := Seq(42)
	if attr.Key != FieldSeq {
		t.Errorf("expected key %q, got %q", FieldSeq, attr.Key)
	}
	if attr.Value.Uint64() != 42 {
		t.Errorf("expected value %d, got %d", 42, attr.Value.Uint64())
	}
}

func TestError(t *testing.T) {
	attr := Error(errors.New("something went wrong"))
	if attr.Key != FieldError {
		t.Errorf("expected key %q, got %q", FieldError, attr.Key)
	}
	if attr.Value.String() != "something went wrong" {
		t.Errorf("expected value %q, got %q", "something went wrong", attr.Value.String())
	}
}
