package domain

import (
	"errors"
	"testing"
)

func TestSeverityFromRisk(t *testing.T) {
	tests := []struct {
		level    int
		expected Severity
	}{
		{0, SeverityLow},
		{3, SeverityLow},
		{4, SeverityMedium},
		{6, SeverityMedium},
		{7, SeverityHigh},
		{10, SeverityHigh},
	}

	for _, tt := range tests {
		if got := SeverityFromRisk(tt.level); got != tt.expected {
			t.Errorf("SeverityFromRisk(%d) = %s, want %s", tt.level, got, tt.expected)
		}
	}
}

func TestHighlightBucket(t *testing.T) {
	declared := Highlight{Severity: SeverityLow, RiskLevel: 9}
	if declared.Bucket() != SeverityLow {
		t.Errorf("declared severity should win, got %s", declared.Bucket())
	}

	derived := Highlight{RiskLevel: 5}
	if derived.Bucket() != SeverityMedium {
		t.Errorf("expected derived medium, got %s", derived.Bucket())
	}
}

func TestHighlightVerify(t *testing.T) {
	doc := NewSourceText(contractSample)

	ok := Highlight{Text: "Liability is capped at $500.", StartPosition: 23, EndPosition: 51}
	if !ok.Verify(doc) {
		t.Error("expected highlight to verify")
	}

	shifted := Highlight{Text: "Liability is capped at $500.", StartPosition: 24, EndPosition: 52}
	if shifted.Verify(doc) {
		t.Error("expected out-of-range highlight to fail")
	}

	empty := Highlight{Text: "", StartPosition: 3, EndPosition: 3}
	if empty.Verify(doc) {
		t.Error("expected empty highlight to fail")
	}
}

func TestEnumsValid(t *testing.T) {
	if !HighlightIntellectualProperty.Valid() || HighlightType("tax").Valid() {
		t.Error("unexpected HighlightType validity")
	}
	if !SeverityHigh.Valid() || Severity("critical").Valid() {
		t.Error("unexpected Severity validity")
	}
	if !CommentSuggestion.Valid() || CommentType("error").Valid() {
		t.Error("unexpected CommentType validity")
	}
	if SeverityHigh.Rank() <= SeverityMedium.Rank() || SeverityMedium.Rank() <= SeverityLow.Rank() {
		t.Error("severity ranks must ascend low < medium < high")
	}
}

func TestAnnotationValidate(t *testing.T) {
	tests := []struct {
		name    string
		a       Annotation
		wantErr bool
	}{
		{"valid", Annotation{TextStart: 0, TextEnd: 5, CommentText: "check", Type: AnnotationNote}, false},
		{"empty range", Annotation{TextStart: 5, TextEnd: 5, CommentText: "x", Type: AnnotationNote}, true},
		{"negative start", Annotation{TextStart: -1, TextEnd: 5, CommentText: "x", Type: AnnotationNote}, true},
		{"past end", Annotation{TextStart: 0, TextEnd: 52, CommentText: "x", Type: AnnotationNote}, true},
		{"blank comment", Annotation{TextStart: 0, TextEnd: 5, CommentText: "  ", Type: AnnotationNote}, true},
		{"bad type", Annotation{TextStart: 0, TextEnd: 5, CommentText: "x", Type: "todo"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate(51)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRiskAssessmentOverall(t *testing.T) {
	r := RiskAssessment{Termination: 2, Liability: 8.5, IntellectualProperty: 1, Payment: 3, Renewal: 0}
	if r.Overall() != 8.5 {
		t.Errorf("expected overall 8.5, got %v", r.Overall())
	}
}
