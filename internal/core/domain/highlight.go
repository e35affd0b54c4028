package domain

// HighlightType classifies the contract concern a highlight flags
type HighlightType string

const (
	HighlightTermination          HighlightType = "termination"
	HighlightLiability            HighlightType = "liability"
	HighlightIntellectualProperty HighlightType = "intellectual_property"
	HighlightPayment              HighlightType = "payment"
	HighlightRenewal              HighlightType = "renewal"
	HighlightGeneral              HighlightType = "general"
)

// Valid reports whether t is a known highlight type
func (t HighlightType) Valid() bool {
	switch t {
	case HighlightTermination, HighlightLiability, HighlightIntellectualProperty,
		HighlightPayment, HighlightRenewal, HighlightGeneral:
		return true
	}
	return false
}

// Severity is the three-level risk bucket used for styling
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// Rank orders severities, higher is more severe. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// Risk level bounds
const (
	MinRiskLevel = 0
	MaxRiskLevel = 10
)

// SeverityFromRisk buckets a 0..10 risk level: >=7 high, >=4 medium, else low
func SeverityFromRisk(level int) Severity {
	switch {
	case level >= 7:
		return SeverityHigh
	case level >= 4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// HighlightCandidate is a highlight exactly as the model proposed it.
// Nothing about it is trusted: positions may be wrong, missing (-1) or
// point at different text.
type HighlightCandidate struct {
	Text          string        `json:"text"`
	StartPosition int           `json:"startPosition"`
	EndPosition   int           `json:"endPosition"`
	Type          HighlightType `json:"type"`
	Severity      Severity      `json:"severity,omitempty"`
	RiskLevel     int           `json:"riskLevel"`
	Comment       string        `json:"comment,omitempty"`
	Suggestion    string        `json:"suggestion,omitempty"`
}

// Highlight is a reconciled span of the source text.
// Invariant: 0 <= StartPosition < EndPosition <= len(text) and
// text[StartPosition:EndPosition] == Text.
type Highlight struct {
	Text          string        `json:"text"`
	StartPosition int           `json:"startPosition"`
	EndPosition   int           `json:"endPosition"`
	Type          HighlightType `json:"type"`
	Severity      Severity      `json:"severity,omitempty"`
	RiskLevel     int           `json:"riskLevel"`
	Comment       string        `json:"comment,omitempty"`
	Suggestion    string        `json:"suggestion,omitempty"`
}

// Bucket returns the declared severity, or one derived from RiskLevel
func (h *Highlight) Bucket() Severity {
	if h.Severity.Valid() {
		return h.Severity
	}
	return SeverityFromRisk(h.RiskLevel)
}

// Len returns the span length in code points
func (h *Highlight) Len() int {
	return h.EndPosition - h.StartPosition
}

// Verify reports whether h satisfies the highlight invariant against doc
func (h *Highlight) Verify(doc *SourceText) bool {
	return h.StartPosition >= 0 &&
		h.EndPosition > h.StartPosition &&
		h.EndPosition <= doc.Len() &&
		doc.Matches(h.StartPosition, h.EndPosition, h.Text)
}

// CommentType classifies an AI margin comment
type CommentType string

const (
	CommentWarning    CommentType = "warning"
	CommentInfo       CommentType = "info"
	CommentSuggestion CommentType = "suggestion"
)

// Valid reports whether c is a known comment type
func (c CommentType) Valid() bool {
	return c == CommentWarning || c == CommentInfo || c == CommentSuggestion
}

// AIComment is a point comment anchored at a single position
type AIComment struct {
	Position int         `json:"position"`
	Text     string      `json:"text"`
	Type     CommentType `json:"type"`
	Severity Severity    `json:"severity,omitempty"`
}

// Rejection records why a highlight candidate was dropped
type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Text   string `json:"text,omitempty"`
}
