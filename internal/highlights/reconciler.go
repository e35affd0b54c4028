// Package highlights turns untrusted model output into position-correct
// highlights and projects highlights and user annotations into render spans.
//
// Everything in this package is a pure function of its inputs and is safe
// for concurrent use.
package highlights

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// unsetPosition marks a candidate position the model did not supply
const unsetPosition = -1

// DefaultPrefixLength is how many leading code points are searched for when
// a candidate's full text cannot be found verbatim.
const DefaultPrefixLength = 30

// Method records how a highlight was resolved
type Method string

const (
	MethodExact     Method = "exact"     // declared positions were correct
	MethodRelocated Method = "relocated" // full text found elsewhere
	MethodPrefix    Method = "prefix"    // only a prefix matched, text rewritten
)

// Stats counts reconciliation outcomes for one batch
type Stats struct {
	Candidates int `json:"candidates"`
	Exact      int `json:"exact"`
	Relocated  int `json:"relocated"`
	Prefix     int `json:"prefix"`
	Rejected   int `json:"rejected"`
}

func (s *Stats) record(m Method) {
	switch m {
	case MethodExact:
		s.Exact++
	case MethodRelocated:
		s.Relocated++
	case MethodPrefix:
		s.Prefix++
	}
}

// Result is the tagged outcome of reconciling one model response: either
// Analysis is set, or FieldErrors explains why the response was rejected.
type Result struct {
	Analysis    *domain.Analysis
	FieldErrors []domain.FieldError
	Stats       Stats
}

// OK reports whether the response was accepted
func (r Result) OK() bool {
	return r.Analysis != nil && len(r.FieldErrors) == 0
}

// Err returns the schema failure as an error, or nil when OK
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return domain.NewSchemaError(r.FieldErrors)
}

// Reconciler matches model-declared highlights against the source text
type Reconciler struct {
	strategy  LocateStrategy
	prefixLen int
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithStrategy sets how repeated phrases are resolved
func WithStrategy(s LocateStrategy) Option {
	return func(r *Reconciler) {
		r.strategy = s
	}
}

// WithPrefixLength sets the prefix length used for fuzzy relocation
func WithPrefixLength(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.prefixLen = n
		}
	}
}

// NewReconciler creates a Reconciler
func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		strategy:  DefaultStrategy,
		prefixLen: DefaultPrefixLength,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strategy returns the configured locate strategy
func (r *Reconciler) Strategy() LocateStrategy {
	return r.strategy
}

// Reconcile validates a raw model response and reconciles its highlights
// against doc. Per-highlight failures are reported in Analysis.Rejections;
// only top-level schema violations fail the result.
func (r *Reconciler) Reconcile(doc *domain.SourceText, raw []byte) Result {
	draft, fieldErrs := ParseDraft(raw)
	if len(fieldErrs) > 0 {
		return Result{FieldErrors: fieldErrs}
	}

	stats := Stats{Candidates: len(draft.Candidates)}
	highlights := make([]domain.Highlight, 0, len(draft.Candidates))
	rejections := []domain.Rejection{}

	for i, raw := range draft.Candidates {
		c, reason := decodeCandidate(raw)
		if reason == "" {
			var h domain.Highlight
			var m Method
			h, m, reason = r.resolve(doc, c)
			if reason == "" {
				highlights = append(highlights, h)
				stats.record(m)
				continue
			}
		}
		stats.Rejected++
		rejections = append(rejections, domain.Rejection{Index: i, Reason: reason, Text: truncate(c.Text, 80)})
	}

	analysis := &domain.Analysis{
		DocumentText:    doc.String(),
		Summary:         draft.Summary,
		KeyObligations:  draft.KeyObligations,
		RiskAssessment:  draft.RiskAssessment,
		Highlights:      highlights,
		AIComments:      reconcileComments(doc, draft.AIComments),
		Structure:       domain.DocumentStructure{Sections: clampSections(doc, draft.Structure.Sections)},
		Explanations:    draft.Explanations,
		ConfidenceScore: draft.ConfidenceScore,
		Rejections:      rejections,
	}
	return Result{Analysis: analysis, Stats: stats}
}

// ReconcileCandidates reconciles already-typed candidates. Output keeps
// candidate order; rejected candidates are reported by index.
func (r *Reconciler) ReconcileCandidates(doc *domain.SourceText, cands []domain.HighlightCandidate) ([]domain.Highlight, []domain.Rejection, Stats) {
	stats := Stats{Candidates: len(cands)}
	out := make([]domain.Highlight, 0, len(cands))
	var rejections []domain.Rejection

	for i, hc := range cands {
		declared := hc.StartPosition != unsetPosition && hc.EndPosition != unsetPosition
		h, m, reason := r.resolve(doc, candidate{HighlightCandidate: hc, declared: declared})
		if reason != "" {
			stats.Rejected++
			rejections = append(rejections, domain.Rejection{Index: i, Reason: reason, Text: truncate(hc.Text, 80)})
			continue
		}
		stats.record(m)
		out = append(out, h)
	}
	return out, rejections, stats
}

// resolve runs fast path, exact relocation and prefix relocation in order,
// then checks the structural invariants. A non-empty reason means rejection.
func (r *Reconciler) resolve(doc *domain.SourceText, c candidate) (domain.Highlight, Method, string) {
	if c.Text == "" {
		return domain.Highlight{}, "", "text is empty"
	}
	if c.declared && (c.StartPosition < 0 || c.EndPosition <= c.StartPosition) {
		return domain.Highlight{}, "", fmt.Sprintf("declared range [%d,%d) is malformed", c.StartPosition, c.EndPosition)
	}

	h := domain.Highlight{
		Text:          c.Text,
		StartPosition: c.StartPosition,
		EndPosition:   c.EndPosition,
		Type:          c.Type,
		Severity:      c.Severity,
		RiskLevel:     c.RiskLevel,
		Comment:       c.Comment,
		Suggestion:    c.Suggestion,
	}

	var method Method
	textLen := utf8.RuneCountInString(c.Text)

	switch {
	case doc.Matches(c.StartPosition, c.EndPosition, c.Text):
		method = MethodExact
	default:
		if at := r.strategy.Locate(doc, c.Text, c.StartPosition); at >= 0 {
			h.StartPosition, h.EndPosition = at, at+textLen
			method = MethodRelocated
			break
		}
		prefix := runePrefix(c.Text, r.prefixLen)
		at := r.strategy.Locate(doc, prefix, c.StartPosition)
		if at < 0 {
			return domain.Highlight{}, "", "text not found in document"
		}
		end := min(at+textLen, doc.Len())
		text, _ := doc.Slice(at, end)
		h.StartPosition, h.EndPosition, h.Text = at, end, text
		method = MethodPrefix
	}

	if reason := validate(doc, &h); reason != "" {
		return domain.Highlight{}, "", reason
	}
	return h, method, ""
}

// validate checks the structural invariants of a located highlight
func validate(doc *domain.SourceText, h *domain.Highlight) string {
	switch {
	case h.StartPosition < 0:
		return "startPosition is negative"
	case h.EndPosition <= h.StartPosition:
		return "endPosition must be greater than startPosition"
	case h.EndPosition > doc.Len():
		return "endPosition exceeds document length"
	case h.RiskLevel < domain.MinRiskLevel || h.RiskLevel > domain.MaxRiskLevel:
		return fmt.Sprintf("riskLevel %d outside [0,10]", h.RiskLevel)
	case !h.Type.Valid():
		return fmt.Sprintf("unknown type %q", h.Type)
	case h.Severity != "" && !h.Severity.Valid():
		return fmt.Sprintf("unknown severity %q", h.Severity)
	case !doc.Matches(h.StartPosition, h.EndPosition, h.Text):
		return "text does not match document at resolved position"
	}
	return ""
}

// reconcileComments clamps comment anchors into the document and drops
// comments with no text. Unknown types fall back to info.
func reconcileComments(doc *domain.SourceText, in []domain.AIComment) []domain.AIComment {
	out := make([]domain.AIComment, 0, len(in))
	for _, c := range in {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		c.Position = doc.ClampPosition(c.Position)
		if !c.Type.Valid() {
			c.Type = domain.CommentInfo
		}
		if !c.Severity.Valid() {
			c.Severity = ""
		}
		out = append(out, c)
	}
	return out
}

func clampSections(doc *domain.SourceText, in []domain.DocumentSection) []domain.DocumentSection {
	out := make([]domain.DocumentSection, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		s.StartPosition, s.EndPosition = doc.Clamp(s.StartPosition, s.EndPosition)
		s.Subsections = clampSections(doc, s.Subsections)
		if len(s.Subsections) == 0 {
			s.Subsections = nil
		}
		out = append(out, s)
	}
	return out
}

// AsCandidates converts reconciled highlights back into candidates
func AsCandidates(hs []domain.Highlight) []domain.HighlightCandidate {
	out := make([]domain.HighlightCandidate, len(hs))
	for i, h := range hs {
		out[i] = domain.HighlightCandidate(h)
	}
	return out
}

// DecodeCandidates parses a JSON array of highlight candidates leniently,
// the same way entries of a model response are read
func DecodeCandidates(data []byte) ([]domain.HighlightCandidate, []domain.Rejection, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(stripCodeFence(data), &items); err != nil {
		return nil, nil, fmt.Errorf("%w: candidates must be a JSON array: %v", domain.ErrInvalidInput, err)
	}
	out := make([]domain.HighlightCandidate, 0, len(items))
	var rejections []domain.Rejection
	for i, item := range items {
		c, reason := decodeCandidate(item)
		if reason != "" {
			rejections = append(rejections, domain.Rejection{Index: i, Reason: reason})
			continue
		}
		out = append(out, c.HighlightCandidate)
	}
	return out, rejections, nil
}

func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func truncate(s string, n int) string {
	p := runePrefix(s, n)
	if len(p) < len(s) {
		return p + "…"
	}
	return s
}
