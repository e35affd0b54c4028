package highlights

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// Draft is a model response that passed whole-batch validation. Its
// highlight candidates are still raw and untrusted.
type Draft struct {
	Summary         string
	KeyObligations  []string
	RiskAssessment  domain.RiskAssessment
	Candidates      []json.RawMessage
	AIComments      []domain.AIComment
	Structure       domain.DocumentStructure
	Explanations    map[string]string
	ConfidenceScore float64
}

// ParseDraft validates the top-level shape of a model response. Any field
// error means the whole response must be rejected; the returned Draft is
// nil in that case.
func ParseDraft(raw []byte) (*Draft, []domain.FieldError) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(stripCodeFence(raw), &top); err != nil || top == nil {
		return nil, []domain.FieldError{{Field: "$", Message: "response is not a JSON object"}}
	}

	var errs []domain.FieldError
	d := &Draft{}

	if s, ok := decodeString(top["summary"]); ok && strings.TrimSpace(s) != "" {
		d.Summary = s
	} else {
		errs = append(errs, fieldError("summary", "must be a non-empty string"))
	}

	var obligations []json.RawMessage
	if decodeInto(top["keyObligations"], &obligations) {
		d.KeyObligations = make([]string, 0, len(obligations))
		for i, item := range obligations {
			s, ok := decodeString(item)
			if !ok {
				errs = append(errs, fieldError("keyObligations", "item "+strconv.Itoa(i)+" must be a string"))
				continue
			}
			d.KeyObligations = append(d.KeyObligations, s)
		}
	} else {
		errs = append(errs, fieldError("keyObligations", "must be an array of strings"))
	}

	var risk map[string]json.RawMessage
	if decodeInto(top["riskAssessment"], &risk) {
		for _, axis := range domain.RiskAxes {
			v, ok := decodeNumber(risk[axis])
			if !ok || v < 0 || v > 10 {
				errs = append(errs, fieldError("riskAssessment."+axis, "must be a number between 0 and 10"))
				continue
			}
			setAxis(&d.RiskAssessment, axis, v)
		}
	} else {
		errs = append(errs, fieldError("riskAssessment", "must be an object"))
	}

	if !decodeInto(top["highlightedSections"], &d.Candidates) {
		errs = append(errs, fieldError("highlightedSections", "must be an array"))
	}

	if v, ok := decodeNumber(top["confidenceScore"]); ok && v >= 0 && v <= 100 {
		d.ConfidenceScore = v
	} else {
		errs = append(errs, fieldError("confidenceScore", "must be a number between 0 and 100"))
	}

	if len(errs) > 0 {
		return nil, errs
	}

	d.AIComments = decodeComments(top["aiComments"])
	if !decodeInto(top["documentStructure"], &d.Structure) {
		d.Structure = domain.DocumentStructure{}
	}
	d.Explanations = decodeExplanations(top["plainEnglishExplanations"])
	return d, nil
}

// candidate is a decoded HighlightCandidate plus whether its positions were
// actually present in the response.
type candidate struct {
	domain.HighlightCandidate
	declared bool
}

// decodeCandidate reads one highlightedSections entry. Missing or non-integral
// positions become -1 so they never match the fast path.
func decodeCandidate(raw json.RawMessage) (candidate, string) {
	var fields map[string]json.RawMessage
	if !decodeInto(raw, &fields) {
		return candidate{}, "not a JSON object"
	}

	c := candidate{}
	c.Text, _ = decodeString(fields["text"])

	start, okStart := decodeInt(fields["startPosition"])
	end, okEnd := decodeInt(fields["endPosition"])
	c.StartPosition, c.EndPosition = unsetPosition, unsetPosition
	if okStart {
		c.StartPosition = start
	}
	if okEnd {
		c.EndPosition = end
	}
	c.declared = okStart && okEnd

	typ, _ := decodeString(fields["type"])
	c.Type = domain.HighlightType(normalizeEnum(typ))
	if c.Type == "" {
		c.Type = domain.HighlightGeneral
	}
	sev, _ := decodeString(fields["severity"])
	c.Severity = domain.Severity(normalizeEnum(sev))

	if level, ok := decodeNumber(fields["riskLevel"]); ok {
		if level < domain.MinRiskLevel || level > domain.MaxRiskLevel {
			return c, "riskLevel must be a number between 0 and 10"
		}
		c.RiskLevel = int(math.Round(level))
	} else if c.Severity.Valid() {
		c.RiskLevel = riskForSeverity(c.Severity)
	} else {
		return c, "riskLevel must be a number between 0 and 10"
	}

	c.Comment, _ = decodeString(fields["comment"])
	c.Suggestion, _ = decodeString(fields["suggestion"])
	return c, ""
}

// riskForSeverity picks a representative level inside each severity bucket
func riskForSeverity(s domain.Severity) int {
	switch s {
	case domain.SeverityHigh:
		return 8
	case domain.SeverityMedium:
		return 5
	default:
		return 2
	}
}

func decodeComments(raw json.RawMessage) []domain.AIComment {
	out := []domain.AIComment{}
	var items []json.RawMessage
	if !decodeInto(raw, &items) {
		return out
	}
	for _, item := range items {
		var fields map[string]json.RawMessage
		if !decodeInto(item, &fields) {
			continue
		}
		text, _ := decodeString(fields["text"])
		pos, ok := decodeNumber(fields["position"])
		if strings.TrimSpace(text) == "" || !ok {
			continue
		}
		typ, _ := decodeString(fields["type"])
		sev, _ := decodeString(fields["severity"])
		out = append(out, domain.AIComment{
			Position: clampPosition(pos),
			Text:     text,
			Type:     domain.CommentType(normalizeEnum(typ)),
			Severity: domain.Severity(normalizeEnum(sev)),
		})
	}
	return out
}

// clampPosition converts a model-supplied offset without overflowing;
// the reconciler clamps it into the document afterwards
func clampPosition(pos float64) int {
	switch {
	case math.IsNaN(pos) || pos <= 0:
		return 0
	case pos >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(pos)
}

func decodeExplanations(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	var fields map[string]json.RawMessage
	if !decodeInto(raw, &fields) {
		return out
	}
	for k, v := range fields {
		if s, ok := decodeString(v); ok && s != "" {
			out[k] = s
		}
	}
	return out
}

func setAxis(r *domain.RiskAssessment, axis string, v float64) {
	switch axis {
	case "termination":
		r.Termination = v
	case "liability":
		r.Liability = v
	case "intellectualProperty":
		r.IntellectualProperty = v
	case "payment":
		r.Payment = v
	case "renewal":
		r.Renewal = v
	}
}

// decodeInto unmarshals raw into v, treating absent and null values as failures
func decodeInto(raw json.RawMessage, v any) bool {
	if isNull(raw) {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	ok := decodeInto(raw, &s)
	return s, ok
}

func decodeNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if !decodeInto(raw, &f) || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func decodeInt(raw json.RawMessage) (int, bool) {
	f, ok := decodeNumber(raw)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even in JSON mode
func stripCodeFence(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(trimmed, []byte("```")) {
		return trimmed
	}
	if nl := bytes.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	} else {
		return trimmed
	}
	trimmed = bytes.TrimSpace(trimmed)
	return bytes.TrimSpace(bytes.TrimSuffix(trimmed, []byte("```")))
}

func fieldError(field, msg string) domain.FieldError {
	return domain.FieldError{Field: field, Message: msg}
}
