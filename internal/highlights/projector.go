package highlights

import (
	"sort"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// Paint ranks. Renderers draw spans in ascending rank so the highest rank
// is visible where spans overlap: severities ascend, the selected highlight
// sits above every severity, and annotations sit above all highlights.
const (
	rankSelected            = 4
	rankAnnotationNote      = 5
	rankAnnotationQuestion  = 6
	rankAnnotationImportant = 7
)

// HighlightStyle resolves the style and paint rank of a highlight
func HighlightStyle(h *domain.Highlight, selected bool) (domain.SpanStyle, int) {
	if selected {
		return domain.StyleSelected, rankSelected
	}
	bucket := h.Bucket()
	switch bucket {
	case domain.SeverityHigh:
		return domain.StyleRiskHigh, bucket.Rank()
	case domain.SeverityMedium:
		return domain.StyleRiskMedium, bucket.Rank()
	default:
		return domain.StyleRiskLow, domain.SeverityLow.Rank()
	}
}

// AnnotationStyle resolves the style and paint rank of an annotation.
// Unknown types render as notes.
func AnnotationStyle(t domain.AnnotationType) (domain.SpanStyle, int) {
	switch t {
	case domain.AnnotationImportant:
		return domain.StyleAnnotationImportant, rankAnnotationImportant
	case domain.AnnotationQuestion:
		return domain.StyleAnnotationQuestion, rankAnnotationQuestion
	default:
		return domain.StyleAnnotationNote, rankAnnotationNote
	}
}

// Project computes the render spans for one analysis snapshot. Overlapping
// spans are all kept; nothing is merged. Spans are ordered by start, then
// layer, then longer spans first, then source index, so the order is total
// and deterministic. selected, when it indexes hs, restyles that highlight.
//
// Annotation ranges are clamped to [0, docLen]; annotations that are empty
// after clamping are listed in Skipped instead of producing a span.
func Project(docLen int, hs []domain.Highlight, anns []domain.Annotation, selected *int) domain.Projection {
	if docLen < 0 {
		docLen = 0
	}
	spans := make([]domain.RenderSpan, 0, len(hs)+len(anns))

	for i := range hs {
		h := &hs[i]
		start, end := clampRange(h.StartPosition, h.EndPosition, docLen)
		if end <= start {
			continue
		}
		style, rank := HighlightStyle(h, selected != nil && *selected == i)
		spans = append(spans, domain.RenderSpan{
			Start:       start,
			End:         end,
			SourceKind:  domain.SourceHighlight,
			SourceIndex: i,
			Style:       style,
			Layer:       domain.LayerHighlight,
			Rank:        rank,
		})
	}

	var skipped []int
	for i := range anns {
		a := &anns[i]
		start, end := clampRange(a.TextStart, a.TextEnd, docLen)
		if end <= start {
			skipped = append(skipped, i)
			continue
		}
		style, rank := AnnotationStyle(a.Type)
		spans = append(spans, domain.RenderSpan{
			Start:       start,
			End:         end,
			SourceKind:  domain.SourceAnnotation,
			SourceIndex: i,
			Style:       style,
			Layer:       domain.LayerAnnotation,
			Rank:        rank,
		})
	}

	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Layer != b.Layer {
			return a.Layer < b.Layer
		}
		if a.End != b.End {
			return a.End > b.End
		}
		return a.SourceIndex < b.SourceIndex
	})

	return domain.Projection{
		Spans:    spans,
		Segments: Segments(spans),
		Skipped:  skipped,
	}
}

// Segments splits the covered text into maximal runs that share the same set
// of spans. Each segment lists the covering spans by index into spans, in
// span order. Uncovered text produces no segment.
func Segments(spans []domain.RenderSpan) []domain.Segment {
	if len(spans) == 0 {
		return nil
	}

	points := make([]int, 0, 2*len(spans))
	for _, s := range spans {
		points = append(points, s.Start, s.End)
	}
	sort.Ints(points)
	points = dedupe(points)

	var segments []domain.Segment
	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		var cover []int
		for j, s := range spans {
			if s.Start <= from && s.End >= to {
				cover = append(cover, j)
			}
		}
		if len(cover) == 0 {
			continue
		}
		segments = append(segments, domain.Segment{Start: from, End: to, Spans: cover})
	}
	return segments
}

// Top returns the index of the span that paints last over a segment
func Top(spans []domain.RenderSpan, seg domain.Segment) int {
	top := -1
	for _, idx := range seg.Spans {
		if top < 0 || spans[idx].Rank >= spans[top].Rank {
			top = idx
		}
	}
	return top
}

func clampRange(start, end, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return start, end
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
