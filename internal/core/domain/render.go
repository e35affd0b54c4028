package domain

// SourceKind says which list a RenderSpan points back into
type SourceKind string

const (
	SourceHighlight  SourceKind = "highlight"
	SourceAnnotation SourceKind = "annotation"
)

// SpanStyle is the presentation class of a RenderSpan
type SpanStyle string

const (
	StyleRiskLow             SpanStyle = "risk-low"
	StyleRiskMedium          SpanStyle = "risk-medium"
	StyleRiskHigh            SpanStyle = "risk-high"
	StyleSelected            SpanStyle = "selected"
	StyleAnnotationNote      SpanStyle = "annotation-note"
	StyleAnnotationQuestion  SpanStyle = "annotation-question"
	StyleAnnotationImportant SpanStyle = "annotation-important"
)

// Render layers. Highlights paint below annotations.
const (
	LayerHighlight  = 0
	LayerAnnotation = 1
)

// RenderSpan is one decorated range ready for a renderer. Spans may overlap.
// Renderers paint in ascending Rank; the highest Rank wins visually.
type RenderSpan struct {
	Start       int        `json:"start"`
	End         int        `json:"end"`
	SourceKind  SourceKind `json:"sourceKind"`
	SourceIndex int        `json:"sourceIndex"`
	Style       SpanStyle  `json:"style"`
	Layer       int        `json:"layer"`
	Rank        int        `json:"rank"`
}

// Segment is a maximal run of text covered by the same set of spans.
// Spans holds indices into Projection.Spans.
type Segment struct {
	Start int   `json:"start"`
	End   int   `json:"end"`
	Spans []int `json:"spans"`
}

// Projection is the render-ready view of one analysis snapshot
type Projection struct {
	Spans    []RenderSpan `json:"spans"`
	Segments []Segment    `json:"segments,omitempty"`
	// Skipped lists annotation indices that were empty after clamping
	Skipped []int `json:"skipped,omitempty"`
}

// AnalysisView bundles everything a document viewer needs from one snapshot
// so span back-references stay valid
type AnalysisView struct {
	AnalysisID  string       `json:"analysisId"`
	Text        string       `json:"text"`
	Length      int          `json:"length"`
	Highlights  []Highlight  `json:"highlights"`
	AIComments  []AIComment  `json:"aiComments"`
	Annotations []Annotation `json:"annotations"`
	Selected    *int         `json:"selected,omitempty"`
	Projection  Projection   `json:"projection"`
}
