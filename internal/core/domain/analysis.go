package domain

import "time"

// RiskAssessment scores each contract concern from 0 (benign) to 10
type RiskAssessment struct {
	Termination          float64 `json:"termination"`
	Liability            float64 `json:"liability"`
	IntellectualProperty float64 `json:"intellectualProperty"`
	Payment              float64 `json:"payment"`
	Renewal              float64 `json:"renewal"`
}

// RiskAxes lists the assessment axes in their JSON names
var RiskAxes = []string{"termination", "liability", "intellectualProperty", "payment", "renewal"}

// Overall returns the highest axis score
func (r RiskAssessment) Overall() float64 {
	max := r.Termination
	for _, v := range []float64{r.Liability, r.IntellectualProperty, r.Payment, r.Renewal} {
		if v > max {
			max = v
		}
	}
	return max
}

// DocumentSection is one heading in the document outline
type DocumentSection struct {
	Title         string            `json:"title"`
	Level         int               `json:"level"`
	StartPosition int               `json:"startPosition"`
	EndPosition   int               `json:"endPosition"`
	Subsections   []DocumentSection `json:"subsections,omitempty"`
}

// DocumentStructure is the heading outline of a document
type DocumentStructure struct {
	Sections []DocumentSection `json:"sections"`
}

// Analysis is the persisted result of analysing one document.
// DocumentText is the exact text the highlights were reconciled against.
type Analysis struct {
	ID              string            `json:"id"`
	DocumentID      string            `json:"documentId"`
	UserID          string            `json:"userId"`
	DocumentText    string            `json:"documentContent,omitempty"`
	Summary         string            `json:"summary"`
	KeyObligations  []string          `json:"keyObligations"`
	RiskAssessment  RiskAssessment    `json:"riskAssessment"`
	Highlights      []Highlight       `json:"highlightedSections"`
	AIComments      []AIComment       `json:"aiComments"`
	Structure       DocumentStructure `json:"documentStructure"`
	Explanations    map[string]string `json:"plainEnglishExplanations"`
	ConfidenceScore float64           `json:"confidenceScore"`
	Metadata        DocumentMetadata  `json:"documentMetadata"`
	Rejections      []Rejection       `json:"rejections,omitempty"`
	Model           string            `json:"model,omitempty"`
	ProcessingMs    int64             `json:"processingTimeMs,omitempty"`
	TokensUsed      int               `json:"tokensUsed,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Source wraps DocumentText for offset arithmetic
func (a *Analysis) Source() *SourceText {
	return NewSourceText(a.DocumentText)
}

// AnalysisSummary is the list view of an analysis
type AnalysisSummary struct {
	ID              string    `json:"id"`
	DocumentID      string    `json:"documentId"`
	Summary         string    `json:"summary"`
	OverallRisk     float64   `json:"overallRisk"`
	HighlightCount  int       `json:"highlightCount"`
	ConfidenceScore float64   `json:"confidenceScore"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ToSummary converts an Analysis to its list view
func (a *Analysis) ToSummary() *AnalysisSummary {
	return &AnalysisSummary{
		ID:              a.ID,
		DocumentID:      a.DocumentID,
		Summary:         a.Summary,
		OverallRisk:     a.RiskAssessment.Overall(),
		HighlightCount:  len(a.Highlights),
		ConfidenceScore: a.ConfidenceScore,
		CreatedAt:       a.CreatedAt,
	}
}

// AnalysisStatus is returned while a document is being analysed
type AnalysisStatus struct {
	DocumentID string         `json:"documentId"`
	Status     DocumentStatus `json:"status"`
	AnalysisID string         `json:"analysisId,omitempty"`
	TaskID     string         `json:"taskId,omitempty"`
	Error      string         `json:"error,omitempty"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}
