package domain

import "time"

// DocumentStatus tracks a document through the analysis pipeline
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusAnalyzed   DocumentStatus = "analyzed"
	StatusError      DocumentStatus = "error"
)

// Valid reports whether s is a known status
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusAnalyzed, StatusError:
		return true
	}
	return false
}

// CanStartAnalysis reports whether a document in this status may move to processing.
// Re-analysis of analyzed or failed documents is allowed.
func (s DocumentStatus) CanStartAnalysis() bool {
	return s == StatusUploaded || s == StatusAnalyzed || s == StatusError
}

// CanTransition reports whether moving from s to next is a legal status change
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	switch next {
	case StatusProcessing:
		return s.CanStartAnalysis()
	case StatusAnalyzed, StatusError:
		return s == StatusProcessing
	case StatusUploaded:
		// analysis deleted
		return s == StatusAnalyzed || s == StatusError
	}
	return false
}

// Supported upload MIME types
const (
	MimeTypePDF  = "application/pdf"
	MimeTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Document is an uploaded contract file
type Document struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Filename     string         `json:"filename"`      // sanitised name used in storage
	OriginalName string         `json:"original_name"` // name as uploaded
	MimeType     string         `json:"mime_type"`
	SizeBytes    int64          `json:"size_bytes"`
	StorageKey   string         `json:"storage_key"`
	Status       DocumentStatus `json:"status"`
	LastError    string         `json:"last_error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DocumentFilter narrows a document listing
type DocumentFilter struct {
	UserID string
	Status DocumentStatus
	Limit  int
	Offset int
}

// Normalize applies listing defaults and bounds
func (f *DocumentFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// DocumentMetadata describes extracted text
type DocumentMetadata struct {
	Pages          int `json:"pages"`
	WordCount      int `json:"wordCount"`
	CharacterCount int `json:"characterCount"`
	ParagraphCount int `json:"paragraphCount"`
}

// ExtractedDocument is the plain-text rendition of an uploaded file
type ExtractedDocument struct {
	Text      string            `json:"text"`
	Metadata  DocumentMetadata  `json:"metadata"`
	Structure DocumentStructure `json:"structure"`
}
