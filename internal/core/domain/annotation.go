package domain

import (
	"fmt"
	"strings"
	"time"
)

// AnnotationType classifies a user annotation
type AnnotationType string

const (
	AnnotationNote      AnnotationType = "note"
	AnnotationQuestion  AnnotationType = "question"
	AnnotationImportant AnnotationType = "important"
)

// Valid reports whether t is a known annotation type
func (t AnnotationType) Valid() bool {
	return t == AnnotationNote || t == AnnotationQuestion || t == AnnotationImportant
}

// Annotation is a user-authored note on a range of an analysed document
type Annotation struct {
	ID          string         `json:"id"`
	AnalysisID  string         `json:"analysisId"`
	UserID      string         `json:"userId"`
	TextStart   int            `json:"textStart"`
	TextEnd     int            `json:"textEnd"`
	CommentText string         `json:"commentText"`
	Type        AnnotationType `json:"annotationType"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Validate checks the annotation against a document of docLen code points
func (a *Annotation) Validate(docLen int) error {
	if a.TextStart < 0 || a.TextEnd <= a.TextStart {
		return fmt.Errorf("%w: textStart must be >= 0 and less than textEnd", ErrInvalidInput)
	}
	if a.TextEnd > docLen {
		return fmt.Errorf("%w: textEnd %d beyond document length %d", ErrInvalidInput, a.TextEnd, docLen)
	}
	if strings.TrimSpace(a.CommentText) == "" {
		return fmt.Errorf("%w: commentText is required", ErrInvalidInput)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown annotation type %q", ErrInvalidInput, a.Type)
	}
	return nil
}

// CreateAnnotationRequest adds an annotation to an analysis
type CreateAnnotationRequest struct {
	TextStart   int            `json:"textStart"`
	TextEnd     int            `json:"textEnd"`
	CommentText string         `json:"commentText"`
	Type        AnnotationType `json:"annotationType,omitempty"`
}

// UpdateAnnotationRequest edits an annotation; nil fields are left unchanged
type UpdateAnnotationRequest struct {
	CommentText *string         `json:"commentText,omitempty"`
	Type        *AnnotationType `json:"annotationType,omitempty"`
}
