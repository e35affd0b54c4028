package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrAnalysisInProgress indicates the document is already being analyzed
	ErrAnalysisInProgress = errors.New("analysis already in progress")

	// ErrNotProcessing indicates a result arrived for a document that already left processing
	ErrNotProcessing = errors.New("document is not processing")

	// ErrUsageLimitExceeded indicates the subscription tier's analysis quota is used up
	ErrUsageLimitExceeded = errors.New("usage limit exceeded")

	// ErrUnsupportedFileType indicates the upload is not a PDF or DOCX file
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrDocumentTooLarge indicates the file or its extracted text exceeds the allowed size
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)

// AnalysisStage names the pipeline stage an analysis failed in.
type AnalysisStage string

const (
	StageExtraction AnalysisStage = "extraction"
	StageModel      AnalysisStage = "model"
	StageSchema     AnalysisStage = "schema"
	StagePersist    AnalysisStage = "persist"
)

// FieldError describes one schema violation in a model response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// AnalysisError is a fatal pipeline failure. Every AnalysisError moves the
// document to StatusError.
type AnalysisError struct {
	Stage  AnalysisStage
	Err    error
	Fields []FieldError
}

// NewAnalysisError wraps err as a failure in the given stage
func NewAnalysisError(stage AnalysisStage, err error) *AnalysisError {
	return &AnalysisError{Stage: stage, Err: err}
}

// NewSchemaError builds a schema-stage failure from field errors
func NewSchemaError(fields []FieldError) *AnalysisError {
	return &AnalysisError{
		Stage:  StageSchema,
		Err:    ErrInvalidInput,
		Fields: fields,
	}
}

func (e *AnalysisError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.String()
		}
		return fmt.Sprintf("%s: %s", e.Stage, strings.Join(parts, "; "))
	}
	if e.Err == nil {
		return string(e.Stage) + ": failed"
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
