package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
)

// maxUploadRequestBytes bounds the whole multipart body; the document
// service enforces the exact file size limits.
const maxUploadRequestBytes = 11 << 20

// handleUploadDocument godoc
// @Summary      Upload document
// @Description  Upload a PDF or DOCX contract as multipart field "file"
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Contract file"
// @Success      201   {object}  domain.Document
// @Failure      400   {object}  ErrorResponse  "Missing or undersized file"
// @Failure      413   {object}  ErrorResponse  "File too large"
// @Failure      415   {object}  ErrorResponse  "Not a PDF or DOCX file"
// @Router       /documents [post]
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequestBytes)
	if err := r.ParseMultipartForm(maxUploadRequestBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	doc, err := s.docService.Upload(r.Context(), GetAuthContext(r.Context()), driving.UploadRequest{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Content:  content,
	})
	if err != nil {
		s.writeServiceError(w, r, err, "failed to upload document")
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// handleListDocuments godoc
// @Summary      List documents
// @Description  List the caller's documents, newest first
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"  Enums(uploaded,processing,analyzed,error)
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Page offset"
// @Success      200     {object}  driving.DocumentList
// @Failure      400     {object}  ErrorResponse  "Unknown status"
// @Router       /documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	filter := domain.DocumentFilter{
		Status: domain.DocumentStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", filter.Status))
		return
	}

	list, err := s.docService.List(r.Context(), GetAuthContext(r.Context()), filter)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to list documents")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Get a document by ID
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.Get(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument godoc
// @Summary      Delete document
// @Description  Delete a document with its stored file and analysis
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      409  {object}  ErrorResponse  "Analysis in progress"
// @Router       /documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.docService.Delete(r.Context(), GetAuthContext(r.Context()), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// handleAnalyzeDocument godoc
// @Summary      Analyze document
// @Description  Queue an analysis; poll analysis-status for the result
// @Tags         Analyses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      202  {object}  domain.AnalysisStatus
// @Failure      403  {object}  ErrorResponse  "Analysis limit reached"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      409  {object}  ErrorResponse  "Analysis already in progress"
// @Router       /documents/{id}/analyze [post]
func (s *Server) handleAnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	status, err := s.analysisService.Request(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to start analysis")
		return
	}

	writeJSON(w, http.StatusAccepted, status)
}

// handleAnalysisStatus godoc
// @Summary      Analysis status
// @Description  Report where a document is in the analysis pipeline
// @Tags         Analyses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.AnalysisStatus
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id}/analysis-status [get]
func (s *Server) handleAnalysisStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.analysisService.Status(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get analysis status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}
