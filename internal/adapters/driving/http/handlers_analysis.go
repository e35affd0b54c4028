package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
)

// handleListAnalyses godoc
// @Summary      List analyses
// @Description  List the caller's analyses, newest first
// @Tags         Analyses
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Page offset"
// @Success      200     {array}   domain.AnalysisSummary
// @Router       /analyses [get]
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	summaries, err := s.analysisService.List(r.Context(), GetAuthContext(r.Context()), limit, offset)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to list analyses")
		return
	}
	if summaries == nil {
		summaries = []*domain.AnalysisSummary{}
	}

	writeJSON(w, http.StatusOK, summaries)
}

// handleGetAnalysis godoc
// @Summary      Get analysis
// @Description  Get an analysis; document text, annotations, and chat are opt-in
// @Tags         Analyses
// @Produce      json
// @Security     BearerAuth
// @Param        id                   path      string  true   "Analysis ID"
// @Param        include_content      query     bool    false  "Include document text"
// @Param        include_annotations  query     bool    false  "Include the caller's annotations"
// @Param        include_chat         query     bool    false  "Include the caller's chat"
// @Success      200  {object}  driving.AnalysisDetail
// @Failure      404  {object}  ErrorResponse  "Analysis not found"
// @Router       /analyses/{id} [get]
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	opts := driving.GetAnalysisOptions{
		IncludeContent:     queryBool(r, "include_content"),
		IncludeAnnotations: queryBool(r, "include_annotations"),
		IncludeChat:        queryBool(r, "include_chat"),
	}

	detail, err := s.analysisService.Get(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"), opts)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get analysis")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// handleViewAnalysis godoc
// @Summary      View analysis
// @Description  Text, highlights, annotations, and render spans from one snapshot
// @Tags         Analyses
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true   "Analysis ID"
// @Param        selected  query     int     false  "Index of the selected highlight"
// @Success      200  {object}  domain.AnalysisView
// @Failure      400  {object}  ErrorResponse  "Invalid selection"
// @Failure      404  {object}  ErrorResponse  "Analysis not found"
// @Router       /analyses/{id}/view [get]
func (s *Server) handleViewAnalysis(w http.ResponseWriter, r *http.Request) {
	var selected *int
	if raw := r.URL.Query().Get("selected"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "selected must be an integer")
			return
		}
		selected = &n
	}

	view, err := s.analysisService.View(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"), selected)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to render analysis")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// handleExportAnalysis godoc
// @Summary      Export analysis
// @Description  Download the analysis with its document text as JSON
// @Tags         Analyses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Analysis ID"
// @Success      200  {file}    file
// @Failure      404  {object}  ErrorResponse  "Analysis not found"
// @Router       /analyses/{id}/export [get]
func (s *Server) handleExportAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := s.analysisService.Export(r.Context(), GetAuthContext(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to export analysis")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "analysis-"+id+".json"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleDeleteAnalysis godoc
// @Summary      Delete analysis
// @Description  Delete an analysis with its annotations and chat
// @Tags         Analyses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Analysis ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Analysis not found"
// @Router       /analyses/{id} [delete]
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.analysisService.Delete(r.Context(), GetAuthContext(r.Context()), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "failed to delete analysis")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// Annotation endpoints

// handleListAnnotations godoc
// @Summary      List annotations
// @Description  List the caller's annotations on an analysis
// @Tags         Annotations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Analysis ID"
// @Success      200  {array}   domain.Annotation
// @Failure      404  {object}  ErrorResponse  "Analysis not found"
// @Router       /analyses/{id}/annotations [get]
func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	annotations, err := s.annotationService.List(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to list annotations")
		return
	}
	if annotations == nil {
		annotations = []*domain.Annotation{}
	}

	writeJSON(w, http.StatusOK, annotations)
}

// handleCreateAnnotation godoc
// @Summary      Create annotation
// @Description  Attach a comment to a range of the analysis text
// @Tags         Annotations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Analysis ID"
// @Param        request  body      domain.CreateAnnotationRequest  true  "Range and comment"
// @Success      201      {object}  domain.Annotation
// @Failure      400      {object}  ErrorResponse  "Invalid range or comment"
// @Failure      404      {object}  ErrorResponse  "Analysis not found"
// @Router       /analyses/{id}/annotations [post]
func (s *Server) handleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	annotation, err := s.annotationService.Create(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to create annotation")
		return
	}

	writeJSON(w, http.StatusCreated, annotation)
}

// handleUpdateAnnotation godoc
// @Summary      Update annotation
// @Description  Edit the comment text or type of an annotation
// @Tags         Annotations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Annotation ID"
// @Param        request  body      domain.UpdateAnnotationRequest  true  "Fields to change"
// @Success      200      {object}  domain.Annotation
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      404      {object}  ErrorResponse  "Annotation not found"
// @Router       /annotations/{id} [patch]
func (s *Server) handleUpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	annotation, err := s.annotationService.Update(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to update annotation")
		return
	}

	writeJSON(w, http.StatusOK, annotation)
}

// handleDeleteAnnotation godoc
// @Summary      Delete annotation
// @Tags         Annotations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Annotation ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Annotation not found"
// @Router       /annotations/{id} [delete]
func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	if err := s.annotationService.Delete(r.Context(), GetAuthContext(r.Context()), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "failed to delete annotation")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}
