package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
	"github.com/legalese-app/legalese-core/internal/highlights"
	"github.com/legalese-app/legalese-core/internal/runtime"
)

// lockGrace is added to the model timeout when holding the per-document lock
const lockGrace = 2 * time.Minute

// statusUpdateTimeout bounds the final status write after a failed run
const statusUpdateTimeout = 10 * time.Second

// Ensure analysisService implements AnalysisService
var _ driving.AnalysisService = (*analysisService)(nil)

// analysisService runs the analysis pipeline:
//  1. Claim the document (uploaded|analyzed|error -> processing) and queue it
//  2. Worker takes the per-document lock
//  3. Fetch the file and extract text
//  4. Call the model in JSON mode
//  5. Reconcile highlights against the extracted text
//  6. Persist analysis, status, and usage in one transaction
type analysisService struct {
	documentStore   driven.DocumentStore
	analysisStore   driven.AnalysisStore
	annotationStore driven.AnnotationStore
	chatStore       driven.ChatStore
	userStore       driven.UserStore
	fileStore       driven.FileStore
	extractors      driven.ExtractorRegistry
	taskQueue       driven.TaskQueue
	lock            driven.DistributedLock
	services        *runtime.Services
	reconciler      *highlights.Reconciler
	settings        domain.AnalysisSettings
	largeModel      string
	logger          *slog.Logger
	now             func() time.Time
}

// AnalysisServiceConfig holds dependencies for the analysis service.
type AnalysisServiceConfig struct {
	DocumentStore   driven.DocumentStore
	AnalysisStore   driven.AnalysisStore
	AnnotationStore driven.AnnotationStore
	ChatStore       driven.ChatStore
	UserStore       driven.UserStore
	FileStore       driven.FileStore
	Extractors      driven.ExtractorRegistry
	TaskQueue       driven.TaskQueue
	Lock            driven.DistributedLock
	Services        *runtime.Services
	Settings        domain.AnalysisSettings

	// LargeModel is used instead of the default model for documents of at
	// least Settings.LargeDocumentWords words. Empty disables the switch.
	LargeModel string

	Logger *slog.Logger
}

// NewAnalysisService creates a new AnalysisService.
// An unknown locate strategy falls back to the default with a warning.
func NewAnalysisService(cfg AnalysisServiceConfig) driving.AnalysisService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settings := cfg.Settings
	if settings.MaxOutputTokens == 0 {
		settings = domain.DefaultAnalysisSettings()
	}

	strategy, err := highlights.ParseLocateStrategy(settings.LocateStrategy)
	if err != nil {
		logger.Warn("unknown locate strategy, using default",
			"strategy", settings.LocateStrategy,
			"default", highlights.DefaultStrategy,
		)
		strategy = highlights.DefaultStrategy
	}

	return &analysisService{
		documentStore:   cfg.DocumentStore,
		analysisStore:   cfg.AnalysisStore,
		annotationStore: cfg.AnnotationStore,
		chatStore:       cfg.ChatStore,
		userStore:       cfg.UserStore,
		fileStore:       cfg.FileStore,
		extractors:      cfg.Extractors,
		taskQueue:       cfg.TaskQueue,
		lock:            cfg.Lock,
		services:        cfg.Services,
		reconciler:      highlights.NewReconciler(highlights.WithStrategy(strategy)),
		settings:        settings,
		largeModel:      cfg.LargeModel,
		logger:          logger,
		now:             time.Now,
	}
}

// Request claims a document for analysis and queues it
func (s *analysisService) Request(ctx context.Context, actor *domain.AuthContext, documentID string) (*domain.AnalysisStatus, error) {
	doc, err := loadOwnedDocument(ctx, s.documentStore, actor, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == domain.StatusProcessing {
		return nil, domain.ErrAnalysisInProgress
	}

	owner, err := s.userStore.Get(ctx, doc.UserID)
	if err != nil {
		return nil, err
	}
	if !owner.Active {
		return nil, domain.ErrForbidden
	}
	if !owner.Tier.AllowsAnalysis(owner.AnalysesUsed) {
		return nil, domain.ErrUsageLimitExceeded
	}
	if s.services != nil && !s.services.Config().CanAnalyze() {
		return nil, domain.ErrServiceUnavailable
	}

	ok, err := s.documentStore.TransitionStatus(ctx, doc.ID,
		[]domain.DocumentStatus{domain.StatusUploaded, domain.StatusAnalyzed, domain.StatusError},
		domain.StatusProcessing, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAnalysisInProgress
	}

	task := domain.NewAnalyzeDocumentTask(doc.UserID, doc.ID)
	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		// Put the document back so the user can retry
		if _, rerr := s.documentStore.TransitionStatus(ctx, doc.ID,
			[]domain.DocumentStatus{domain.StatusProcessing}, doc.Status, doc.LastError); rerr != nil {
			s.logger.Error("failed to revert document status", "document_id", doc.ID, "error", rerr)
		}
		return nil, fmt.Errorf("failed to queue analysis: %w", err)
	}

	s.logger.Info("analysis requested",
		"document_id", doc.ID,
		"user_id", doc.UserID,
		"task_id", task.ID,
	)

	return &domain.AnalysisStatus{
		DocumentID: doc.ID,
		Status:     domain.StatusProcessing,
		TaskID:     task.ID,
		UpdatedAt:  s.now(),
	}, nil
}

// Status reports the pipeline state of a document
func (s *analysisService) Status(ctx context.Context, actor *domain.AuthContext, documentID string) (*domain.AnalysisStatus, error) {
	doc, err := loadOwnedDocument(ctx, s.documentStore, actor, documentID)
	if err != nil {
		return nil, err
	}

	status := &domain.AnalysisStatus{
		DocumentID: doc.ID,
		Status:     doc.Status,
		Error:      doc.LastError,
		UpdatedAt:  doc.UpdatedAt,
	}
	if doc.Status == domain.StatusAnalyzed {
		a, err := s.analysisStore.GetByDocument(ctx, doc.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if a != nil {
			status.AnalysisID = a.ID
		}
	}
	return status, nil
}

// List returns the caller's analyses
func (s *analysisService) List(ctx context.Context, actor *domain.AuthContext, limit, offset int) ([]*domain.AnalysisSummary, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	analyses, err := s.analysisStore.ListByUser(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.AnalysisSummary, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, a.ToSummary())
	}
	return out, nil
}

// Get retrieves an analysis with the requested optional parts
func (s *analysisService) Get(ctx context.Context, actor *domain.AuthContext, id string, opts driving.GetAnalysisOptions) (*driving.AnalysisDetail, error) {
	a, err := s.loadOwnedAnalysis(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !opts.IncludeContent {
		a.DocumentText = ""
	}

	detail := &driving.AnalysisDetail{Analysis: a}
	if opts.IncludeAnnotations {
		anns, err := s.annotationStore.ListByAnalysis(ctx, a.ID, actor.UserID)
		if err != nil {
			return nil, err
		}
		detail.Annotations = anns
	}
	if opts.IncludeChat {
		conv, err := s.chatStore.Get(ctx, a.ID, actor.UserID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			conv = emptyConversation(a.ID, actor.UserID)
		case err != nil:
			return nil, err
		}
		detail.Conversation = conv
	}
	return detail, nil
}

// View projects highlights and annotations onto the document text
func (s *analysisService) View(ctx context.Context, actor *domain.AuthContext, id string, selected *int) (*domain.AnalysisView, error) {
	a, err := s.loadOwnedAnalysis(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	stored, err := s.annotationStore.ListByAnalysis(ctx, a.ID, actor.UserID)
	if err != nil {
		return nil, err
	}
	anns := make([]domain.Annotation, 0, len(stored))
	for _, ann := range stored {
		anns = append(anns, *ann)
	}

	doc := a.Source()
	return &domain.AnalysisView{
		AnalysisID:  a.ID,
		Text:        doc.String(),
		Length:      doc.Len(),
		Highlights:  a.Highlights,
		AIComments:  a.AIComments,
		Annotations: anns,
		Selected:    selected,
		Projection:  highlights.Project(doc.Len(), a.Highlights, anns, selected),
	}, nil
}

// Export serialises an analysis together with its document text
func (s *analysisService) Export(ctx context.Context, actor *domain.AuthContext, id string) ([]byte, error) {
	a, err := s.loadOwnedAnalysis(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return highlights.EncodeAnalysis(a)
}

// Delete removes an analysis, its annotations and chat, and refunds its usage
func (s *analysisService) Delete(ctx context.Context, actor *domain.AuthContext, id string) error {
	a, err := s.loadOwnedAnalysis(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.analysisStore.Delete(ctx, a.ID); err != nil {
		return err
	}
	s.logger.Info("analysis deleted", "analysis_id", a.ID, "document_id", a.DocumentID)
	return nil
}

// Process runs the pipeline for one document. Failures are recorded on the
// document and also returned so the worker can log them.
func (s *analysisService) Process(ctx context.Context, documentID string) error {
	started := s.now()

	doc, err := s.documentStore.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc.Status != domain.StatusProcessing {
		s.logger.Warn("skipping analysis, document not processing",
			"document_id", doc.ID,
			"status", doc.Status,
		)
		return nil
	}

	lockName := "analysis:" + doc.ID
	acquired, err := s.lock.Acquire(ctx, lockName, s.settings.Timeout+lockGrace)
	if err != nil {
		return fmt.Errorf("failed to acquire analysis lock: %w", err)
	}
	if !acquired {
		s.logger.Info("analysis already running elsewhere", "document_id", doc.ID)
		return nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
			s.logger.Warn("failed to release analysis lock", "document_id", doc.ID, "error", err)
		}
	}()

	analysis, err := s.run(ctx, doc, started)
	if err != nil {
		return s.failAnalysis(ctx, doc, started, err)
	}

	// Step 6: Persist
	if err := s.analysisStore.Complete(ctx, analysis); err != nil {
		if errors.Is(err, domain.ErrNotProcessing) {
			// recovered as stale or deleted while we ran; the result is dropped
			s.logger.Warn("discarding analysis, document left processing", "document_id", doc.ID)
			return nil
		}
		return s.failAnalysis(ctx, doc, started, domain.NewAnalysisError(domain.StagePersist, err))
	}

	s.logger.Info("analysis completed",
		"document_id", doc.ID,
		"analysis_id", analysis.ID,
		"model", analysis.Model,
		"highlights", len(analysis.Highlights),
		"rejected", len(analysis.Rejections),
		"tokens", analysis.TokensUsed,
		"duration", time.Duration(analysis.ProcessingMs)*time.Millisecond,
	)
	return nil
}

// run executes the extraction, model, and reconciliation steps
func (s *analysisService) run(ctx context.Context, doc *domain.Document, started time.Time) (*domain.Analysis, error) {
	owner, err := s.userStore.Get(ctx, doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document owner: %w", err)
	}
	if !owner.Tier.AllowsAnalysis(owner.AnalysesUsed) {
		return nil, domain.ErrUsageLimitExceeded
	}

	// Step 3: Fetch and extract
	extracted, err := s.extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	if domain.EstimateTokens(extracted.Text) > s.settings.MaxInputTokens {
		return nil, domain.NewAnalysisError(domain.StageExtraction, domain.ErrDocumentTooLarge)
	}

	// Step 4: Model
	llm, err := s.services.RequireLLM()
	if err != nil {
		return nil, domain.NewAnalysisError(domain.StageModel, err)
	}
	model := s.selectModel(extracted)

	callCtx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()

	completion, err := llm.Complete(callCtx, driven.CompletionRequest{
		Model:       model,
		Messages:    analysisMessages(extracted.Text),
		Temperature: s.settings.Temperature,
		MaxTokens:   s.settings.MaxOutputTokens,
		JSON:        true,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("model call timed out after %s: %w", s.settings.Timeout, err)
		}
		return nil, domain.NewAnalysisError(domain.StageModel, err)
	}

	// Step 5: Reconcile
	source := domain.NewSourceText(extracted.Text)
	result := s.reconciler.Reconcile(source, []byte(completion.Content))
	if !result.OK() {
		return nil, result.Err()
	}
	for _, r := range result.Analysis.Rejections {
		s.logger.Warn("highlight rejected",
			"document_id", doc.ID,
			"index", r.Index,
			"reason", r.Reason,
			"text", r.Text,
		)
	}
	s.logger.Debug("highlights reconciled",
		"document_id", doc.ID,
		"candidates", result.Stats.Candidates,
		"exact", result.Stats.Exact,
		"relocated", result.Stats.Relocated,
		"prefix", result.Stats.Prefix,
		"rejected", result.Stats.Rejected,
	)

	now := s.now()
	a := result.Analysis
	a.ID = uuid.NewString()
	a.DocumentID = doc.ID
	a.UserID = doc.UserID
	a.Metadata = extracted.Metadata
	if len(a.Structure.Sections) == 0 {
		a.Structure = extracted.Structure
	}
	a.Model = completion.Model
	if a.Model == "" {
		a.Model = model
	}
	a.TokensUsed = completion.TotalTokens()
	a.ProcessingMs = now.Sub(started).Milliseconds()
	a.CreatedAt = now
	a.UpdatedAt = now
	return a, nil
}

// extract loads the stored file and converts it to plain text
func (s *analysisService) extract(ctx context.Context, doc *domain.Document) (*domain.ExtractedDocument, error) {
	extractor := s.extractors.Get(doc.MimeType)
	if extractor == nil {
		return nil, domain.NewAnalysisError(domain.StageExtraction,
			fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, doc.MimeType))
	}

	rc, err := s.fileStore.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, domain.NewAnalysisError(domain.StageExtraction, fmt.Errorf("failed to read file: %w", err))
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, domain.NewAnalysisError(domain.StageExtraction, fmt.Errorf("failed to read file: %w", err))
	}

	extracted, err := extractor.Extract(ctx, content)
	if err != nil {
		return nil, domain.NewAnalysisError(domain.StageExtraction, err)
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, domain.NewAnalysisError(domain.StageExtraction, errors.New("no text could be extracted"))
	}
	return extracted, nil
}

// selectModel picks the large model for long documents when one is configured
func (s *analysisService) selectModel(extracted *domain.ExtractedDocument) string {
	if s.largeModel == "" || s.settings.LargeDocumentWords <= 0 {
		return ""
	}
	words := extracted.Metadata.WordCount
	if words == 0 {
		words = len(strings.Fields(extracted.Text))
	}
	if words >= s.settings.LargeDocumentWords {
		return s.largeModel
	}
	return ""
}

// failAnalysis moves the document to error with the failure message
func (s *analysisService) failAnalysis(ctx context.Context, doc *domain.Document, started time.Time, cause error) error {
	s.logger.Error("analysis failed",
		"document_id", doc.ID,
		"duration", s.now().Sub(started),
		"error", cause,
	)

	// The run context may already be cancelled; the status must still be written
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusUpdateTimeout)
	defer cancel()

	ok, err := s.documentStore.TransitionStatus(writeCtx, doc.ID,
		[]domain.DocumentStatus{domain.StatusProcessing}, domain.StatusError, cause.Error())
	if err != nil {
		s.logger.Error("failed to record analysis failure", "document_id", doc.ID, "error", err)
	} else if !ok {
		s.logger.Warn("document left processing before failure was recorded", "document_id", doc.ID)
	}
	return cause
}

// RecoverStale moves documents that have been processing longer than
// StaleAfter, and whose lock is free, to error
func (s *analysisService) RecoverStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.settings.StaleAfter)
	stale, err := s.documentStore.ListStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, doc := range stale {
		lockName := "analysis:" + doc.ID
		acquired, err := s.lock.Acquire(ctx, lockName, time.Minute)
		if err != nil {
			s.logger.Warn("failed to check analysis lock", "document_id", doc.ID, "error", err)
			continue
		}
		if !acquired {
			// still running
			continue
		}

		msg := fmt.Sprintf("analysis timed out after %s", s.settings.StaleAfter)
		ok, err := s.documentStore.TransitionStatus(ctx, doc.ID,
			[]domain.DocumentStatus{domain.StatusProcessing}, domain.StatusError, msg)
		_ = s.lock.Release(ctx, lockName)
		if err != nil {
			return recovered, err
		}
		if ok {
			recovered++
			s.logger.Warn("recovered stale analysis", "document_id", doc.ID, "since", doc.UpdatedAt)
		}
	}
	return recovered, nil
}

// loadOwnedAnalysis fetches an analysis the actor may read
func (s *analysisService) loadOwnedAnalysis(ctx context.Context, actor *domain.AuthContext, id string) (*domain.Analysis, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	a, err := s.analysisStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(a.UserID) {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func emptyConversation(analysisID, userID string) *domain.Conversation {
	return &domain.Conversation{
		AnalysisID: analysisID,
		UserID:     userID,
		Messages:   []domain.ChatMessage{},
	}
}
