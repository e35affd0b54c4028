package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven/mocks"
	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
	"github.com/legalese-app/legalese-core/internal/highlights"
	"github.com/legalese-app/legalese-core/internal/runtime"
)

const contractText = "The term is 12 months. Liability is capped at $500."

// modelResponse is a well-formed analysis whose single highlight declares
// the wrong positions
func modelResponse(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"summary":        "Twelve month services agreement.",
		"keyObligations": []string{"Pay fees monthly"},
		"riskAssessment": map[string]any{
			"termination": 3, "liability": 7, "intellectualProperty": 1, "payment": 4, "renewal": 2,
		},
		"highlightedSections": []map[string]any{{
			"text":          "Liability is capped at $500.",
			"startPosition": 0,
			"endPosition":   5,
			"type":          "liability",
			"riskLevel":     6,
			"severity":      "medium",
			"comment":       "Cap is low",
		}},
		"confidenceScore": 85,
	})
	require.NoError(t, err)
	return string(data)
}

type analysisFixture struct {
	docs      *mocks.MockDocumentStore
	users     *mocks.MockUserStore
	anns      *mocks.MockAnnotationStore
	chats     *mocks.MockChatStore
	analyses  *mocks.MockAnalysisStore
	files     *mocks.MockFileStore
	queue     *mocks.MockTaskQueue
	lock      *mocks.MockDistributedLock
	llm       *mocks.MockLLMService
	extractor *mocks.MockExtractor
	rt        *runtime.Services
	svc       *analysisService
}

func newAnalysisFixture(t *testing.T, settings domain.AnalysisSettings) *analysisFixture {
	t.Helper()
	f := &analysisFixture{
		docs:      mocks.NewMockDocumentStore(),
		users:     mocks.NewMockUserStore(),
		anns:      mocks.NewMockAnnotationStore(),
		chats:     mocks.NewMockChatStore(),
		files:     mocks.NewMockFileStore(),
		queue:     mocks.NewMockTaskQueue(),
		lock:      mocks.NewMockDistributedLock(),
		llm:       mocks.NewMockLLMService(modelResponse(t)),
		extractor: &mocks.MockExtractor{Text: contractText},
	}
	f.analyses = mocks.NewMockAnalysisStore(f.docs, f.users, f.anns, f.chats)
	f.rt = runtime.NewServices(domain.NewRuntimeConfig("memory", "memory"))
	f.rt.SetLLMService(f.llm)

	f.svc = NewAnalysisService(AnalysisServiceConfig{
		DocumentStore:   f.docs,
		AnalysisStore:   f.analyses,
		AnnotationStore: f.anns,
		ChatStore:       f.chats,
		UserStore:       f.users,
		FileStore:       f.files,
		Extractors:      &mocks.MockExtractorRegistry{Extractor: f.extractor},
		TaskQueue:       f.queue,
		Lock:            f.lock,
		Services:        f.rt,
		Settings:        settings,
		LargeModel:      "large-model",
	}).(*analysisService)

	ctx := context.Background()
	require.NoError(t, f.users.Save(ctx, &domain.User{
		ID: owner.UserID, Email: "owner@example.com", Name: "Owner",
		Role: domain.RoleMember, Tier: domain.TierFree, Active: true,
	}))
	require.NoError(t, f.docs.Save(ctx, &domain.Document{
		ID: "doc-1", UserID: owner.UserID, Filename: "contract.pdf",
		MimeType: domain.MimeTypePDF, StorageKey: "user-1/contract.pdf",
		Status: domain.StatusUploaded, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))
	content := pdfBytes(200)
	require.NoError(t, f.files.Put(ctx, "user-1/contract.pdf", bytes.NewReader(content), int64(len(content)), domain.MimeTypePDF))
	return f
}

func (f *analysisFixture) document(t *testing.T) *domain.Document {
	t.Helper()
	doc, err := f.docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	return doc
}

func (f *analysisFixture) user(t *testing.T) *domain.User {
	t.Helper()
	u, err := f.users.Get(context.Background(), owner.UserID)
	require.NoError(t, err)
	return u
}

// analyze requests and processes doc-1, returning the stored analysis
func (f *analysisFixture) analyze(t *testing.T) *domain.Analysis {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Request(ctx, owner, "doc-1")
	require.NoError(t, err)
	require.NoError(t, f.svc.Process(ctx, "doc-1"))
	a, err := f.analyses.GetByDocument(ctx, "doc-1")
	require.NoError(t, err)
	return a
}

func TestAnalysisService_Request(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
	ctx := context.Background()

	status, err := f.svc.Request(ctx, owner, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, status.Status)
	assert.NotEmpty(t, status.TaskID)
	assert.Equal(t, 1, f.queue.Pending())
	assert.Equal(t, domain.StatusProcessing, f.document(t).Status)

	_, err = f.svc.Request(ctx, owner, "doc-1")
	assert.ErrorIs(t, err, domain.ErrAnalysisInProgress)
	assert.Equal(t, 1, f.queue.Pending())
}

func TestAnalysisService_Request_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("other user", func(t *testing.T) {
		f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
		_, err := f.svc.Request(ctx, stranger, "doc-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("usage exhausted", func(t *testing.T) {
		f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
		u := f.user(t)
		u.AnalysesUsed = domain.FreeTierAnalyses
		require.NoError(t, f.users.Save(ctx, u))

		_, err := f.svc.Request(ctx, owner, "doc-1")
		assert.ErrorIs(t, err, domain.ErrUsageLimitExceeded)
		assert.Equal(t, domain.StatusUploaded, f.document(t).Status)
	})

	t.Run("no model configured", func(t *testing.T) {
		f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
		f.rt.SetLLMService(nil)

		_, err := f.svc.Request(ctx, owner, "doc-1")
		assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
		assert.Equal(t, domain.StatusUploaded, f.document(t).Status)
	})

	t.Run("queue failure reverts status", func(t *testing.T) {
		f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
		f.queue.EnqueueErr = errors.New("queue down")

		_, err := f.svc.Request(ctx, owner, "doc-1")
		require.Error(t, err)
		assert.Equal(t, domain.StatusUploaded, f.document(t).Status)
	})
}

func TestAnalysisService_Process(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())

	a := f.analyze(t)

	assert.Equal(t, domain.StatusAnalyzed, f.document(t).Status)
	assert.Equal(t, 1, f.user(t).AnalysesUsed)
	assert.Equal(t, contractText, a.DocumentText)
	assert.Equal(t, "mock-model", a.Model)
	assert.Equal(t, 150, a.TokensUsed)
	assert.Equal(t, len([]rune(contractText)), a.Metadata.CharacterCount)

	require.Len(t, a.Highlights, 1)
	h := a.Highlights[0]
	assert.Equal(t, 23, h.StartPosition)
	assert.Equal(t, 51, h.EndPosition)
	assert.True(t, h.Verify(a.Source()))

	reqs := f.llm.Requests()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].JSON)
	assert.Equal(t, 0.1, reqs[0].Temperature)
	assert.Equal(t, 16384, reqs[0].MaxTokens)
	assert.Empty(t, reqs[0].Model)
	assert.False(t, f.lock.IsHeld("analysis:doc-1"))
	assert.Equal(t, 1, f.lock.Grants("analysis:doc-1"))

	status, err := f.svc.Status(context.Background(), owner, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, status.AnalysisID)
}

func TestAnalysisService_Process_SchemaFailure(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
	f.llm.Response = "I cannot analyse this document."
	ctx := context.Background()

	_, err := f.svc.Request(ctx, owner, "doc-1")
	require.NoError(t, err)

	err = f.svc.Process(ctx, "doc-1")
	var aerr *domain.AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, domain.StageSchema, aerr.Stage)

	doc := f.document(t)
	assert.Equal(t, domain.StatusError, doc.Status)
	assert.Contains(t, doc.LastError, "schema")
	assert.Equal(t, 0, f.user(t).AnalysesUsed)
	assert.Equal(t, 0, f.analyses.Len())
}

func TestAnalysisService_Process_ExtractionFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		settings func(*domain.AnalysisSettings)
		setup    func(*analysisFixture)
		wantErr  error
	}{
		{
			name:    "unsupported type",
			setup:   func(f *analysisFixture) { f.extractor.Types = []string{"text/plain"} },
			wantErr: domain.ErrUnsupportedFileType,
		},
		{
			name:     "too many tokens",
			settings: func(s *domain.AnalysisSettings) { s.MaxInputTokens = 5 },
			wantErr:  domain.ErrDocumentTooLarge,
		},
		{
			name:  "no text",
			setup: func(f *analysisFixture) { f.extractor.Text = "  \n " },
		},
		{
			name:  "extractor error",
			setup: func(f *analysisFixture) { f.extractor.Err = errors.New("corrupt pdf") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultAnalysisSettings()
			if tt.settings != nil {
				tt.settings(&settings)
			}
			f := newAnalysisFixture(t, settings)
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.svc.Request(ctx, owner, "doc-1")
			require.NoError(t, err)

			err = f.svc.Process(ctx, "doc-1")
			var aerr *domain.AnalysisError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, domain.StageExtraction, aerr.Stage)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, domain.StatusError, f.document(t).Status)
			assert.Empty(t, f.llm.Requests())
		})
	}
}

func TestAnalysisService_Process_ModelFailure(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
	f.llm.CompleteFn = func(req driven.CompletionRequest) (*driven.Completion, error) {
		return nil, errors.New("rate limited")
	}
	ctx := context.Background()

	_, err := f.svc.Request(ctx, owner, "doc-1")
	require.NoError(t, err)

	err = f.svc.Process(ctx, "doc-1")
	var aerr *domain.AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, domain.StageModel, aerr.Stage)
	assert.Equal(t, domain.StatusError, f.document(t).Status)
	assert.Contains(t, f.document(t).LastError, "rate limited")

	// failed documents can be retried
	f.llm.CompleteFn = nil
	_, err = f.svc.Request(ctx, owner, "doc-1")
	require.NoError(t, err)
	require.NoError(t, f.svc.Process(ctx, "doc-1"))
	assert.Equal(t, domain.StatusAnalyzed, f.document(t).Status)
	assert.Empty(t, f.document(t).LastError)
}

func TestAnalysisService_Process_LargeDocumentModel(t *testing.T) {
	settings := domain.DefaultAnalysisSettings()
	settings.LargeDocumentWords = 5
	f := newAnalysisFixture(t, settings)

	a := f.analyze(t)

	reqs := f.llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "large-model", reqs[0].Model)
	assert.Equal(t, "large-model", a.Model)
}

func TestAnalysisService_Process_SkipsWhenNotProcessing(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())

	require.NoError(t, f.svc.Process(context.Background(), "doc-1"))
	assert.Empty(t, f.llm.Requests())
	assert.Equal(t, domain.StatusUploaded, f.document(t).Status)
}

func TestAnalysisService_Process_LockHeld(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
	ctx := context.Background()
	_, err := f.svc.Request(ctx, owner, "doc-1")
	require.NoError(t, err)
	f.lock.SetLockHeld("analysis:doc-1", time.Minute)

	require.NoError(t, f.svc.Process(ctx, "doc-1"))
	assert.Empty(t, f.llm.Requests())
	assert.Equal(t, domain.StatusProcessing, f.document(t).Status)
}

func TestAnalysisService_Process_DropsResultAfterRecovery(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
	ctx := context.Background()
	response := modelResponse(t)
	f.llm.CompleteFn = func(req driven.CompletionRequest) (*driven.Completion, error) {
		// the document is recovered as stale while the model is still answering
		_, err := f.docs.TransitionStatus(ctx, "doc-1",
			[]domain.DocumentStatus{domain.StatusProcessing}, domain.StatusError, "timed out")
		require.NoError(t, err)
		return &driven.Completion{Content: response, Model: "mock-model"}, nil
	}

	_, err := f.svc.Request(ctx, owner, "doc-1")
	require.NoError(t, err)
	require.NoError(t, f.svc.Process(ctx, "doc-1"))

	assert.Equal(t, domain.StatusError, f.document(t).Status)
	assert.Equal(t, 0, f.analyses.Len())
	assert.Equal(t, 0, f.user(t).AnalysesUsed)
}

func TestAnalysisService_GetAndView(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
	ctx := context.Background()
	a := f.analyze(t)

	require.NoError(t, f.anns.Save(ctx, &domain.Annotation{
		ID: "ann-1", AnalysisID: a.ID, UserID: owner.UserID,
		TextStart: 0, TextEnd: 8, CommentText: "Check renewal", Type: domain.AnnotationQuestion,
	}))

	detail, err := f.svc.Get(ctx, owner, a.ID, driving.GetAnalysisOptions{IncludeAnnotations: true, IncludeChat: true})
	require.NoError(t, err)
	assert.Empty(t, detail.DocumentText)
	assert.Len(t, detail.Annotations, 1)
	require.NotNil(t, detail.Conversation)
	assert.Empty(t, detail.Conversation.Messages)

	_, err = f.svc.Get(ctx, stranger, a.ID, driving.GetAnalysisOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	selected := 0
	view, err := f.svc.View(ctx, owner, a.ID, &selected)
	require.NoError(t, err)
	assert.Equal(t, contractText, view.Text)
	assert.Equal(t, len([]rune(contractText)), view.Length)
	require.Len(t, view.Projection.Spans, 2)
	assert.Equal(t, domain.SourceAnnotation, view.Projection.Spans[0].SourceKind)
	assert.Equal(t, domain.StyleSelected, view.Projection.Spans[1].Style)

	// the stored text is untouched by the stripped Get
	again, err := f.svc.Get(ctx, admin, a.ID, driving.GetAnalysisOptions{IncludeContent: true})
	require.NoError(t, err)
	assert.Equal(t, contractText, again.DocumentText)
}

func TestAnalysisService_ListAndExport(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
	ctx := context.Background()
	a := f.analyze(t)

	list, err := f.svc.List(ctx, owner, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, 7.0, list[0].OverallRisk)

	data, err := f.svc.Export(ctx, owner, a.ID)
	require.NoError(t, err)
	loaded, err := highlights.DecodeAnalysis(data)
	require.NoError(t, err)
	assert.Equal(t, a.Highlights, loaded.Highlights)
}

func TestAnalysisService_Delete(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
	ctx := context.Background()
	a := f.analyze(t)
	require.Equal(t, 1, f.user(t).AnalysesUsed)

	assert.ErrorIs(t, f.svc.Delete(ctx, stranger, a.ID), domain.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, owner, a.ID))
	assert.Equal(t, 0, f.analyses.Len())
	assert.Equal(t, 0, f.user(t).AnalysesUsed)
	assert.Equal(t, domain.StatusUploaded, f.document(t).Status)
}

func TestAnalysisService_RecoverStale(t *testing.T) {
	f := newAnalysisFixture(t, domain.DefaultAnalysisSettings())
	ctx := context.Background()

	_, err := f.svc.Request(ctx, owner, "doc-1")
	require.NoError(t, err)

	n, err := f.svc.RecoverStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "fresh documents are left alone")

	f.docs.Backdate("doc-1", time.Hour)
	f.lock.SetLockHeld("analysis:doc-1", time.Minute)
	n, err = f.svc.RecoverStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "locked documents are still running")

	f.lock.Reset()
	n, err = f.svc.RecoverStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	doc := f.document(t)
	assert.Equal(t, domain.StatusError, doc.Status)
	assert.Contains(t, doc.LastError, "timed out")
	assert.False(t, f.lock.IsHeld("analysis:doc-1"))
}
