package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven/mocks"
	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
)

// mockAnalysisService records the pipeline calls a worker makes
type mockAnalysisService struct {
	driving.AnalysisService

	mu           sync.Mutex
	processed    []string
	processErr   error
	recovered    int
	recoverCalls int
}

func (m *mockAnalysisService) Process(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = append(m.processed, documentID)
	return m.processErr
}

func (m *mockAnalysisService) RecoverStale(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoverCalls++
	return m.recovered, nil
}

func (m *mockAnalysisService) processedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.processed...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: mocks.NewMockTaskQueue()})
	if w.concurrency != 1 {
		t.Errorf("expected concurrency 1, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected dequeue timeout 5, got %d", w.dequeueTimeout)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestWorker_ProcessTask_AnalyzeDocument(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analysis := &mockAnalysisService{}
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analysis: analysis, Logger: testLogger()})

	task := domain.NewAnalyzeDocumentTask("user-1", "doc-1")
	_ = queue.Enqueue(context.Background(), task)
	task, _ = queue.DequeueWithTimeout(context.Background(), 0)

	w.processTask(context.Background(), task, w.logger)

	if got := analysis.processedIDs(); len(got) != 1 || got[0] != "doc-1" {
		t.Errorf("expected doc-1 processed, got %v", got)
	}
	if task.Status != domain.TaskStatusCompleted {
		t.Errorf("expected task completed, got %s", task.Status)
	}
}

func TestWorker_ProcessTask_PipelineFailureIsNotRetried(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analysis := &mockAnalysisService{processErr: domain.NewAnalysisError(domain.StageModel, errors.New("timeout"))}
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analysis: analysis, Logger: testLogger()})

	task := domain.NewAnalyzeDocumentTask("user-1", "doc-1")
	_ = queue.Enqueue(context.Background(), task)
	task, _ = queue.DequeueWithTimeout(context.Background(), 0)

	w.processTask(context.Background(), task, w.logger)

	if task.Status != domain.TaskStatusFailed {
		t.Errorf("expected task failed, got %s", task.Status)
	}
	if queue.Pending() != 0 {
		t.Error("analysis tasks allow one attempt and must not be requeued")
	}
}

func TestWorker_ProcessTask_MissingDocumentID(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analysis := &mockAnalysisService{}
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analysis: analysis, Logger: testLogger()})

	task := domain.NewTask(domain.TaskTypeAnalyzeDocument, "user-1", nil)
	task.MaxAttempts = 1
	_ = queue.Enqueue(context.Background(), task)
	task, _ = queue.DequeueWithTimeout(context.Background(), 0)

	w.processTask(context.Background(), task, w.logger)

	if len(analysis.processedIDs()) != 0 {
		t.Error("expected no pipeline call without a document id")
	}
	if task.Status != domain.TaskStatusFailed {
		t.Errorf("expected task failed, got %s", task.Status)
	}
}

func TestWorker_ProcessTask_RecoverStale(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analysis := &mockAnalysisService{recovered: 2}
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analysis: analysis, Logger: testLogger()})

	task := domain.NewTask(domain.TaskTypeRecoverStale, "", nil)
	_ = queue.Enqueue(context.Background(), task)
	task, _ = queue.DequeueWithTimeout(context.Background(), 0)

	w.processTask(context.Background(), task, w.logger)

	if analysis.recoverCalls != 1 {
		t.Errorf("expected one RecoverStale call, got %d", analysis.recoverCalls)
	}
	if task.Status != domain.TaskStatusCompleted {
		t.Errorf("expected task completed, got %s", task.Status)
	}
}

func TestWorker_ProcessTask_UnknownType(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analysis: &mockAnalysisService{}, Logger: testLogger()})

	task := domain.NewTask("reindex_everything", "", nil)
	task.MaxAttempts = 1
	_ = queue.Enqueue(context.Background(), task)
	task, _ = queue.DequeueWithTimeout(context.Background(), 0)

	w.processTask(context.Background(), task, w.logger)

	if task.Status != domain.TaskStatusFailed {
		t.Errorf("expected task failed, got %s", task.Status)
	}
}

func TestWorker_StartProcessesQueue(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analysis := &mockAnalysisService{}
	w := NewWorker(WorkerConfig{
		TaskQueue:   queue,
		Analysis:    analysis,
		Logger:      testLogger(),
		Concurrency: 2,
	})

	for _, id := range []string{"doc-1", "doc-2", "doc-3"} {
		_ = queue.Enqueue(context.Background(), domain.NewAnalyzeDocumentTask("user-1", id))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(analysis.processedIDs()) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()

	if got := analysis.processedIDs(); len(got) != 3 {
		t.Errorf("expected 3 documents processed, got %v", got)
	}
	stats, _ := queue.Stats(context.Background())
	if stats.CompletedCount != 3 {
		t.Errorf("expected 3 completed tasks, got %+v", stats)
	}
}

func TestWorker_ContextCancellation(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: mocks.NewMockTaskQueue(), Analysis: &mockAnalysisService{}, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	_ = w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestWorker_Health(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: mocks.NewMockTaskQueue(), Analysis: &mockAnalysisService{}, Logger: testLogger()})

	h := w.Health(context.Background())
	if h.Running || !h.QueueHealth {
		t.Errorf("unexpected health %+v", h)
	}
}
