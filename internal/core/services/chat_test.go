package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven/mocks"
	"github.com/legalese-app/legalese-core/internal/runtime"
)

func newTestChatService(t *testing.T) (*mocks.MockChatStore, *mocks.MockLLMService, *runtime.Services, *chatService) {
	t.Helper()
	analyses := mocks.NewMockAnalysisStore(nil, nil, nil, nil)
	require.NoError(t, analyses.Complete(context.Background(), &domain.Analysis{
		ID:             "analysis-1",
		DocumentID:     "doc-1",
		UserID:         owner.UserID,
		DocumentText:   contractText,
		Summary:        "Twelve month services agreement.",
		KeyObligations: []string{"Pay fees monthly"},
		RiskAssessment: domain.RiskAssessment{Liability: 7},
	}))
	chats := mocks.NewMockChatStore()
	llm := mocks.NewMockLLMService("The cap is low for this kind of contract.")
	rt := runtime.NewServices(domain.NewRuntimeConfig("memory", "memory"))
	rt.SetLLMService(llm)

	svc := NewChatService(ChatServiceConfig{
		AnalysisStore: analyses,
		ChatStore:     chats,
		Services:      rt,
	}).(*chatService)
	return chats, llm, rt, svc
}

func TestChatService_Send(t *testing.T) {
	chats, llm, _, svc := newTestChatService(t)
	ctx := context.Background()

	var deltas []string
	answer, err := svc.Send(ctx, owner, "analysis-1", "Is the liability cap fair?", func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "The cap is low for this kind of contract.", answer.Content)
	assert.Equal(t, answer.Content, strings.Join(deltas, ""))
	assert.Greater(t, len(deltas), 1)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 0.3, reqs[0].Temperature)
	assert.Equal(t, 1000, reqs[0].MaxTokens)
	assert.False(t, reqs[0].JSON)
	require.Len(t, reqs[0].Messages, 2)
	system := reqs[0].Messages[0].Content
	assert.Contains(t, system, "Twelve month services agreement.")
	assert.Contains(t, system, "Pay fees monthly")
	assert.Contains(t, system, contractText)

	conv, err := svc.History(ctx, owner, "analysis-1")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, domain.ChatRoleUser, conv.Messages[0].Role)
	assert.Equal(t, domain.ChatRoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, 1, chats.Len())

	// the next question replays the earlier exchange
	_, err = svc.Send(ctx, owner, "analysis-1", "And the term?", func(string) error { return nil })
	require.NoError(t, err)
	reqs = llm.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Messages, 4)
}

func TestChatService_Send_FailedStreamStoresNothing(t *testing.T) {
	chats, llm, _, svc := newTestChatService(t)
	llm.StreamErr = errors.New("connection reset")

	var got []string
	_, err := svc.Send(context.Background(), owner, "analysis-1", "Is the liability cap fair?", func(d string) error {
		got = append(got, d)
		return nil
	})
	require.Error(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 0, chats.Len())
}

func TestChatService_Send_ClientGone(t *testing.T) {
	chats, _, _, svc := newTestChatService(t)
	gone := errors.New("client disconnected")

	_, err := svc.Send(context.Background(), owner, "analysis-1", "Is the liability cap fair?", func(string) error {
		return gone
	})
	assert.ErrorIs(t, err, gone)
	assert.Equal(t, 0, chats.Len())
}

func TestChatService_Send_Rejections(t *testing.T) {
	_, _, rt, svc := newTestChatService(t)
	ctx := context.Background()
	noop := func(string) error { return nil }

	_, err := svc.Send(ctx, owner, "analysis-1", "   ", noop)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Send(ctx, owner, "analysis-1", strings.Repeat("é", MaxChatMessageRunes+1), noop)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Send(ctx, stranger, "analysis-1", "hello", noop)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Send(ctx, owner, "missing", "hello", noop)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rt.SetLLMService(nil)
	_, err = svc.Send(ctx, owner, "analysis-1", "hello", noop)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestChatService_HistoryEmpty(t *testing.T) {
	_, _, _, svc := newTestChatService(t)

	conv, err := svc.History(context.Background(), owner, "analysis-1")
	require.NoError(t, err)
	assert.Equal(t, "analysis-1", conv.AnalysisID)
	assert.Empty(t, conv.Messages)
	assert.NotNil(t, conv.Messages)

	_, err = svc.History(context.Background(), stranger, "analysis-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
