package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// sseWriter writes server-sent events, sending the stream headers on first use
type sseWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w, rc: http.NewResponseController(w)}
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
}

// event writes one event. An empty name sends an unnamed data event.
func (s *sseWriter) event(name, data string) error {
	s.start()
	if name != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *sseWriter) sendJSON(name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.event(name, string(b))
}

// handleChat godoc
// @Summary      Chat about an analysis
// @Description  Ask a question; the answer streams as server-sent events of {"content": "..."} terminated by [DONE]
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        analysisId  path  string              true  "Analysis ID"
// @Param        request     body  domain.ChatRequest  true  "Question"
// @Success      200
// @Failure      400  {object}  ErrorResponse  "Empty or oversized message"
// @Failure      404  {object}  ErrorResponse  "Analysis not found"
// @Failure      503  {object}  ErrorResponse  "Model not configured"
// @Router       /chat/{analysisId} [post]
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stream := newSSEWriter(w)
	// Streams outlive the server write timeout
	_ = stream.rc.SetWriteDeadline(time.Time{})

	analysisID := r.PathValue("analysisId")
	msg, err := s.chatService.Send(r.Context(), GetAuthContext(r.Context()), analysisID, req.Message, func(delta string) error {
		return stream.sendJSON("", domain.ChatDelta{Content: delta})
	})
	if err != nil {
		if !stream.started {
			s.writeServiceError(w, r, err, "chat failed")
			return
		}
		s.logger.Warn("chat stream aborted", "analysis_id", analysisID, "error", err)
		_ = stream.sendJSON("error", ErrorResponse{Error: "chat failed"})
		return
	}

	_ = stream.sendJSON("message", msg)
	_ = stream.event("", domain.ChatStreamDone)
}

// handleChatMessages godoc
// @Summary      Chat transcript
// @Description  The caller's conversation about an analysis
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Param        analysisId  path      string  true  "Analysis ID"
// @Success      200         {object}  domain.Conversation
// @Failure      404         {object}  ErrorResponse  "Analysis not found"
// @Router       /chat/{analysisId}/messages [get]
func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	conv, err := s.chatService.History(r.Context(), GetAuthContext(r.Context()), r.PathValue("analysisId"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to load chat")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}
