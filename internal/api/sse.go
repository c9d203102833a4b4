package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/krishimitra/assistant/internal/store"
)

// sseWriter serializes server-sent events onto one response. The chat
// endpoints stream text deltas with it and close with a terminal event.
type sseWriter struct {
	mu  sync.Mutex
	w   http.ResponseWriter
	f   http.Flusher
	ctx context.Context
}

func newSSEWriter(w http.ResponseWriter, r *http.Request) (*sseWriter, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported by connection")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &sseWriter{w: w, f: f, ctx: r.Context()}, nil
}

// event writes one named event with a JSON payload. Writes after the client
// has gone away are dropped.
func (s *sseWriter) event(name string, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data)
	s.f.Flush()
}

func (s *sseWriter) delta(text string) {
	s.event("delta", map[string]string{"text": text})
}

func (s *sseWriter) errorEvent(message string) {
	s.event("error", map[string]string{"message": message})
}

// sseSink adapts the writer to the conversation manager's view contract.
// Transcript snapshots are folded back into incremental deltas of the
// trailing assistant message; the final state travels on the done event.
type sseSink struct {
	sse     *sseWriter
	lastLen int
}

func (s *sseSink) PublishTranscript(messages []store.ChatMessage) {
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.Role != store.RoleAssistant {
		return
	}
	if len(last.Text) < s.lastLen {
		// Finalization replaced the streamed text (error turn); the done
		// event carries the authoritative transcript.
		s.lastLen = len(last.Text)
		return
	}
	delta := last.Text[s.lastLen:]
	s.lastLen = len(last.Text)
	if delta != "" {
		s.sse.delta(delta)
	}
}

func (s *sseSink) PublishError(message string) {
	s.sse.errorEvent(message)
}

func (s *sseSink) PublishWarning(message string) {
	s.sse.event("warning", map[string]string{"message": message})
}
