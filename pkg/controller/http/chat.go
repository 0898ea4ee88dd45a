package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
	"github.com/gift-mpho/portfolio-gateway/pkg/usecase"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/errutil"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

// defaultChatTimeout caps one chat turn end to end. Long enough for a
// multi-round tool exchange, short enough to free edge connections.
const defaultChatTimeout = 60 * time.Second

// maxChatBodyBytes caps the request body before JSON parsing. A prompt is
// at most 1200 runes but the replayed history can be much larger.
const maxChatBodyBytes = 64 << 10

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	// Each chat turn gets its own ID so frames from concurrent streams
	// can be correlated in the logs.
	ctx := r.Context()
	ctx = logging.With(ctx, logging.From(ctx).With("turn_id", uuid.New().String()))

	var req model.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	key := clientKey(r)

	if err := s.uc.Chat.Prepare(ctx, &req, key); err != nil {
		s.writeChatError(ctx, w, err)
		return
	}

	// Admission passed. From here the response is SSE: failures become
	// error frames, not status codes.
	flusher, ok := w.(http.Flusher)
	if !ok {
		errutil.HandleHTTP(ctx, w, goerr.New("streaming unsupported by connection"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, cancel := context.WithTimeout(ctx, s.chatTimeout)
	defer cancel()

	s.uc.Chat.Stream(ctx, &req, &sseWriter{w: w, flusher: flusher})
}

func (s *Server) writeChatError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case goerr.HasTag(err, usecase.ErrTagValidation):
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)

	case goerr.HasTag(err, usecase.ErrTagGuardrail):
		logging.From(ctx).Info("prompt blocked by guardrail")
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)

	case goerr.HasTag(err, usecase.ErrTagRateLimit):
		if retryAfter := usecase.RetryAfterSeconds(err); retryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		}
		errutil.HandleHTTP(ctx, w, err, http.StatusTooManyRequests)

	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusServiceUnavailable)
	}
}

// clientKey identifies the caller for rate limiting. The edge proxy sets
// CF-Connecting-IP; X-Forwarded-For and the socket address are fallbacks
// for direct deployments.
func clientKey(r *http.Request) types.ClientKey {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return types.ClientKey(ip)
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return types.ClientKey(strings.TrimSpace(first))
		}
		return types.ClientKey(strings.TrimSpace(fwd))
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return types.ClientKey(host)
	}
	return types.ClientKey(r.RemoteAddr)
}

// sseWriter emits the wire frames the frontend consumes. Each write is
// flushed immediately so tokens render as they arrive.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseWriter) writeEvent(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal SSE payload")
	}
	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return goerr.Wrap(err, "failed to write SSE event field")
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return goerr.Wrap(err, "failed to write SSE data field")
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) WriteText(text string) error {
	return s.writeEvent("", map[string]string{"response": text})
}

func (s *sseWriter) WriteToolCall(name types.ToolName) error {
	return s.writeEvent("", map[string]any{
		"toolCall": map[string]string{"name": string(name)},
	})
}

func (s *sseWriter) WriteError(message string) error {
	return s.writeEvent("error", map[string]string{"error": message})
}

func (s *sseWriter) WriteCompletion() error {
	return s.writeEvent("completion", map[string]string{})
}
