package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gift-mpho/portfolio-gateway/pkg/agent/tool"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
	"github.com/gift-mpho/portfolio-gateway/pkg/service/guardrail"
	"github.com/gift-mpho/portfolio-gateway/pkg/service/ratelimit"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

const (
	// DefaultMaxToolDepth bounds how many tool call rounds a single chat
	// turn may trigger before the orchestrator gives up.
	DefaultMaxToolDepth = 3

	// DefaultMaxStreamAttempts bounds retries when opening the provider
	// stream fails with a transient error.
	DefaultMaxStreamAttempts = 3

	// GenericErrorMessage is the only failure text shown to visitors once
	// a stream has opened. Provider details never reach the client.
	GenericErrorMessage = "I'm having trouble answering that right now."

	// depthExceededMessage is sent when the model keeps chaining tool
	// calls past the configured bound.
	depthExceededMessage = "Tool call recursion limit exceeded."

	// guardrailMessage is the canned refusal for blocked prompts.
	guardrailMessage = "I am sorry, I cannot process that request."
)

//go:embed prompt/chat_system.md
var chatSystemPromptTmpl string

var chatSystemTemplate = template.Must(template.New("chat_system").Parse(chatSystemPromptTmpl))

// personaPreambles select the assistant's voice. Unknown persona values
// fall back to the default.
var personaPreambles = map[string]string{
	"default":      "You are a friendly, concise assistant for Gift Mpho's portfolio.",
	"professional": "You are a formal, precise assistant for Gift Mpho's portfolio. Keep answers businesslike.",
	"playful":      "You are a witty, upbeat assistant for Gift Mpho's portfolio. Keep answers light but accurate.",
}

// ChatUseCase orchestrates one conversational turn: admission checks,
// the provider stream, and the bounded tool call loop.
type ChatUseCase struct {
	llm         gollem.LLMClient
	catalog     *model.Catalog
	guard       *guardrail.Screen
	limiter     *ratelimit.Limiter
	dispatcher  *tool.Dispatcher
	maxDepth    int
	maxAttempts uint
}

func NewChatUseCase(llm gollem.LLMClient, catalog *model.Catalog, guard *guardrail.Screen, limiter *ratelimit.Limiter, dispatcher *tool.Dispatcher, maxDepth int, maxAttempts uint) *ChatUseCase {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxToolDepth
	}
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxStreamAttempts
	}
	return &ChatUseCase{
		llm:         llm,
		catalog:     catalog,
		guard:       guard,
		limiter:     limiter,
		dispatcher:  dispatcher,
		maxDepth:    maxDepth,
		maxAttempts: maxAttempts,
	}
}

// Prepare runs every admission check that must complete before the
// response stream opens. Failures here still have an HTTP status code to
// return; after Prepare succeeds the controller commits to SSE.
func (uc *ChatUseCase) Prepare(ctx context.Context, req *model.ChatRequest, key types.ClientKey) error {
	if err := req.Validate(); err != nil {
		return goerr.Wrap(err, "invalid chat request", goerr.T(ErrTagValidation))
	}

	if verdict := uc.guard.Check(ctx, req.Prompt); verdict.Blocked {
		return goerr.New(guardrailMessage, goerr.T(ErrTagGuardrail), goerr.V("category", verdict.Category))
	}

	decision := uc.limiter.Allow(ctx, key)
	if !decision.Allowed {
		return goerr.New("rate limit exceeded",
			goerr.T(ErrTagRateLimit),
			goerr.V(KeyRetryAfterSeconds, decision.RetryAfterSeconds),
		)
	}

	return nil
}

// Stream drives the provider session and writes frames to w. It always
// terminates the stream with a completion frame, including after errors,
// so the frontend can stop its spinner.
func (uc *ChatUseCase) Stream(ctx context.Context, req *model.ChatRequest, w interfaces.StreamWriter) {
	logger := logging.From(ctx)

	defer func() {
		if err := w.WriteCompletion(); err != nil {
			logger.Warn("failed to write completion frame", "error", err)
		}
	}()

	systemPrompt, err := uc.buildSystemPrompt(req)
	if err != nil {
		logger.Error("failed to build system prompt", "error", err)
		uc.writeGenericError(ctx, w)
		return
	}

	session, err := uc.llm.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
		gollem.WithSessionTools(uc.dispatcher.Tools()...),
	)
	if err != nil {
		logger.Error("failed to create LLM session", "error", err)
		uc.writeGenericError(ctx, w)
		return
	}

	input := []gollem.Input{gollem.Text(req.Prompt)}

	for depth := 0; ; depth++ {
		if depth >= uc.maxDepth {
			logger.Warn("tool call depth exceeded", "depth", depth)
			if err := w.WriteError(depthExceededMessage); err != nil {
				logger.Warn("failed to write error frame", "error", err)
			}
			return
		}

		calls, err := uc.drainStream(ctx, session, input, w)
		if err != nil {
			logger.Error("chat stream failed", "error", err, "depth", depth)
			uc.writeGenericError(ctx, w)
			return
		}
		if len(calls) == 0 {
			return
		}

		input = input[:0]
		for _, call := range calls {
			result, err := uc.dispatcher.Dispatch(ctx, call)
			if err != nil {
				logger.Error("tool dispatch failed", "error", err, "tool", call.Name)
				uc.writeGenericError(ctx, w)
				return
			}

			// Terminal tools instruct the frontend directly and end the
			// turn without another model round.
			if result.Terminal() {
				if err := w.WriteToolCall(result.Signal); err != nil {
					logger.Warn("failed to write tool call frame", "error", err)
				}
				return
			}

			input = append(input, gollem.FunctionResponse{
				ID:   call.ID,
				Name: string(call.Name),
				Data: result.Payload,
			})
		}
	}
}

// drainStream opens one provider stream, forwards sanitized text frames
// to the client, and collects any function calls the model issued.
func (uc *ChatUseCase) drainStream(ctx context.Context, session gollem.Session, input []gollem.Input, w interfaces.StreamWriter) ([]*model.ToolCall, error) {
	stream, err := uc.openStream(ctx, session, input)
	if err != nil {
		return nil, err
	}

	var calls []*model.ToolCall
	for {
		select {
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "chat turn cancelled")

		case resp, ok := <-stream:
			if !ok {
				return calls, nil
			}
			if resp == nil {
				continue
			}
			// Providers deliver mid-stream failures as error-only chunks
			// before closing the channel.
			if resp.Error != nil {
				return nil, goerr.Wrap(resp.Error, "stream failed", goerr.T(ErrTagUpstream))
			}

			for _, text := range resp.Texts {
				if text == "" {
					continue
				}
				if err := w.WriteText(uc.guard.Sanitize(text)); err != nil {
					return nil, goerr.Wrap(err, "failed to write text frame")
				}
			}

			for _, fc := range resp.FunctionCalls {
				if fc == nil {
					continue
				}
				calls = append(calls, &model.ToolCall{
					ID:   fc.ID,
					Name: types.ToolName(fc.Name),
					Args: fc.Arguments,
				})
			}
		}
	}
}

// openStream starts a provider stream, retrying transient failures with
// exponential backoff. Client-class errors fail immediately.
func (uc *ChatUseCase) openStream(ctx context.Context, session gollem.Session, input []gollem.Input) (<-chan *gollem.Response, error) {
	operation := func() (<-chan *gollem.Response, error) {
		stream, err := session.GenerateStream(ctx, input...)
		if err != nil {
			if !isTransient(err) {
				return nil, backoff.Permanent(goerr.Wrap(err, "stream rejected", goerr.T(ErrTagUpstream)))
			}
			return nil, goerr.Wrap(err, "failed to open stream", goerr.T(ErrTagUpstream))
		}
		return stream, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uc.maxAttempts),
	)
}

func (uc *ChatUseCase) writeGenericError(ctx context.Context, w interfaces.StreamWriter) {
	if err := w.WriteError(GenericErrorMessage); err != nil {
		logging.From(ctx).Warn("failed to write error frame", "error", err)
	}
}

type systemPromptData struct {
	Persona  string
	Projects []*model.Project
	History  []model.ChatTurn
}

func (uc *ChatUseCase) buildSystemPrompt(req *model.ChatRequest) (string, error) {
	persona, ok := personaPreambles[req.Persona]
	if !ok {
		persona = personaPreambles["default"]
	}

	var buf bytes.Buffer
	data := systemPromptData{
		Persona:  persona,
		Projects: uc.catalog.Projects(),
		History:  req.History,
	}
	if err := chatSystemTemplate.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render system prompt")
	}
	return buf.String(), nil
}

// isTransient reports whether a provider error is worth retrying. The
// Vertex AI transport surfaces failures as gRPC status errors.
func isTransient(err error) bool {
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.Internal, codes.DeadlineExceeded, codes.ResourceExhausted:
			return true
		}
	}
	return false
}
