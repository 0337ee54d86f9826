package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
	"github.com/lai-labs/sales-assistant/internal/core/ports"
)

type ChatOptions struct {
	TopK              int
	ScoreThreshold    float64
	MaxResponseTokens int
	ResponseLanguage  string
}

func (o ChatOptions) normalize() ChatOptions {
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if o.ScoreThreshold == 0 {
		o.ScoreThreshold = math.Inf(-1)
	}
	if o.MaxResponseTokens <= 0 {
		o.MaxResponseTokens = 1024
	}
	return o
}

type ChatUseCase struct {
	retriever ports.Retriever
	sessions  ports.SessionStore
	completer ports.Completer
	prompts   *PromptBuilder
	opts      ChatOptions
}

func NewChatUseCase(
	retriever ports.Retriever,
	sessions ports.SessionStore,
	completer ports.Completer,
	opts ChatOptions,
) *ChatUseCase {
	opts = opts.normalize()
	return &ChatUseCase{
		retriever: retriever,
		sessions:  sessions,
		completer: completer,
		prompts:   NewPromptBuilder(opts.ResponseLanguage),
		opts:      opts,
	}
}

// HandleMessage runs one conversational exchange. The user turn is
// recorded before the model is called so a failed completion still
// leaves the question in the history; the assistant turn is recorded
// only after a successful completion.
func (uc *ChatUseCase) HandleMessage(ctx context.Context, sessionID, userText string) (*domain.Answer, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, domain.WrapError(domain.ErrEmptyInput, "handle message", errors.New("message text is required"))
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.WrapError(domain.ErrEmptyInput, "handle message", errors.New("session id is required"))
	}

	history := uc.sessions.Context(sessionID)

	retrieved, err := uc.retrieveContext(ctx, userText)
	if err != nil {
		return nil, err
	}

	uc.sessions.Append(sessionID, domain.SessionTurn{Role: domain.RoleUser, Text: userText})

	answerText, err := uc.completer.Complete(
		ctx,
		uc.prompts.BuildSystem(retrieved),
		uc.prompts.BuildUser(history, userText),
		uc.opts.MaxResponseTokens,
	)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	uc.sessions.Append(sessionID, domain.SessionTurn{Role: domain.RoleAssistant, Text: answerText})

	return &domain.Answer{
		Text:    answerText,
		Sources: retrieved,
	}, nil
}

// retrieveContext degrades to an empty context when the index has
// nothing useful, but an unreachable embedder fails the exchange: the
// same backend serves the completion, so degrading would only hide the
// outage.
func (uc *ChatUseCase) retrieveContext(ctx context.Context, userText string) (domain.RetrievedContext, error) {
	retrieved, err := uc.retriever.Retrieve(ctx, userText, uc.opts.TopK, uc.opts.ScoreThreshold)
	if err == nil {
		return retrieved, nil
	}
	if domain.IsKind(err, domain.ErrEmbedding) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	slog.Warn("retrieval failed, answering without context", "error", err)
	return nil, nil
}
