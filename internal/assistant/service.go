package assistant

import (
	"context"

	"linebot_assistant/internal/config"
	"linebot_assistant/internal/formatter"
	"linebot_assistant/internal/logger"
	"linebot_assistant/pkg"
)

// IntentClassifier turns one user message into a structured action.
type IntentClassifier interface {
	Classify(ctx context.Context, userID, text, hint string) pkg.StructuredResponse
}

// ActionDispatcher executes a classified action against the backend.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action pkg.Action, params map[string]any) pkg.BackendResult
}

// Service is the conversational core: hint -> classify -> dispatch -> format.
// Process always returns a reply string, never an error, so the channel
// adapter has something to send no matter what failed underneath.
type Service struct {
	classifier IntentClassifier
	dispatcher ActionDispatcher
	hints      HintSource
	keywords   config.KeywordConfig
}

// NewService wires the pipeline together.
func NewService(classifier IntentClassifier, dispatcher ActionDispatcher, hints HintSource, keywords config.KeywordConfig) *Service {
	return &Service{
		classifier: classifier,
		dispatcher: dispatcher,
		hints:      hints,
		keywords:   keywords,
	}
}

// Process handles one inbound message end to end.
func (s *Service) Process(ctx context.Context, userID, message string) string {
	hint := buildHint(ctx, s.hints, s.keywords, message)

	resp := s.classifier.Classify(ctx, userID, message, hint)
	if resp.Action == pkg.ActionTextReply {
		return resp.Reply
	}

	result := s.dispatcher.Dispatch(ctx, resp.Action, resp.Parameters)
	reply := formatter.Format(resp.Reply, result, resp.Action, resp.Parameters)

	logger.Info().
		Str("user_id", userID).
		Str("action", string(resp.Action)).
		Msg("Message processed")

	return reply
}
