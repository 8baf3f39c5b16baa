package classifier

import (
	"context"
	"sync"
	"time"

	"linebot_assistant/internal/history"
	"linebot_assistant/internal/logger"
	"linebot_assistant/pkg"
)

// fallbackReply is the fixed apology used when the model call itself fails.
// User-visible failures stay in the user's language, never raw error text.
const fallbackReply = "抱歉，我現在無法處理您的訊息，請稍後再試。"

// Classifier asks the chat model to turn free text into a structured action.
// It owns the conversation history: every Classify call appends exactly one
// entry, whether the model answered, produced garbage, or failed outright.
type Classifier struct {
	model   ChatModel
	history history.Store
	timeout time.Duration
	locks   sync.Map // userID -> *sync.Mutex
	now     func() time.Time
}

// New creates a classifier over the given model and history store. A zero
// timeout leaves the transport default in place.
func New(model ChatModel, store history.Store, timeout time.Duration) *Classifier {
	return &Classifier{
		model:   model,
		history: store,
		timeout: timeout,
		now:     time.Now,
	}
}

// Classify runs one classification turn for the user. The per-user mutex
// serializes read-history -> generate -> append-history, so two rapid
// messages from the same user cannot interleave their windows; different
// users proceed in parallel.
func (c *Classifier) Classify(ctx context.Context, userID, text, hint string) pkg.StructuredResponse {
	mu := c.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	entries, err := c.history.Read(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to read conversation history")
		entries = nil
	}

	resp := c.generate(ctx, entries, text, hint)

	entry := pkg.ConversationEntry{
		UserMessage: text,
		Assistant:   resp,
		Timestamp:   c.now(),
	}
	if err := c.history.Append(ctx, userID, entry); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to append conversation history")
	}

	return resp
}

func (c *Classifier) generate(ctx context.Context, entries []pkg.ConversationEntry, text, hint string) pkg.StructuredResponse {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := buildMessages(c.now(), entries, text, hint)

	start := time.Now()
	out, err := c.model.Generate(ctx, messages)
	if err != nil {
		// Transport and timeout failures degrade to a fixed apology;
		// the turn is still recorded in history.
		logger.Error().Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Chat model call failed")
		return pkg.TextReply(fallbackReply)
	}

	resp := Parse(out.Content)
	logger.Debug().
		Str("action", string(resp.Action)).
		Dur("elapsed", time.Since(start)).
		Msg("Message classified")
	return resp
}

func (c *Classifier) userLock(userID string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
