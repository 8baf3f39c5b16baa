package assistant

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"

	"linebot_assistant/internal/config"
	"linebot_assistant/internal/logger"
	"linebot_assistant/pkg"
)

// HintSource is the read-only slice of the backend used for prompt context.
type HintSource interface {
	ListSchedules(ctx context.Context) ([]pkg.Schedule, error)
	ListConsumables(ctx context.Context) ([]pkg.Consumable, error)
}

// buildHint pre-fetches backend context when the message mentions a known
// domain. The keyword match is a heuristic hint for the classifier, not a
// gate: a miss only means the model works without the extra context. Fetch
// failures are logged and skipped, never surfaced to the user.
func buildHint(ctx context.Context, source HintSource, keywords config.KeywordConfig, message string) string {
	lowered := strings.ToLower(message)
	var b strings.Builder

	if matchesAny(lowered, keywords.Schedule) {
		schedules, err := source.ListSchedules(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Could not fetch schedule context")
		} else if data, err := sonic.MarshalString(schedules); err == nil {
			b.WriteString("\n\nCurrent schedules: ")
			b.WriteString(data)
		}
	}

	if matchesAny(lowered, keywords.Consumable) {
		consumables, err := source.ListConsumables(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Could not fetch consumable context")
		} else if data, err := sonic.MarshalString(consumables); err == nil {
			b.WriteString("\n\nCurrent consumables: ")
			b.WriteString(data)
		}
	}

	return b.String()
}

func matchesAny(lowered string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
