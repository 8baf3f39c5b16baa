package classifier

import (
	"strings"

	"github.com/bytedance/sonic"

	"linebot_assistant/pkg"
)

// Parse turns raw model output into a StructuredResponse. It never fails:
// anything that is not a well-formed action object becomes a text_reply
// carrying the raw text, so malformed model output degrades to plain chat.
func Parse(content string) pkg.StructuredResponse {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return pkg.TextReply(raw)
	}

	candidate := extractJSON(raw)

	var resp pkg.StructuredResponse
	if err := sonic.UnmarshalString(candidate, &resp); err != nil {
		return pkg.TextReply(raw)
	}
	if !resp.Action.Valid() {
		return pkg.TextReply(raw)
	}

	if resp.Action == pkg.ActionTextReply {
		// Parameters are unused for plain replies.
		resp.Parameters = nil
		if resp.Reply == "" {
			resp.Reply = raw
		}
		return resp
	}

	if resp.Parameters == nil {
		resp.Parameters = map[string]any{}
	}
	return resp
}

// extractJSON tolerates the usual model decorations: markdown code fences
// and prose wrapped around a single JSON object.
func extractJSON(raw string) string {
	s := raw

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if !strings.HasPrefix(s, "{") {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start >= 0 && end > start {
			s = s[start : end+1]
		}
	}

	return s
}
