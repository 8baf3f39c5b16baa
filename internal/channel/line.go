package channel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"linebot_assistant/internal/logger"
)

// Assistant is the conversational core the webhook hands messages to.
type Assistant interface {
	Process(ctx context.Context, userID, message string) string
}

// webhookEnvelope is the slice of the LINE webhook payload we consume.
type webhookEnvelope struct {
	Events []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// LineClient sends reply messages through the LINE Messaging API.
type LineClient struct {
	replyURL    string
	accessToken string
	httpClient  *http.Client
}

// NewLineClient builds a reply sender for the given channel access token.
func NewLineClient(replyURL, accessToken string) *LineClient {
	return &LineClient{
		replyURL:    replyURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reply answers one webhook event with a single text message.
func (c *LineClient) Reply(ctx context.Context, replyToken, text string) error {
	payload, err := sonic.Marshal(map[string]any{
		"replyToken": replyToken,
		"messages": []map[string]string{
			{"type": "text", "text": text},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.replyURL, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("line reply rejected: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Replier is the outbound half of the channel, satisfied by LineClient.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// WebhookHandler receives LINE webhook callbacks and routes text messages
// into the assistant. It always answers 200 so the platform does not retry:
// a failed turn is our problem to log, not LINE's to redeliver.
type WebhookHandler struct {
	assistant Assistant
	replier   Replier
}

// NewWebhookHandler wires the webhook to the assistant and reply sender.
func NewWebhookHandler(assistant Assistant, replier Replier) *WebhookHandler {
	return &WebhookHandler{assistant: assistant, replier: replier}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read webhook body")
		writeStatus(w, "success")
		return
	}

	var envelope webhookEnvelope
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse webhook payload")
		writeStatus(w, "success")
		return
	}

	for _, event := range envelope.Events {
		h.handleEvent(r.Context(), event)
	}

	writeStatus(w, "success")
}

func (h *WebhookHandler) handleEvent(ctx context.Context, event webhookEvent) {
	if event.Type != "message" || event.Message.Type != "text" {
		logger.Debug().Str("event_type", event.Type).Msg("Skipping non-text event")
		return
	}

	userID := event.Source.UserID
	if userID == "" {
		userID = "anonymous"
	}

	reply := h.assistant.Process(ctx, userID, event.Message.Text)
	if reply == "" {
		return
	}

	if err := h.replier.Reply(ctx, event.ReplyToken, reply); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to send reply")
	}
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, "ok")
}

func writeStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":%q}`, status)
}
