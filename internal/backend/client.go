package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"linebot_assistant/internal/logger"
	"linebot_assistant/pkg"
)

// successMessage is returned for backends that answer 204 or an empty body,
// where success cannot be distinguished from an error payload.
const successMessage = "操作成功完成"

// Client talks to the CRUD REST collaborator owning schedules and
// consumables. It never returns transport errors from Do; every failure is
// folded into an error-shaped BackendResult.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIKey adds a bearer token to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues one CRUD request and folds the outcome into a BackendResult:
// JSON array -> Items, JSON object -> Object, 204/empty -> success fallback,
// non-2xx or transport failure -> {error: ...}.
func (c *Client) Do(ctx context.Context, method, path string, body map[string]any) pkg.BackendResult {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return pkg.ErrorResult(fmt.Sprintf("failed to encode request body: %v", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return pkg.ErrorResult(fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("method", method).Str("url", url).Msg("Backend request failed")
		return pkg.ErrorResult(err.Error())
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkg.ErrorResult(fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode >= 400 {
		return pkg.ErrorResult(errorMessage(resp.StatusCode, payload))
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(payload)) == 0 {
		return pkg.SuccessResult(successMessage)
	}

	return decodeResult(payload)
}

// errorMessage extracts a readable message from a non-2xx body. FastAPI-style
// backends carry it in a "detail" field.
func errorMessage(status int, payload []byte) string {
	var obj map[string]any
	if err := sonic.Unmarshal(payload, &obj); err == nil {
		if detail, ok := obj["detail"].(string); ok && detail != "" {
			return detail
		}
		if msg, ok := obj["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("backend returned status %d", status)
}

// decodeResult handles both result shapes the collaborator produces: a bare
// JSON array for list endpoints and a JSON object for everything else.
func decodeResult(payload []byte) pkg.BackendResult {
	trimmed := bytes.TrimSpace(payload)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []map[string]any
		if err := sonic.Unmarshal(trimmed, &items); err == nil {
			if items == nil {
				items = []map[string]any{}
			}
			return pkg.BackendResult{Items: items}
		}
	}

	var obj map[string]any
	if err := sonic.Unmarshal(trimmed, &obj); err == nil {
		return pkg.BackendResult{Object: obj}
	}

	// 2xx with an undecodable body still counts as success.
	return pkg.SuccessResult(successMessage)
}

// ListSchedules fetches the full schedule list as typed records, used for
// prompt context hints.
func (c *Client) ListSchedules(ctx context.Context) ([]pkg.Schedule, error) {
	return listResource[pkg.Schedule](c, ctx, "/api/schedules")
}

// ListConsumables fetches the full consumable list as typed records.
func (c *Client) ListConsumables(ctx context.Context) ([]pkg.Consumable, error) {
	return listResource[pkg.Consumable](c, ctx, "/api/consumables")
}

func listResource[T any](c *Client, ctx context.Context, path string) ([]T, error) {
	result := c.Do(ctx, http.MethodGet, path, nil)
	if msg, ok := result.ErrMessage(); ok {
		return nil, fmt.Errorf("%s", msg)
	}
	if !result.IsList() {
		return nil, fmt.Errorf("unexpected response shape from %s", path)
	}

	data, err := sonic.Marshal(result.Items)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := sonic.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
