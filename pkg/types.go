package pkg

import (
	"time"
)

// Core types shared by the conversational action-routing pipeline.

// Action is the classified intent tag produced by the intent classifier.
// It drives which backend CRUD call the dispatcher issues.
type Action string

const (
	ActionCreateSchedule   Action = "create_schedule"
	ActionGetSchedule      Action = "get_schedule"
	ActionUpdateSchedule   Action = "update_schedule"
	ActionDeleteSchedule   Action = "delete_schedule"
	ActionCreateConsumable Action = "create_consumable"
	ActionGetConsumable    Action = "get_consumable"
	ActionUpdateConsumable Action = "update_consumable"
	ActionDeleteConsumable Action = "delete_consumable"
	ActionTextReply        Action = "text_reply"
)

var knownActions = map[Action]bool{
	ActionCreateSchedule:   true,
	ActionGetSchedule:      true,
	ActionUpdateSchedule:   true,
	ActionDeleteSchedule:   true,
	ActionCreateConsumable: true,
	ActionGetConsumable:    true,
	ActionUpdateConsumable: true,
	ActionDeleteConsumable: true,
	ActionTextReply:        true,
}

// Valid reports whether a is one of the nine recognized action tags.
func (a Action) Valid() bool {
	return knownActions[a]
}

// NeedsDispatch reports whether the action maps to a backend CRUD call.
// text_reply bypasses the dispatcher entirely.
func (a Action) NeedsDispatch() bool {
	return a.Valid() && a != ActionTextReply
}

// StructuredResponse is the action/parameters/reply triple returned by the
// intent classifier. For text_reply the parameters map is unused; every other
// action carries the parameters needed for its backend call.
type StructuredResponse struct {
	Action     Action         `json:"action"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Reply      string         `json:"reply"`
}

// TextReply builds a plain conversational response with no backend action.
func TextReply(reply string) StructuredResponse {
	return StructuredResponse{Action: ActionTextReply, Reply: reply}
}

// ConversationEntry is one completed turn: the user's message paired with the
// structured response the assistant produced for it. Immutable once appended.
type ConversationEntry struct {
	UserMessage string             `json:"user_message"`
	Assistant   StructuredResponse `json:"assistant_response"`
	Timestamp   time.Time          `json:"timestamp"`
}

// BackendResult is the uniform shape for backend CRUD outcomes. The REST
// collaborator answers list endpoints with a JSON array and everything else
// with a JSON object, possibly carrying an "error" key; both shapes are kept
// here so callers can handle them uniformly.
type BackendResult struct {
	Items  []map[string]any `json:"items,omitempty"`
	Object map[string]any   `json:"object,omitempty"`
}

// ErrorResult wraps a failure message in the object form the formatter and
// dispatcher agree on.
func ErrorResult(msg string) BackendResult {
	return BackendResult{Object: map[string]any{"error": msg}}
}

// SuccessResult is the fallback shape for backends that answer 204 or an
// empty body on success.
func SuccessResult(msg string) BackendResult {
	return BackendResult{Object: map[string]any{"success": true, "message": msg}}
}

// IsList reports whether the backend answered with a bare JSON array.
func (r BackendResult) IsList() bool {
	return r.Items != nil
}

// ErrMessage returns the error string when the result carries one.
func (r BackendResult) ErrMessage() (string, bool) {
	if r.Object == nil {
		return "", false
	}
	msg, ok := r.Object["error"].(string)
	return msg, ok && msg != ""
}

// Schedule mirrors the backend's schedule resource. Times stay as the
// backend's ISO-8601 strings; the core only renders them into prompts and
// replies, it never does date arithmetic on them.
type Schedule struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Consumable mirrors the backend's consumable resource. DaysRemaining is
// derived by the backend (max(0, lifetime_days - days since installation)).
type Consumable struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	InstallationDate string `json:"installation_date"`
	LifetimeDays     int    `json:"lifetime_days"`
	Notes            string `json:"notes,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
	DaysRemaining    int    `json:"days_remaining"`
}
